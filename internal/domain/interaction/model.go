package interaction

import (
	"errors"
	"time"

	"github.com/medtrack/medtrack/internal/domain/medicine"
)

var (
	// ErrSelfPair is returned when both sides of a pair are the same medicine.
	ErrSelfPair = errors.New("interaction pair requires two distinct medicines")
	// ErrTooFewMedicines is returned when a combination check names fewer than two medicines.
	ErrTooFewMedicines = errors.New("at least two medicines are required")
	// ErrDuplicatePair is returned when a pair already exists for the two medicines.
	ErrDuplicatePair = errors.New("interaction pair already exists")
	// ErrNotFound is returned when an interaction pair id resolves to nothing.
	ErrNotFound = errors.New("interaction not found")
)

// Severity grades the clinical significance of an interaction.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor:
		return true
	}
	return false
}

// Pair is one stored drug-drug interaction. LowID and HighID hold the two
// medicine ids in canonical order: LowID < HighID always, so the pair
// (a, b) and the pair (b, a) occupy a single row.
type Pair struct {
	ID          int64     `db:"id" json:"id"`
	LowID       int64     `db:"low_id" json:"lowId"`
	HighID      int64     `db:"high_id" json:"highId"`
	Severity    Severity  `db:"severity" json:"severity"`
	Description string    `db:"description" json:"description"`
	Effects     string    `db:"effects" json:"effects"`
	Management  *string   `db:"management" json:"management,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Canonicalize orders two medicine ids into (low, high). It rejects a
// medicine paired with itself.
func Canonicalize(a, b int64) (low, high int64, err error) {
	if a == b {
		return 0, 0, ErrSelfPair
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

// Result is a pair joined with the two medicines it connects, in the shape
// the interaction endpoints return.
type Result struct {
	ID          int64              `json:"id"`
	Medicine1   *medicine.Medicine `json:"medicine1"`
	Medicine2   *medicine.Medicine `json:"medicine2"`
	Severity    Severity           `json:"severity"`
	Description string             `json:"description"`
	Effects     string             `json:"effects"`
	Management  *string            `json:"management,omitempty"`
}
