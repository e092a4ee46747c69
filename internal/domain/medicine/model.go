package medicine

import (
	"strings"
	"time"
)

// Medicine maps to the medicine table (drug directory entry).
type Medicine struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"` // comma-joined tag list
	Aliases     *string   `db:"aliases" json:"aliases,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryTags splits the comma-joined category field into trimmed tags.
func (m *Medicine) CategoryTags() []string {
	if m.Category == "" {
		return nil
	}
	parts := strings.Split(m.Category, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
