package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a schedule, reminder, or log id resolves
	// to nothing.
	ErrNotFound = errors.New("schedule not found")
	// ErrNotOwner is returned when a caller touches another user's schedule.
	ErrNotOwner = errors.New("schedule belongs to another user")
)

// FrequencyType names the recurrence pattern of a schedule.
type FrequencyType string

const (
	FrequencyDaily    FrequencyType = "daily"
	FrequencyWeekly   FrequencyType = "weekly"
	FrequencyMonthly  FrequencyType = "monthly"
	FrequencyAsNeeded FrequencyType = "as_needed"
)

func (f FrequencyType) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

// Schedule is one user's recurring plan for taking one medicine.
type Schedule struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	MedicineID   int64      `db:"medicine_id" json:"medicineId"`
	DosageAmount float64    `db:"dosage_amount" json:"dosageAmount"`
	DosageUnit   string     `db:"dosage_unit" json:"dosageUnit"`
	Instructions *string    `db:"instructions" json:"instructions,omitempty"`
	StartDate    time.Time  `db:"start_date" json:"startDate"`
	EndDate      *time.Time `db:"end_date" json:"endDate,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Frequency describes how often a schedule recurs. Exactly one row exists
// per schedule. DaysOfWeek uses 0 for Sunday through 6 for Saturday and is
// meaningful only for weekly schedules; DayOfMonth only for monthly ones.
type Frequency struct {
	ScheduleID uuid.UUID     `db:"schedule_id" json:"scheduleId"`
	Type       FrequencyType `db:"type" json:"type"`
	DaysOfWeek []int         `db:"days_of_week" json:"daysOfWeek,omitempty"`
	DayOfMonth *int          `db:"day_of_month" json:"dayOfMonth,omitempty"`
}

// ReminderTime is one clock time at which a schedule's dose is prompted.
type ReminderTime struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ScheduleID uuid.UUID `db:"schedule_id" json:"scheduleId"`
	Hour       int       `db:"hour" json:"hour"`
	Minute     int       `db:"minute" json:"minute"`
	Label      *string   `db:"label" json:"label,omitempty"`
}

// LogStatus records how a dose event went.
type LogStatus string

const (
	StatusTaken   LogStatus = "taken"
	StatusSkipped LogStatus = "skipped"
	StatusLate    LogStatus = "late"
)

func (s LogStatus) Valid() bool {
	switch s {
	case StatusTaken, StatusSkipped, StatusLate:
		return true
	}
	return false
}

// MedicationLog is one self-reported dose event. Rows are append-only; only
// Notes may be changed after the fact.
type MedicationLog struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ScheduleID     uuid.UUID  `db:"schedule_id" json:"scheduleId"`
	ReminderTimeID *uuid.UUID `db:"reminder_time_id" json:"reminderTimeId,omitempty"`
	TakenAt        time.Time  `db:"taken_at" json:"takenAt"`
	ScheduledFor   *time.Time `db:"scheduled_for" json:"scheduledFor,omitempty"`
	Status         LogStatus  `db:"status" json:"status"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// DueSchedule is a schedule that is currently inside a reminder window,
// joined with its frequency and reminder times for display.
type DueSchedule struct {
	Schedule  *Schedule       `json:"schedule"`
	Frequency *Frequency      `json:"frequency"`
	Reminders []*ReminderTime `json:"reminders"`
}
