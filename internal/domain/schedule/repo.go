package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores the schedule aggregate: schedules, their frequency rows,
// reminder times, and medication logs. Delete* methods are building blocks
// for the transactional cascade in Service.Delete and do not enforce
// ordering themselves.
type Repository interface {
	CreateSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error)
	// ListByUser returns the user's schedules ordered by updated_at descending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Schedule, error)
	// ListByUserAndMedicine narrows ListByUser to one medicine.
	ListByUserAndMedicine(ctx context.Context, userID uuid.UUID, medicineID int64) ([]*Schedule, error)
	UpdateSchedule(ctx context.Context, s *Schedule) error
	DeleteSchedule(ctx context.Context, id uuid.UUID) error

	UpsertFrequency(ctx context.Context, f *Frequency) error
	GetFrequency(ctx context.Context, scheduleID uuid.UUID) (*Frequency, error)
	DeleteFrequencyBySchedule(ctx context.Context, scheduleID uuid.UUID) error

	CreateReminder(ctx context.Context, r *ReminderTime) error
	GetReminder(ctx context.Context, id uuid.UUID) (*ReminderTime, error)
	ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]*ReminderTime, error)
	DeleteReminder(ctx context.Context, id uuid.UUID) error
	DeleteRemindersBySchedule(ctx context.Context, scheduleID uuid.UUID) error

	CreateLog(ctx context.Context, l *MedicationLog) error
	GetLog(ctx context.Context, id uuid.UUID) (*MedicationLog, error)
	// ListLogsBySchedule returns logs newest first, capped at limit.
	ListLogsBySchedule(ctx context.Context, scheduleID uuid.UUID, limit int) ([]*MedicationLog, error)
	// ListLogsBySchedules returns logs across many schedules newest first,
	// capped at limit. An empty id set yields an empty list.
	ListLogsBySchedules(ctx context.Context, scheduleIDs []uuid.UUID, limit int) ([]*MedicationLog, error)
	UpdateLogNotes(ctx context.Context, id uuid.UUID, notes *string) error
	DeleteLogsBySchedule(ctx context.Context, scheduleID uuid.UUID) error
}
