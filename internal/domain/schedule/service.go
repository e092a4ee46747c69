package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/medtrack/medtrack/internal/domain/medicine"
	"github.com/medtrack/medtrack/internal/platform/db"
)

// DefaultLogLimit caps history reads when the caller does not ask for a
// specific page size.
const DefaultLogLimit = 50

// Service owns the schedule aggregate. Every operation is scoped to the
// calling user: touching another user's schedule yields ErrNotOwner.
type Service struct {
	repo      Repository
	medicines medicine.Repository
	inTx      func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(repo Repository, medicines medicine.Repository, pool *pgxpool.Pool) *Service {
	return &Service{
		repo:      repo,
		medicines: medicines,
		inTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.InTx(ctx, pool, fn)
		},
	}
}

// owned fetches a schedule and verifies the caller owns it.
func (s *Service) owned(ctx context.Context, userID, scheduleID uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.UserID != userID {
		return nil, ErrNotOwner
	}
	return sched, nil
}

func validateSchedule(sched *Schedule) error {
	if sched.MedicineID <= 0 {
		return fmt.Errorf("medicineId is required")
	}
	if sched.DosageAmount <= 0 {
		return fmt.Errorf("dosageAmount must be positive")
	}
	if sched.DosageUnit == "" {
		return fmt.Errorf("dosageUnit is required")
	}
	if sched.StartDate.IsZero() {
		return fmt.Errorf("startDate is required")
	}
	if sched.EndDate != nil && sched.EndDate.Before(sched.StartDate) {
		return fmt.Errorf("endDate must not precede startDate")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, sched *Schedule) error {
	sched.UserID = userID
	if err := validateSchedule(sched); err != nil {
		return err
	}
	if _, err := s.medicines.GetByID(ctx, sched.MedicineID); err != nil {
		return err
	}
	return s.repo.CreateSchedule(ctx, sched)
}

func (s *Service) Get(ctx context.Context, userID, scheduleID uuid.UUID) (*Schedule, error) {
	return s.owned(ctx, userID, scheduleID)
}

// List returns the user's schedules, optionally narrowed to one medicine.
func (s *Service) List(ctx context.Context, userID uuid.UUID, medicineID *int64) ([]*Schedule, error) {
	if medicineID != nil {
		return s.repo.ListByUserAndMedicine(ctx, userID, *medicineID)
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, sched *Schedule) error {
	existing, err := s.owned(ctx, userID, sched.ID)
	if err != nil {
		return err
	}
	sched.UserID = existing.UserID
	if err := validateSchedule(sched); err != nil {
		return err
	}
	if sched.MedicineID != existing.MedicineID {
		if _, err := s.medicines.GetByID(ctx, sched.MedicineID); err != nil {
			return err
		}
	}
	return s.repo.UpdateSchedule(ctx, sched)
}

// Delete removes a schedule and everything hanging off it in one
// transaction: reminders, then the frequency row, then logs, then the
// schedule itself. A failure at any step rolls the whole cascade back.
func (s *Service) Delete(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, scheduleID); err != nil {
		return err
	}
	return s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteRemindersBySchedule(txCtx, scheduleID); err != nil {
			return err
		}
		if err := s.repo.DeleteFrequencyBySchedule(txCtx, scheduleID); err != nil {
			return err
		}
		if err := s.repo.DeleteLogsBySchedule(txCtx, scheduleID); err != nil {
			return err
		}
		return s.repo.DeleteSchedule(txCtx, scheduleID)
	})
}

// -- Frequency --

func validateFrequency(f *Frequency) error {
	if !f.Type.Valid() {
		return fmt.Errorf("invalid frequency type %q", f.Type)
	}
	switch f.Type {
	case FrequencyWeekly:
		if len(f.DaysOfWeek) == 0 {
			return fmt.Errorf("daysOfWeek is required for weekly schedules")
		}
		for _, d := range f.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("daysOfWeek values must be 0 through 6")
			}
		}
	case FrequencyMonthly:
		if f.DayOfMonth == nil {
			return fmt.Errorf("dayOfMonth is required for monthly schedules")
		}
		if *f.DayOfMonth < 1 || *f.DayOfMonth > 31 {
			return fmt.Errorf("dayOfMonth must be 1 through 31")
		}
	}
	return nil
}

// SetFrequency creates or replaces the schedule's single frequency row.
func (s *Service) SetFrequency(ctx context.Context, userID uuid.UUID, f *Frequency) error {
	if _, err := s.owned(ctx, userID, f.ScheduleID); err != nil {
		return err
	}
	if err := validateFrequency(f); err != nil {
		return err
	}
	return s.repo.UpsertFrequency(ctx, f)
}

func (s *Service) GetFrequency(ctx context.Context, userID, scheduleID uuid.UUID) (*Frequency, error) {
	if _, err := s.owned(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.GetFrequency(ctx, scheduleID)
}

// -- Reminder times --

func (s *Service) AddReminder(ctx context.Context, userID uuid.UUID, r *ReminderTime) error {
	if _, err := s.owned(ctx, userID, r.ScheduleID); err != nil {
		return err
	}
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("hour must be 0 through 23")
	}
	if r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("minute must be 0 through 59")
	}
	return s.repo.CreateReminder(ctx, r)
}

func (s *Service) ListReminders(ctx context.Context, userID, scheduleID uuid.UUID) ([]*ReminderTime, error) {
	if _, err := s.owned(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.ListReminders(ctx, scheduleID)
}

func (s *Service) DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error {
	r, err := s.repo.GetReminder(ctx, reminderID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, r.ScheduleID); err != nil {
		return err
	}
	return s.repo.DeleteReminder(ctx, reminderID)
}

// -- Due computation --

// DueNow evaluates every active schedule the user owns and returns the ones
// inside a reminder window at now.
func (s *Service) DueNow(ctx context.Context, userID uuid.UUID, now time.Time) ([]*DueSchedule, error) {
	schedules, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var due []*DueSchedule
	for _, sched := range schedules {
		if !sched.Active {
			continue
		}
		freq, err := s.repo.GetFrequency(ctx, sched.ID)
		if errors.Is(err, ErrNotFound) {
			// A schedule without a frequency row cannot be due.
			continue
		}
		if err != nil {
			return nil, err
		}
		reminders, err := s.repo.ListReminders(ctx, sched.ID)
		if err != nil {
			return nil, err
		}
		if IsDue(freq, reminders, now) {
			due = append(due, &DueSchedule{Schedule: sched, Frequency: freq, Reminders: reminders})
		}
	}
	return due, nil
}

// -- Adherence log --

// LogEvent appends a dose event with takenAt stamped to now. Self-reported
// adherence is trusted input: no check ties the event to a due window.
func (s *Service) LogEvent(ctx context.Context, userID uuid.UUID, l *MedicationLog) error {
	if _, err := s.owned(ctx, userID, l.ScheduleID); err != nil {
		return err
	}
	if !l.Status.Valid() {
		return fmt.Errorf("invalid status %q", l.Status)
	}
	if l.ReminderTimeID != nil {
		r, err := s.repo.GetReminder(ctx, *l.ReminderTimeID)
		if err != nil {
			return err
		}
		if r.ScheduleID != l.ScheduleID {
			return fmt.Errorf("reminder does not belong to the schedule")
		}
	}
	l.TakenAt = time.Now().UTC()
	if err := s.repo.CreateLog(ctx, l); err != nil {
		return err
	}
	log.Debug().
		Str("schedule_id", l.ScheduleID.String()).
		Str("status", string(l.Status)).
		Msg("medication event logged")
	return nil
}

func (s *Service) GetLogsForSchedule(ctx context.Context, userID, scheduleID uuid.UUID, limit int) ([]*MedicationLog, error) {
	if _, err := s.owned(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.repo.ListLogsBySchedule(ctx, scheduleID, limit)
}

// GetLogsForUser returns recent logs across all of the user's schedules. A
// user with no schedules gets an empty history, not an error.
func (s *Service) GetLogsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*MedicationLog, error) {
	schedules, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(schedules))
	for i, sched := range schedules {
		ids[i] = sched.ID
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.repo.ListLogsBySchedules(ctx, ids, limit)
}

// UpdateLogNotes corrects the notes on an existing log row. Notes are the
// only mutable field; everything else is append-only history.
func (s *Service) UpdateLogNotes(ctx context.Context, userID, logID uuid.UUID, notes *string) error {
	l, err := s.repo.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, l.ScheduleID); err != nil {
		return err
	}
	return s.repo.UpdateLogNotes(ctx, logID, notes)
}
