package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// -- Schedules --

const scheduleCols = `id, user_id, medicine_id, dosage_amount, dosage_unit, instructions, start_date, end_date, active, created_at, updated_at`

func scanScheduleRow(dest *Schedule, row pgx.Row) error {
	return row.Scan(&dest.ID, &dest.UserID, &dest.MedicineID, &dest.DosageAmount, &dest.DosageUnit,
		&dest.Instructions, &dest.StartDate, &dest.EndDate, &dest.Active, &dest.CreatedAt, &dest.UpdatedAt)
}

func (r *repoPG) CreateSchedule(ctx context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO schedule (id, user_id, medicine_id, dosage_amount, dosage_unit, instructions, start_date, end_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.MedicineID, s.DosageAmount, s.DosageUnit, s.Instructions, s.StartDate, s.EndDate, s.Active).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	var s Schedule
	err := scanScheduleRow(&s, r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedule WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) listSchedules(ctx context.Context, query string, args ...interface{}) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.UserID, &s.MedicineID, &s.DosageAmount, &s.DosageUnit,
			&s.Instructions, &s.StartDate, &s.EndDate, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Schedule, error) {
	return r.listSchedules(ctx,
		`SELECT `+scheduleCols+` FROM schedule WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
}

func (r *repoPG) ListByUserAndMedicine(ctx context.Context, userID uuid.UUID, medicineID int64) ([]*Schedule, error) {
	return r.listSchedules(ctx,
		`SELECT `+scheduleCols+` FROM schedule WHERE user_id = $1 AND medicine_id = $2 ORDER BY updated_at DESC`,
		userID, medicineID)
}

func (r *repoPG) UpdateSchedule(ctx context.Context, s *Schedule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule
		SET medicine_id=$2, dosage_amount=$3, dosage_unit=$4, instructions=$5, start_date=$6, end_date=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.MedicineID, s.DosageAmount, s.DosageUnit, s.Instructions, s.StartDate, s.EndDate, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Frequency --

func (r *repoPG) UpsertFrequency(ctx context.Context, f *Frequency) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_frequency (schedule_id, type, days_of_week, day_of_month)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (schedule_id)
		DO UPDATE SET type=EXCLUDED.type, days_of_week=EXCLUDED.days_of_week, day_of_month=EXCLUDED.day_of_month`,
		f.ScheduleID, f.Type, f.DaysOfWeek, f.DayOfMonth)
	return err
}

func (r *repoPG) GetFrequency(ctx context.Context, scheduleID uuid.UUID) (*Frequency, error) {
	var f Frequency
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT schedule_id, type, days_of_week, day_of_month
		FROM schedule_frequency WHERE schedule_id = $1`, scheduleID).
		Scan(&f.ScheduleID, &f.Type, &f.DaysOfWeek, &f.DayOfMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) DeleteFrequencyBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_frequency WHERE schedule_id = $1`, scheduleID)
	return err
}

// -- Reminder times --

func (r *repoPG) CreateReminder(ctx context.Context, rt *ReminderTime) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reminder_time (id, schedule_id, hour, minute, label)
		VALUES ($1, $2, $3, $4, $5)`,
		rt.ID, rt.ScheduleID, rt.Hour, rt.Minute, rt.Label)
	return err
}

func (r *repoPG) GetReminder(ctx context.Context, id uuid.UUID) (*ReminderTime, error) {
	var rt ReminderTime
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, schedule_id, hour, minute, label FROM reminder_time WHERE id = $1`, id).
		Scan(&rt.ID, &rt.ScheduleID, &rt.Hour, &rt.Minute, &rt.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *repoPG) ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]*ReminderTime, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, schedule_id, hour, minute, label
		FROM reminder_time WHERE schedule_id = $1
		ORDER BY hour, minute`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ReminderTime
	for rows.Next() {
		var rt ReminderTime
		if err := rows.Scan(&rt.ID, &rt.ScheduleID, &rt.Hour, &rt.Minute, &rt.Label); err != nil {
			return nil, err
		}
		result = append(result, &rt)
	}
	return result, rows.Err()
}

func (r *repoPG) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM reminder_time WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteRemindersBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM reminder_time WHERE schedule_id = $1`, scheduleID)
	return err
}

// -- Medication logs --

const logCols = `id, schedule_id, reminder_time_id, taken_at, scheduled_for, status, notes, created_at`

func (r *repoPG) CreateLog(ctx context.Context, l *MedicationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication_log (id, schedule_id, reminder_time_id, taken_at, scheduled_for, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		l.ID, l.ScheduleID, l.ReminderTimeID, l.TakenAt, l.ScheduledFor, l.Status, l.Notes).
		Scan(&l.CreatedAt)
}

func (r *repoPG) GetLog(ctx context.Context, id uuid.UUID) (*MedicationLog, error) {
	var l MedicationLog
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+logCols+` FROM medication_log WHERE id = $1`, id).
		Scan(&l.ID, &l.ScheduleID, &l.ReminderTimeID, &l.TakenAt, &l.ScheduledFor, &l.Status, &l.Notes, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) listLogs(ctx context.Context, query string, args ...interface{}) ([]*MedicationLog, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*MedicationLog
	for rows.Next() {
		var l MedicationLog
		if err := rows.Scan(&l.ID, &l.ScheduleID, &l.ReminderTimeID, &l.TakenAt, &l.ScheduledFor, &l.Status, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}

func (r *repoPG) ListLogsBySchedule(ctx context.Context, scheduleID uuid.UUID, limit int) ([]*MedicationLog, error) {
	return r.listLogs(ctx,
		`SELECT `+logCols+` FROM medication_log WHERE schedule_id = $1 ORDER BY taken_at DESC LIMIT $2`,
		scheduleID, limit)
}

func (r *repoPG) ListLogsBySchedules(ctx context.Context, scheduleIDs []uuid.UUID, limit int) ([]*MedicationLog, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	return r.listLogs(ctx,
		`SELECT `+logCols+` FROM medication_log WHERE schedule_id = ANY($1) ORDER BY taken_at DESC LIMIT $2`,
		scheduleIDs, limit)
}

func (r *repoPG) UpdateLogNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE medication_log SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteLogsBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication_log WHERE schedule_id = $1`, scheduleID)
	return err
}
