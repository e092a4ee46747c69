package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/medtrack/internal/domain/medicine"
)

// -- Mock repositories --

type mockRepo struct {
	schedules   map[uuid.UUID]*Schedule
	frequencies map[uuid.UUID]*Frequency
	reminders   map[uuid.UUID]*ReminderTime
	logs        map[uuid.UUID]*MedicationLog

	failDeleteLogs bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		schedules:   make(map[uuid.UUID]*Schedule),
		frequencies: make(map[uuid.UUID]*Frequency),
		reminders:   make(map[uuid.UUID]*ReminderTime),
		logs:        make(map[uuid.UUID]*MedicationLog),
	}
}

func (m *mockRepo) CreateSchedule(_ context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	m.schedules[s.ID] = s
	return nil
}

func (m *mockRepo) GetSchedule(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Schedule, error) {
	var result []*Schedule
	for _, s := range m.schedules {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockRepo) ListByUserAndMedicine(_ context.Context, userID uuid.UUID, medicineID int64) ([]*Schedule, error) {
	var result []*Schedule
	for _, s := range m.schedules {
		if s.UserID == userID && s.MedicineID == medicineID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateSchedule(_ context.Context, s *Schedule) error {
	if _, ok := m.schedules[s.ID]; !ok {
		return ErrNotFound
	}
	m.schedules[s.ID] = s
	return nil
}

func (m *mockRepo) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *mockRepo) UpsertFrequency(_ context.Context, f *Frequency) error {
	m.frequencies[f.ScheduleID] = f
	return nil
}

func (m *mockRepo) GetFrequency(_ context.Context, scheduleID uuid.UUID) (*Frequency, error) {
	f, ok := m.frequencies[scheduleID]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (m *mockRepo) DeleteFrequencyBySchedule(_ context.Context, scheduleID uuid.UUID) error {
	delete(m.frequencies, scheduleID)
	return nil
}

func (m *mockRepo) CreateReminder(_ context.Context, r *ReminderTime) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.reminders[r.ID] = r
	return nil
}

func (m *mockRepo) GetReminder(_ context.Context, id uuid.UUID) (*ReminderTime, error) {
	r, ok := m.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *mockRepo) ListReminders(_ context.Context, scheduleID uuid.UUID) ([]*ReminderTime, error) {
	var result []*ReminderTime
	for _, r := range m.reminders {
		if r.ScheduleID == scheduleID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRepo) DeleteReminder(_ context.Context, id uuid.UUID) error {
	if _, ok := m.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(m.reminders, id)
	return nil
}

func (m *mockRepo) DeleteRemindersBySchedule(_ context.Context, scheduleID uuid.UUID) error {
	for id, r := range m.reminders {
		if r.ScheduleID == scheduleID {
			delete(m.reminders, id)
		}
	}
	return nil
}

func (m *mockRepo) CreateLog(_ context.Context, l *MedicationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	m.logs[l.ID] = l
	return nil
}

func (m *mockRepo) GetLog(_ context.Context, id uuid.UUID) (*MedicationLog, error) {
	l, ok := m.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

func (m *mockRepo) ListLogsBySchedule(_ context.Context, scheduleID uuid.UUID, limit int) ([]*MedicationLog, error) {
	var result []*MedicationLog
	for _, l := range m.logs {
		if l.ScheduleID == scheduleID && len(result) < limit {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockRepo) ListLogsBySchedules(_ context.Context, scheduleIDs []uuid.UUID, limit int) ([]*MedicationLog, error) {
	ids := make(map[uuid.UUID]struct{}, len(scheduleIDs))
	for _, id := range scheduleIDs {
		ids[id] = struct{}{}
	}
	var result []*MedicationLog
	for _, l := range m.logs {
		if _, ok := ids[l.ScheduleID]; ok && len(result) < limit {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateLogNotes(_ context.Context, id uuid.UUID, notes *string) error {
	l, ok := m.logs[id]
	if !ok {
		return ErrNotFound
	}
	l.Notes = notes
	return nil
}

func (m *mockRepo) DeleteLogsBySchedule(_ context.Context, scheduleID uuid.UUID) error {
	if m.failDeleteLogs {
		return errors.New("simulated failure")
	}
	for id, l := range m.logs {
		if l.ScheduleID == scheduleID {
			delete(m.logs, id)
		}
	}
	return nil
}

type mockMedRepo struct{}

func (mockMedRepo) Create(_ context.Context, _ *medicine.Medicine) error { return nil }

func (mockMedRepo) GetByID(_ context.Context, id int64) (*medicine.Medicine, error) {
	if id == 99 {
		return nil, medicine.ErrNotFound
	}
	return &medicine.Medicine{ID: id, Name: "Aspirin"}, nil
}

func (mockMedRepo) GetByIDs(_ context.Context, _ []int64) (map[int64]*medicine.Medicine, error) {
	return nil, nil
}

func (mockMedRepo) Update(_ context.Context, _ *medicine.Medicine) error { return nil }
func (mockMedRepo) Delete(_ context.Context, _ int64) error              { return nil }

func (mockMedRepo) Search(_ context.Context, _ map[string]string, _, _ int) ([]*medicine.Medicine, int, error) {
	return nil, 0, nil
}

// newTestService wires a service with an in-memory repo and a passthrough
// transaction runner.
func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := &Service{
		repo:      repo,
		medicines: mockMedRepo{},
		inTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
	return svc, repo
}

var (
	owner    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	stranger = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func seedSchedule(t *testing.T, svc *Service, userID uuid.UUID) *Schedule {
	t.Helper()
	s := &Schedule{
		MedicineID:   1,
		DosageAmount: 100,
		DosageUnit:   "mg",
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:       true,
	}
	if err := svc.Create(context.Background(), userID, s); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return s
}

// -- Tests --

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		s    Schedule
	}{
		{"missing medicine", Schedule{DosageAmount: 1, DosageUnit: "mg", StartDate: start}},
		{"zero dosage", Schedule{MedicineID: 1, DosageUnit: "mg", StartDate: start}},
		{"missing unit", Schedule{MedicineID: 1, DosageAmount: 1, StartDate: start}},
		{"missing start", Schedule{MedicineID: 1, DosageAmount: 1, DosageUnit: "mg"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.s
			if err := svc.Create(context.Background(), owner, &s); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreate_EndBeforeStart(t *testing.T) {
	svc, _ := newTestService()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	s := &Schedule{MedicineID: 1, DosageAmount: 1, DosageUnit: "mg", StartDate: start, EndDate: &end}
	if err := svc.Create(context.Background(), owner, s); err == nil {
		t.Error("expected error for endDate before startDate")
	}
}

func TestCreate_UnknownMedicine(t *testing.T) {
	svc, _ := newTestService()
	s := &Schedule{MedicineID: 99, DosageAmount: 1, DosageUnit: "mg", StartDate: time.Now()}
	if err := svc.Create(context.Background(), owner, s); !errors.Is(err, medicine.ErrNotFound) {
		t.Errorf("expected medicine.ErrNotFound, got %v", err)
	}
}

func TestGet_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)

	if _, err := svc.Get(context.Background(), owner, s.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), stranger, s.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for foreign read, got %v", err)
	}
}

func TestDelete_CascadeCompleteness(t *testing.T) {
	svc, repo := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	day := 15
	if err := svc.SetFrequency(ctx, owner, &Frequency{ScheduleID: s.ID, Type: FrequencyMonthly, DayOfMonth: &day}); err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	r := &ReminderTime{ScheduleID: s.ID, Hour: 8, Minute: 0}
	if err := svc.AddReminder(ctx, owner, r); err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	l := &MedicationLog{ScheduleID: s.ID, Status: StatusTaken}
	if err := svc.LogEvent(ctx, owner, l); err != nil {
		t.Fatalf("log event: %v", err)
	}

	if err := svc.Delete(ctx, owner, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(repo.schedules) != 0 {
		t.Error("schedule row survived the cascade")
	}
	if len(repo.frequencies) != 0 {
		t.Error("frequency row survived the cascade")
	}
	if len(repo.reminders) != 0 {
		t.Error("reminder rows survived the cascade")
	}
	if len(repo.logs) != 0 {
		t.Error("log rows survived the cascade")
	}
}

func TestDelete_ForeignScheduleForbidden(t *testing.T) {
	svc, repo := newTestService()
	s := seedSchedule(t, svc, owner)

	if err := svc.Delete(context.Background(), stranger, s.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if len(repo.schedules) != 1 {
		t.Error("schedule was deleted despite ownership failure")
	}
}

func TestDelete_FailureSurfaces(t *testing.T) {
	svc, repo := newTestService()
	s := seedSchedule(t, svc, owner)
	repo.failDeleteLogs = true

	if err := svc.Delete(context.Background(), owner, s.ID); err == nil {
		t.Error("expected cascade failure to surface")
	}
}

func TestSetFrequency_Validation(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	bad := []*Frequency{
		{ScheduleID: s.ID, Type: "hourly"},
		{ScheduleID: s.ID, Type: FrequencyWeekly},
		{ScheduleID: s.ID, Type: FrequencyWeekly, DaysOfWeek: []int{7}},
		{ScheduleID: s.ID, Type: FrequencyMonthly},
	}
	for _, f := range bad {
		if err := svc.SetFrequency(ctx, owner, f); err == nil {
			t.Errorf("expected validation error for %+v", f)
		}
	}

	if err := svc.SetFrequency(ctx, owner, &Frequency{ScheduleID: s.ID, Type: FrequencyWeekly, DaysOfWeek: []int{1, 3, 5}}); err != nil {
		t.Errorf("valid weekly frequency rejected: %v", err)
	}
}

func TestSetFrequency_Replaces(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	if err := svc.SetFrequency(ctx, owner, &Frequency{ScheduleID: s.ID, Type: FrequencyDaily}); err != nil {
		t.Fatalf("set daily: %v", err)
	}
	if err := svc.SetFrequency(ctx, owner, &Frequency{ScheduleID: s.ID, Type: FrequencyWeekly, DaysOfWeek: []int{2}}); err != nil {
		t.Fatalf("replace with weekly: %v", err)
	}

	f, err := svc.GetFrequency(ctx, owner, s.ID)
	if err != nil {
		t.Fatalf("get frequency: %v", err)
	}
	if f.Type != FrequencyWeekly {
		t.Errorf("expected weekly after replace, got %s", f.Type)
	}
}

func TestAddReminder_Validation(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	if err := svc.AddReminder(ctx, owner, &ReminderTime{ScheduleID: s.ID, Hour: 24, Minute: 0}); err == nil {
		t.Error("expected error for hour 24")
	}
	if err := svc.AddReminder(ctx, owner, &ReminderTime{ScheduleID: s.ID, Hour: 8, Minute: 60}); err == nil {
		t.Error("expected error for minute 60")
	}
	if err := svc.AddReminder(ctx, owner, &ReminderTime{ScheduleID: s.ID, Hour: 0, Minute: 0}); err != nil {
		t.Errorf("midnight reminder rejected: %v", err)
	}
}

func TestDeleteReminder_Ownership(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	r := &ReminderTime{ScheduleID: s.ID, Hour: 8, Minute: 0}
	if err := svc.AddReminder(ctx, owner, r); err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	if err := svc.DeleteReminder(ctx, stranger, r.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.DeleteReminder(ctx, owner, r.ID); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
}

func TestDueNow_FiltersInactiveAndNotDue(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	active := seedSchedule(t, svc, owner)
	inactive := seedSchedule(t, svc, owner)
	inactive.Active = false
	if err := svc.Update(ctx, owner, inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	for _, s := range []*Schedule{active, inactive} {
		if err := svc.SetFrequency(ctx, owner, &Frequency{ScheduleID: s.ID, Type: FrequencyDaily}); err != nil {
			t.Fatalf("set frequency: %v", err)
		}
		if err := svc.AddReminder(ctx, owner, &ReminderTime{ScheduleID: s.ID, Hour: 8, Minute: 0}); err != nil {
			t.Fatalf("add reminder: %v", err)
		}
	}

	now := time.Date(2026, 3, 2, 8, 10, 0, 0, time.UTC)
	due, err := svc.DueNow(ctx, owner, now)
	if err != nil {
		t.Fatalf("due now: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due schedule, got %d", len(due))
	}
	if due[0].Schedule.ID != active.ID {
		t.Error("wrong schedule reported due")
	}

	// Outside the window nothing is due.
	later := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	due, err = svc.DueNow(ctx, owner, later)
	if err != nil {
		t.Fatalf("due now: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected nothing due at 14:00, got %d", len(due))
	}
}

func TestLogEvent_StampsTakenAt(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)

	l := &MedicationLog{ScheduleID: s.ID, Status: StatusTaken}
	before := time.Now().UTC()
	if err := svc.LogEvent(context.Background(), owner, l); err != nil {
		t.Fatalf("log event: %v", err)
	}
	if l.TakenAt.Before(before) {
		t.Error("takenAt was not stamped by the service")
	}
}

func TestLogEvent_InvalidStatus(t *testing.T) {
	svc, _ := newTestService()
	s := seedSchedule(t, svc, owner)

	l := &MedicationLog{ScheduleID: s.ID, Status: "forgot"}
	if err := svc.LogEvent(context.Background(), owner, l); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestLogEvent_ReminderMustMatchSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	s1 := seedSchedule(t, svc, owner)
	s2 := seedSchedule(t, svc, owner)

	r := &ReminderTime{ScheduleID: s2.ID, Hour: 8, Minute: 0}
	if err := svc.AddReminder(ctx, owner, r); err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	l := &MedicationLog{ScheduleID: s1.ID, ReminderTimeID: &r.ID, Status: StatusTaken}
	if err := svc.LogEvent(ctx, owner, l); err == nil {
		t.Error("expected error for reminder from another schedule")
	}
}

func TestGetLogsForUser_EmptyWithoutSchedules(t *testing.T) {
	svc, _ := newTestService()

	logs, err := svc.GetLogsForUser(context.Background(), owner, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("expected empty history, got %d logs", len(logs))
	}
}

func TestUpdateLogNotes(t *testing.T) {
	svc, repo := newTestService()
	s := seedSchedule(t, svc, owner)
	ctx := context.Background()

	l := &MedicationLog{ScheduleID: s.ID, Status: StatusSkipped}
	if err := svc.LogEvent(ctx, owner, l); err != nil {
		t.Fatalf("log event: %v", err)
	}

	notes := "felt nauseous"
	if err := svc.UpdateLogNotes(ctx, stranger, l.ID, &notes); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.UpdateLogNotes(ctx, owner, l.ID, &notes); err != nil {
		t.Fatalf("update notes: %v", err)
	}

	stored := repo.logs[l.ID]
	if stored.Notes == nil || *stored.Notes != notes {
		t.Error("notes were not updated")
	}
	if stored.Status != StatusSkipped {
		t.Error("status must stay untouched by a notes correction")
	}
}
