package schedule

import "time"

// DueWindow is the symmetric tolerance around a reminder time within which
// the schedule counts as due.
const DueWindow = 30 * time.Minute

// IsDue reports whether a schedule is inside a reminder window at now.
// It is a pure function of the frequency, the reminder times, and the clock:
// the schedule's start and end dates are not consulted.
//
// as_needed schedules are never due; they are logged only on explicit user
// action. Weekly schedules are gated on now's day of week, monthly ones on
// now's day of month. An unrecognized frequency type is never due.
func IsDue(freq *Frequency, reminders []*ReminderTime, now time.Time) bool {
	if freq == nil {
		return false
	}

	switch freq.Type {
	case FrequencyAsNeeded:
		return false
	case FrequencyWeekly:
		if !containsDay(freq.DaysOfWeek, int(now.Weekday())) {
			return false
		}
	case FrequencyMonthly:
		if freq.DayOfMonth == nil || now.Day() != *freq.DayOfMonth {
			return false
		}
	case FrequencyDaily:
		// Active every day.
	default:
		return false
	}

	for _, r := range reminders {
		// The window is computed against today's occurrence of the
		// reminder time only; it does not wrap across midnight.
		instant := time.Date(now.Year(), now.Month(), now.Day(), r.Hour, r.Minute, 0, 0, now.Location())
		diff := now.Sub(instant)
		if diff < 0 {
			diff = -diff
		}
		if diff <= DueWindow {
			return true
		}
	}
	return false
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
