package derivation

import "time"

// StartOfDay returns t at 00:00:00 in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns t at 23:59:59 in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}

// CheckSchedule returns an *InvalidScheduleError when end is before start.
func CheckSchedule(field string, start, end time.Time) error {
	if end.Before(start) {
		return &InvalidScheduleError{Field: field, Start: start, End: end}
	}
	return nil
}
