package dates

import "time"

// NowFunc supplies the current time. Services take one so tests can pin the clock.
type NowFunc func() time.Time

// StartOfDayUTC truncates a timestamp to UTC midnight. All due-date math in the
// engine is date-only; normalizing both sides here avoids off-by-one-day drift
// from time-of-day or zone differences.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference to - from, negative when to is
// in the past relative to from.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDayUTC(to).Sub(StartOfDayUTC(from)).Hours() / 24)
}

// BeforeDay reports whether a falls on an earlier calendar day than b.
func BeforeDay(a, b time.Time) bool {
	return StartOfDayUTC(a).Before(StartOfDayUTC(b))
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDayUTC(a).Equal(StartOfDayUTC(b))
}
