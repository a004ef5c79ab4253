package dates

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day ignores time", base, time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC), 0},
		{"tomorrow", base, base.AddDate(0, 0, 1), 1},
		{"yesterday", base, base.AddDate(0, 0, -1), -1},
		{"five days out", base, base.AddDate(0, 0, 5), 5},
		{"late evening to early morning next day", time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(tc.from, tc.to); got != tc.want {
				t.Fatalf("DaysBetween(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestBeforeDayNormalizesZones(t *testing.T) {
	// 23:00 in UTC-5 on March 9 is already March 10 in UTC.
	est := time.FixedZone("EST", -5*3600)
	a := time.Date(2026, 3, 9, 23, 0, 0, 0, est)
	b := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if BeforeDay(a, b) {
		t.Fatalf("expected %v and %v to land on the same UTC day", a, b)
	}
	if !SameDay(a, b) {
		t.Fatalf("expected SameDay for %v and %v", a, b)
	}
}

func TestStartOfDayUTC(t *testing.T) {
	got := StartOfDayUTC(time.Date(2026, 7, 4, 18, 45, 12, 999, time.UTC))
	want := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
