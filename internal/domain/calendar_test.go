package domain

import (
	"errors"
	"testing"
	"time"
)

func mustCalendar(t *testing.T, clock Clock, dateTime time.Time, months, days []uint8, opts Options) *Reminder {
	t.Helper()
	opts.Clock = clock
	r, err := NewCalendar(dateTime, months, days, opts)
	if err != nil {
		t.Fatalf("NewCalendar(%v, %v, %v) failed: %v", dateTime, months, days, err)
	}
	return r
}

func TestNewCalendarOneShot(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	anchor := time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC)
	r := mustCalendar(t, clock, anchor, nil, nil, Options{})

	if got, want := r.TriggerTimeMilli(), milli(anchor); got != want {
		t.Errorf("TriggerTimeMilli() = %d, want anchor %d", got, want)
	}
}

func TestNewCalendarOneShotInPast(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	anchor := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	_, err := NewCalendar(anchor, nil, nil, Options{Clock: clock})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("NewCalendar(past anchor) error = %v, want ErrInvalidParam", err)
	}
}

func TestCalendarRepeatScan(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		months []uint8
		days   []uint8
		want   time.Time
	}{
		{
			name:   "later day this month",
			now:    time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC),
			hour:   10,
			months: []uint8{9},
			days:   []uint8{15},
			want:   time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "same day later time",
			now:    time.Date(2026, time.September, 15, 8, 0, 0, 0, time.UTC),
			hour:   10,
			months: []uint8{9},
			days:   []uint8{15},
			want:   time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "same day passed wraps a year",
			now:    time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC),
			hour:   10,
			months: []uint8{9},
			days:   []uint8{15},
			want:   time.Date(2027, time.September, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "month wrap across new year",
			now:    time.Date(2026, time.November, 20, 8, 0, 0, 0, time.UTC),
			hour:   9,
			months: []uint8{2},
			days:   []uint8{10},
			want:   time.Date(2027, time.February, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "leap day in a leap year",
			now:    time.Date(2027, time.December, 1, 8, 0, 0, 0, time.UTC),
			hour:   9,
			months: []uint8{2},
			days:   []uint8{29},
			want:   time.Date(2028, time.February, 29, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "day absent from short month falls to valid day",
			now:    time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
			hour:   9,
			months: []uint8{4},
			days:   []uint8{15, 31},
			want:   time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: tt.now}
			anchor := time.Date(tt.now.Year(), tt.now.Month(), tt.now.Day(),
				tt.hour, tt.minute, 0, 0, time.UTC)
			r := mustCalendar(t, clock, anchor, tt.months, tt.days, Options{})
			if got, want := r.TriggerTimeMilli(), milli(tt.want); got != want {
				t.Errorf("TriggerTimeMilli() = %d (%v), want %v",
					got, time.UnixMilli(int64(got)).UTC(), tt.want)
			}
		})
	}
}

func TestCalendarLeapDayOutOfScanRange(t *testing.T) {
	// From March 2026 the only Februaries within the thirteen month scan
	// have 28 days, so a Feb 29 repeat has no next occurrence.
	clock := &fakeClock{t: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)}
	anchor := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	_, err := NewCalendar(anchor, []uint8{2}, []uint8{29}, Options{Clock: clock})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("NewCalendar(feb 29 out of range) error = %v, want ErrInvalidParam", err)
	}
}

func TestNewCalendarValidation(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	anchor := tuesday(10, 0)

	tests := []struct {
		name   string
		months []uint8
		days   []uint8
	}{
		{name: "month out of range", months: []uint8{13}, days: []uint8{1}},
		{name: "day out of range", months: []uint8{1}, days: []uint8{32}},
		{name: "months without days", months: []uint8{1}},
		{name: "days without months", days: []uint8{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalendar(anchor, tt.months, tt.days, Options{Clock: clock})
			if !errors.Is(err, ErrInvalidParam) {
				t.Errorf("NewCalendar error = %v, want ErrInvalidParam", err)
			}
		})
	}
}

func TestDaysOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month int
		want  int
	}{
		{2026, 1, 31},
		{2026, 2, 28},
		{2028, 2, 29},  // divisible by 4, not by 100
		{2100, 2, 28},  // divisible by 100, not by 400
		{2000, 2, 29},  // divisible by 400
		{2026, 4, 30},
		{2026, 12, 31},
	}
	for _, tt := range tests {
		if got := daysOfMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("daysOfMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}
