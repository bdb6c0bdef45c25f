package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewAlarmOneShotRollsToTomorrow(t *testing.T) {
	// Created at 09:00 for 08:00 the same day: the first trigger must be
	// 08:00 the next calendar day.
	clock := &fakeClock{t: tuesday(9, 0)}
	r := mustAlarm(t, clock, 8, 0, nil, Options{})

	want := milli(tuesday(8, 0).AddDate(0, 0, 1))
	if got := r.TriggerTimeMilli(); got != want {
		t.Errorf("TriggerTimeMilli() = %d, want tomorrow 08:00 = %d", got, want)
	}
}

func TestNewAlarmOneShotLaterToday(t *testing.T) {
	clock := &fakeClock{t: tuesday(7, 30)}
	r := mustAlarm(t, clock, 8, 0, nil, Options{})

	if got, want := r.TriggerTimeMilli(), milli(tuesday(8, 0)); got != want {
		t.Errorf("TriggerTimeMilli() = %d, want today 08:00 = %d", got, want)
	}
}

func TestNewAlarmRepeatDaysScan(t *testing.T) {
	const (
		monday    = 1
		tuesdayD  = 2
		wednesday = 3
		sunday    = 7
	)
	tests := []struct {
		name     string
		now      time.Time
		hour     uint8
		minute   uint8
		days     []uint8
		wantDays int // days ahead of "today at hour:minute"
	}{
		{
			// Created Tuesday 10:00 for 09:00 repeating Mon/Wed: today is
			// not in the mask, Wednesday is the nearest bit scanning
			// forward.
			name:     "mon wed created tuesday",
			now:      tuesday(10, 0),
			hour:     9,
			days:     []uint8{monday, wednesday},
			wantDays: 1,
		},
		{
			name:     "today still ahead",
			now:      tuesday(8, 0),
			hour:     9,
			days:     []uint8{tuesdayD},
			wantDays: 0,
		},
		{
			name:     "today already passed wraps a full week",
			now:      tuesday(10, 0),
			hour:     9,
			days:     []uint8{tuesdayD},
			wantDays: 7,
		},
		{
			name:     "sunday bit from tuesday",
			now:      tuesday(10, 0),
			hour:     9,
			days:     []uint8{sunday},
			wantDays: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: tt.now}
			r := mustAlarm(t, clock, tt.hour, tt.minute, tt.days, Options{})

			base := time.Date(tt.now.Year(), tt.now.Month(), tt.now.Day(),
				int(tt.hour), int(tt.minute), 0, 0, time.UTC)
			want := milli(base.AddDate(0, 0, tt.wantDays))
			if got := r.TriggerTimeMilli(); got != want {
				t.Errorf("TriggerTimeMilli() = %d, want %d (%d days ahead)", got, want, tt.wantDays)
			}
		})
	}
}

func TestNewAlarmValidation(t *testing.T) {
	tests := []struct {
		name   string
		hour   uint8
		minute uint8
		days   []uint8
	}{
		{name: "hour out of range", hour: 24},
		{name: "minute out of range", minute: 60},
		{name: "day of week zero", days: []uint8{0}},
		{name: "day of week eight", days: []uint8{8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: tuesday(8, 0)}
			_, err := NewAlarm(tt.hour, tt.minute, tt.days, Options{Clock: clock})
			if !errors.Is(err, ErrInvalidParam) {
				t.Errorf("NewAlarm error = %v, want ErrInvalidParam", err)
			}
		})
	}
}

func TestAlarmDaysOfWeekRoundTrip(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	r := mustAlarm(t, clock, 9, 0, []uint8{1, 3, 7}, Options{})

	got := r.DaysOfWeek()
	want := []uint8{1, 3, 7}
	if len(got) != len(want) {
		t.Fatalf("DaysOfWeek() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DaysOfWeek()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
