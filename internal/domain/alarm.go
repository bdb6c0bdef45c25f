package domain

import (
	"fmt"
	"time"
)

const daysPerWeek = 7

// alarmSpec repeats on a 7-bit day-of-week mask, Monday=1 .. Sunday=7,
// bit index day-1.
type alarmSpec struct {
	hour       uint8
	minute     uint8
	repeatDays uint8
}

// NewAlarm builds an alarm reminder firing at hour:minute on the given
// days of week (Monday=1 .. Sunday=7, empty means one-shot). The initial
// trigger of a one-shot alarm whose time already passed today rolls to
// tomorrow.
func NewAlarm(hour, minute uint8, daysOfWeek []uint8, opts Options) (*Reminder, error) {
	if hour > 23 {
		return nil, fmt.Errorf("alarm hour %d out of range: %w", hour, ErrInvalidParam)
	}
	if minute > 59 {
		return nil, fmt.Errorf("alarm minute %d out of range: %w", minute, ErrInvalidParam)
	}
	spec := &alarmSpec{hour: hour, minute: minute}
	for _, d := range daysOfWeek {
		if d < 1 || d > daysPerWeek {
			return nil, fmt.Errorf("alarm day of week %d out of range: %w", d, ErrInvalidParam)
		}
		spec.repeatDays |= 1 << (d - 1)
	}

	r := newReminder(TypeAlarm, opts)
	r.alarm = spec
	next, ok := r.alarmNextTriggerTime(r.clock.Now(), true)
	if !ok {
		return nil, fmt.Errorf("alarm has no next trigger: %w", ErrInvalidParam)
	}
	r.triggerTimeMilli = next
	return r, nil
}

func (r *Reminder) AlarmHour() uint8   { return r.alarm.hour }
func (r *Reminder) AlarmMinute() uint8 { return r.alarm.minute }

// DaysOfWeek returns the repeat days as Monday=1 .. Sunday=7 values.
func (r *Reminder) DaysOfWeek() []uint8 {
	var days []uint8
	for d := uint8(1); d <= daysPerWeek; d++ {
		if r.alarm.repeatDays&(1<<(d-1)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func (r *Reminder) alarmNextTriggerTime(now time.Time, forceToGetNext bool) (uint64, bool) {
	a := r.alarm
	target := time.Date(now.Year(), now.Month(), now.Day(),
		int(a.hour), int(a.minute), 0, 0, now.Location())
	if a.repeatDays == 0 {
		if now.Before(target) {
			return timeToMilli(target), true
		}
		if forceToGetNext {
			return timeToMilli(target.AddDate(0, 0, 1)), true
		}
		return 0, false
	}
	// AddDate keeps the wall-clock time across DST transitions.
	return timeToMilli(target.AddDate(0, 0, a.daysUntilNext(now, target))), true
}

// daysUntilNext scans at most a week ahead for the first repeat day,
// skipping today when the target time already passed.
func (a *alarmSpec) daysUntilNext(now, target time.Time) int {
	today := int(now.Weekday())
	if today == 0 {
		today = daysPerWeek // Sunday is day 7
	}
	dayCount := 0
	if !now.Before(target) {
		dayCount = 1
	}
	for ; dayCount <= daysPerWeek; dayCount++ {
		day := (today + dayCount) % daysPerWeek
		if day == 0 {
			day = daysPerWeek
		}
		if a.repeatDays&(1<<(day-1)) != 0 {
			break
		}
	}
	return dayCount
}
