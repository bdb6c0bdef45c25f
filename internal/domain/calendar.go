package domain

import (
	"fmt"
	"time"
)

const monthsPerYear = 12

// calendarSpec fires at a designated date and time, optionally repeating
// on a 12-bit month mask plus a 31-bit day-of-month mask. The first
// designated y/m/d is kept as the anchor for a non-repeating calendar.
type calendarSpec struct {
	hour   int
	minute int

	repeatMonth uint16
	repeatDay   uint32

	firstDesignateYear  int
	firstDesignateMonth int
	firstDesignateDay   int
}

// NewCalendar builds a calendar reminder anchored at dateTime. Repeat
// months (1..12) and repeat days of month (1..31) must either both be
// given or both be empty; without them the anchor must still be in the
// future.
func NewCalendar(dateTime time.Time, repeatMonths, repeatDays []uint8, opts Options) (*Reminder, error) {
	spec := &calendarSpec{
		hour:                dateTime.Hour(),
		minute:              dateTime.Minute(),
		firstDesignateYear:  dateTime.Year(),
		firstDesignateMonth: int(dateTime.Month()),
		firstDesignateDay:   dateTime.Day(),
	}
	for _, m := range repeatMonths {
		if m < 1 || m > monthsPerYear {
			return nil, fmt.Errorf("calendar repeat month %d out of range: %w", m, ErrInvalidParam)
		}
		spec.repeatMonth |= 1 << (m - 1)
	}
	for _, d := range repeatDays {
		if d < 1 || d > 31 {
			return nil, fmt.Errorf("calendar repeat day %d out of range: %w", d, ErrInvalidParam)
		}
		spec.repeatDay |= 1 << (d - 1)
	}
	if (spec.repeatMonth == 0) != (spec.repeatDay == 0) {
		return nil, fmt.Errorf("calendar repeat months and days must be set together: %w", ErrInvalidParam)
	}

	r := newReminder(TypeCalendar, opts)
	r.calendar = spec
	next, ok := r.calendarNextTriggerTime(r.clock.Now())
	if !ok {
		return nil, fmt.Errorf("calendar has no next trigger: %w", ErrInvalidParam)
	}
	r.triggerTimeMilli = next
	return r, nil
}

func (r *Reminder) CalendarHour() int           { return r.calendar.hour }
func (r *Reminder) CalendarMinute() int         { return r.calendar.minute }
func (r *Reminder) FirstDesignateYear() int     { return r.calendar.firstDesignateYear }
func (r *Reminder) FirstDesignateMonth() int    { return r.calendar.firstDesignateMonth }
func (r *Reminder) FirstDesignateDay() int      { return r.calendar.firstDesignateDay }

// RepeatMonths returns the repeat months as 1..12 values.
func (r *Reminder) RepeatMonths() []uint8 {
	var months []uint8
	for m := uint8(1); m <= monthsPerYear; m++ {
		if r.calendar.repeatMonth&(1<<(m-1)) != 0 {
			months = append(months, m)
		}
	}
	return months
}

// RepeatDaysOfMonth returns the repeat days as 1..31 values.
func (r *Reminder) RepeatDaysOfMonth() []uint8 {
	var days []uint8
	for d := uint8(1); d <= 31; d++ {
		if r.calendar.repeatDay&(1<<(d-1)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

// calendarNextTriggerTime scans forward month by month (wrapping the
// year, at most thirteen months so a repeat month equal to the current
// one is retried next year) for the first repeat day strictly in the
// future at minute granularity.
func (r *Reminder) calendarNextTriggerTime(now time.Time) (uint64, bool) {
	c := r.calendar
	loc := now.Location()
	if c.repeatMonth == 0 || c.repeatDay == 0 {
		target := time.Date(c.firstDesignateYear, time.Month(c.firstDesignateMonth),
			c.firstDesignateDay, c.hour, c.minute, 0, 0, loc)
		if now.After(target) {
			return 0, false
		}
		return timeToMilli(target), true
	}

	nowTrunc := now.Truncate(time.Minute)
	for off := 0; off <= monthsPerYear; off++ {
		idx := int(now.Month()) - 1 + off
		year := now.Year() + idx/monthsPerYear
		month := idx%monthsPerYear + 1
		if c.repeatMonth&(1<<(month-1)) == 0 {
			continue
		}
		for day := 1; day <= daysOfMonth(year, month); day++ {
			if c.repeatDay&(1<<(day-1)) == 0 {
				continue
			}
			t := time.Date(year, time.Month(month), day, c.hour, c.minute, 0, 0, loc)
			if t.After(nowTrunc) {
				return timeToMilli(t), true
			}
		}
	}
	return 0, false
}

func daysOfMonth(year, month int) int {
	switch month {
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
