package domain

import "fmt"

// Record is the flat persistence image of a reminder. The store maps it
// to and from rows; Kind is the variant discriminant.
type Record struct {
	ID             int32
	Kind           Type
	NotificationID int32

	Title          string
	Content        string
	SnoozeContent  string
	ExpiredContent string

	ReminderTimeMilli uint64
	TriggerTimeMilli  uint64
	TimeIntervalMilli uint64
	RingDurationMilli uint64

	SnoozeTimes        uint8
	SnoozeTimesDynamic uint8
	Expired            bool
	State              State

	AlarmHour        uint8
	AlarmMinute      uint8
	RepeatDaysOfWeek uint8

	CalendarHour        int
	CalendarMinute      int
	RepeatMonths        uint16
	RepeatDaysOfMonth   uint32
	FirstDesignateYear  int
	FirstDesignateMonth int
	FirstDesignateDay   int
}

func (r *Reminder) ToRecord() Record {
	rec := Record{
		ID:                 r.id,
		Kind:               r.kind,
		NotificationID:     r.notificationID,
		Title:              r.title,
		Content:            r.content,
		SnoozeContent:      r.snoozeContent,
		ExpiredContent:     r.expiredContent,
		ReminderTimeMilli:  r.reminderTimeMilli,
		TriggerTimeMilli:   r.triggerTimeMilli,
		TimeIntervalMilli:  r.timeIntervalMilli,
		RingDurationMilli:  r.ringDurationMilli,
		SnoozeTimes:        r.snoozeTimes,
		SnoozeTimesDynamic: r.snoozeTimesDynamic,
		Expired:            r.expired,
		State:              r.state,
	}
	switch r.kind {
	case TypeAlarm:
		rec.AlarmHour = r.alarm.hour
		rec.AlarmMinute = r.alarm.minute
		rec.RepeatDaysOfWeek = r.alarm.repeatDays
	case TypeCalendar:
		rec.CalendarHour = r.calendar.hour
		rec.CalendarMinute = r.calendar.minute
		rec.RepeatMonths = r.calendar.repeatMonth
		rec.RepeatDaysOfMonth = r.calendar.repeatDay
		rec.FirstDesignateYear = r.calendar.firstDesignateYear
		rec.FirstDesignateMonth = r.calendar.firstDesignateMonth
		rec.FirstDesignateDay = r.calendar.firstDesignateDay
	}
	return rec
}

// Recover rebuilds a reminder from its persistence image. Countdown
// reminders are never persisted, so recovering one is an error.
func Recover(rec Record, clock Clock) (*Reminder, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	r := &Reminder{
		kind:               rec.Kind,
		id:                 rec.ID,
		notificationID:     rec.NotificationID,
		title:              rec.Title,
		content:            rec.Content,
		snoozeContent:      rec.SnoozeContent,
		expiredContent:     rec.ExpiredContent,
		reminderTimeMilli:  rec.ReminderTimeMilli,
		triggerTimeMilli:   rec.TriggerTimeMilli,
		timeIntervalMilli:  rec.TimeIntervalMilli,
		ringDurationMilli:  rec.RingDurationMilli,
		snoozeTimes:        rec.SnoozeTimes,
		snoozeTimesDynamic: rec.SnoozeTimesDynamic,
		expired:            rec.Expired,
		state:              rec.State,
		clock:              clock,
	}
	switch rec.Kind {
	case TypeAlarm:
		if rec.AlarmHour > 23 || rec.AlarmMinute > 59 {
			return nil, fmt.Errorf("recover alarm %d: time out of range: %w", rec.ID, ErrInvalidParam)
		}
		r.alarm = &alarmSpec{
			hour:       rec.AlarmHour,
			minute:     rec.AlarmMinute,
			repeatDays: rec.RepeatDaysOfWeek & ((1 << daysPerWeek) - 1),
		}
	case TypeCalendar:
		if rec.CalendarHour < 0 || rec.CalendarHour > 23 || rec.CalendarMinute < 0 || rec.CalendarMinute > 59 {
			return nil, fmt.Errorf("recover calendar %d: time out of range: %w", rec.ID, ErrInvalidParam)
		}
		r.calendar = &calendarSpec{
			hour:                rec.CalendarHour,
			minute:              rec.CalendarMinute,
			repeatMonth:         rec.RepeatMonths & ((1 << monthsPerYear) - 1),
			repeatDay:           rec.RepeatDaysOfMonth & ((1 << 31) - 1),
			firstDesignateYear:  rec.FirstDesignateYear,
			firstDesignateMonth: rec.FirstDesignateMonth,
			firstDesignateDay:   rec.FirstDesignateDay,
		}
	case TypeTimer:
		return nil, fmt.Errorf("recover reminder %d: countdown reminders are not persisted: %w", rec.ID, ErrInvalidParam)
	default:
		return nil, fmt.Errorf("recover reminder %d: unknown type %d: %w", rec.ID, rec.Kind, ErrInvalidParam)
	}
	r.refreshDisplayContent()
	return r, nil
}
