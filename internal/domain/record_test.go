package domain

import (
	"testing"
	"time"
)

func TestAlarmRecordRoundTrip(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	r := mustAlarm(t, clock, 9, 30, []uint8{2, 5}, Options{
		NotificationID:      42,
		Title:               "standup",
		Content:             "daily standup",
		SnoozeContent:       "standup soon",
		ExpiredContent:      "standup missed",
		TimeIntervalSeconds: 600,
		SnoozeTimes:         2,
		RingDurationSeconds: 15,
	})
	r.SetID(7)

	got, err := Recover(r.ToRecord(), clock)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if got.ID() != 7 || got.Kind() != TypeAlarm || got.NotificationID() != 42 {
		t.Errorf("identity mismatch: id=%d kind=%v notification=%d", got.ID(), got.Kind(), got.NotificationID())
	}
	if got.TriggerTimeMilli() != r.TriggerTimeMilli() {
		t.Errorf("TriggerTimeMilli() = %d, want %d", got.TriggerTimeMilli(), r.TriggerTimeMilli())
	}
	if got.TimeIntervalSeconds() != 600 || got.SnoozeTimes() != 2 || got.RingDurationMilli() != 15000 {
		t.Errorf("scheduling fields mismatch: interval=%d snooze=%d ring=%d",
			got.TimeIntervalSeconds(), got.SnoozeTimes(), got.RingDurationMilli())
	}
	if got.AlarmHour() != 9 || got.AlarmMinute() != 30 {
		t.Errorf("alarm time = %d:%d, want 9:30", got.AlarmHour(), got.AlarmMinute())
	}
	gotDays, wantDays := got.DaysOfWeek(), r.DaysOfWeek()
	if len(gotDays) != len(wantDays) {
		t.Fatalf("DaysOfWeek() = %v, want %v", gotDays, wantDays)
	}
	for i := range wantDays {
		if gotDays[i] != wantDays[i] {
			t.Errorf("DaysOfWeek()[%d] = %d, want %d", i, gotDays[i], wantDays[i])
		}
	}
	if got.Title() != "standup" || got.Content() != "daily standup" {
		t.Errorf("presentation mismatch: title=%q content=%q", got.Title(), got.Content())
	}
}

func TestCalendarRecordRoundTrip(t *testing.T) {
	clock := &fakeClock{t: tuesday(8, 0)}
	anchor := time.Date(2026, time.September, 15, 14, 45, 0, 0, time.UTC)
	r := mustCalendar(t, clock, anchor, []uint8{3, 9}, []uint8{1, 15, 31}, Options{SnoozeTimes: 1})
	r.SetID(11)

	got, err := Recover(r.ToRecord(), clock)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if got.TriggerTimeMilli() != r.TriggerTimeMilli() {
		t.Errorf("TriggerTimeMilli() = %d, want %d", got.TriggerTimeMilli(), r.TriggerTimeMilli())
	}
	if got.CalendarHour() != 14 || got.CalendarMinute() != 45 {
		t.Errorf("calendar time = %d:%d, want 14:45", got.CalendarHour(), got.CalendarMinute())
	}
	if got.FirstDesignateYear() != 2026 || got.FirstDesignateMonth() != 9 || got.FirstDesignateDay() != 15 {
		t.Errorf("anchor = %d-%d-%d, want 2026-9-15",
			got.FirstDesignateYear(), got.FirstDesignateMonth(), got.FirstDesignateDay())
	}
	gotMonths := got.RepeatMonths()
	if len(gotMonths) != 2 || gotMonths[0] != 3 || gotMonths[1] != 9 {
		t.Errorf("RepeatMonths() = %v, want [3 9]", gotMonths)
	}
	gotDays := got.RepeatDaysOfMonth()
	if len(gotDays) != 3 || gotDays[0] != 1 || gotDays[1] != 15 || gotDays[2] != 31 {
		t.Errorf("RepeatDaysOfMonth() = %v, want [1 15 31]", gotDays)
	}

	// Recovered state behaves: advancing naturally must land on a repeat
	// day, not the anchor.
	if !got.UpdateNextReminder(false) {
		t.Fatal("recovered calendar could not advance")
	}
}
