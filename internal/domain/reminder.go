package domain

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type Type uint8

const (
	TypeTimer Type = iota
	TypeCalendar
	TypeAlarm
)

func (t Type) String() string {
	switch t {
	case TypeTimer:
		return "timer"
	case TypeCalendar:
		return "calendar"
	case TypeAlarm:
		return "alarm"
	default:
		return "invalid"
	}
}

// State is a bit field; multiple bits may be set at once
// (e.g. StateShowing|StateAlerting). StateInactive means all bits clear.
type State uint8

const (
	StateInactive State = 0
	StateActive   State = 1 << 0
	StateAlerting State = 1 << 1
	StateShowing  State = 1 << 2
	StateSnooze   State = 1 << 3
)

func (s State) String() string {
	if s == StateInactive {
		return "inactive"
	}
	var parts []string
	if s&StateActive != 0 {
		parts = append(parts, "active")
	}
	if s&StateAlerting != 0 {
		parts = append(parts, "alerting")
	}
	if s&StateShowing != 0 {
		parts = append(parts, "showing")
	}
	if s&StateSnooze != 0 {
		parts = append(parts, "snooze")
	}
	return strings.Join(parts, "|")
}

const (
	// InvalidReminderID marks "no reminder" in manager bookkeeping.
	InvalidReminderID int32 = -1

	millisPerSecond uint64 = 1000

	// minIntervalMilli is both the snooze-interval floor and the window
	// after a show during which the same reminder is not shown again.
	minIntervalMilli uint64 = 5 * 60 * 1000

	defaultRingDurationMilli uint64 = 1 * 1000
)

// Reminder is a scheduled, possibly repeating user-facing alert. The kind
// selects exactly one of the variant payloads; all scheduling decisions
// dispatch on it.
type Reminder struct {
	kind           Type
	id             int32
	notificationID int32

	title          string
	content        string
	snoozeContent  string
	expiredContent string
	displayContent string

	// reminderTimeMilli is the instant the reminder was last shown;
	// triggerTimeMilli is the absolute epoch-ms instant of the next fire.
	reminderTimeMilli uint64
	triggerTimeMilli  uint64
	timeIntervalMilli uint64
	ringDurationMilli uint64

	snoozeTimes        uint8
	snoozeTimesDynamic uint8

	expired bool
	state   State

	alarm    *alarmSpec
	calendar *calendarSpec
	timer    *timerSpec

	clock Clock
}

// Options carries the variant-independent construction parameters.
type Options struct {
	NotificationID      int32
	Title               string
	Content             string
	SnoozeContent       string
	ExpiredContent      string
	TimeIntervalSeconds uint64
	SnoozeTimes         uint8
	RingDurationSeconds uint64
	Clock               Clock
}

func newReminder(kind Type, opts Options) *Reminder {
	r := &Reminder{
		kind:           kind,
		id:             InvalidReminderID,
		notificationID: opts.NotificationID,
		title:          opts.Title,
		content:        opts.Content,
		snoozeContent:  opts.SnoozeContent,
		expiredContent: opts.ExpiredContent,
		state:          StateInactive,
		clock:          opts.Clock,
	}
	if r.clock == nil {
		r.clock = SystemClock{}
	}
	r.SetTimeInterval(opts.TimeIntervalSeconds)
	r.SetSnoozeTimes(opts.SnoozeTimes)
	r.SetRingDuration(opts.RingDurationSeconds)
	r.displayContent = r.content
	return r
}

func (r *Reminder) Kind() Type             { return r.kind }
func (r *Reminder) ID() int32              { return r.id }
func (r *Reminder) NotificationID() int32  { return r.notificationID }
func (r *Reminder) Title() string          { return r.title }
func (r *Reminder) Content() string        { return r.content }
func (r *Reminder) DisplayContent() string { return r.displayContent }
func (r *Reminder) State() State           { return r.state }
func (r *Reminder) IsExpired() bool        { return r.expired }

func (r *Reminder) TriggerTimeMilli() uint64  { return r.triggerTimeMilli }
func (r *Reminder) ReminderTimeMilli() uint64 { return r.reminderTimeMilli }
func (r *Reminder) TimeIntervalSeconds() uint64 {
	return r.timeIntervalMilli / millisPerSecond
}
func (r *Reminder) RingDurationMilli() uint64 { return r.ringDurationMilli }
func (r *Reminder) SnoozeTimes() uint8        { return r.snoozeTimes }
func (r *Reminder) SnoozeTimesDynamic() uint8 { return r.snoozeTimesDynamic }

// SetID is called once by the manager when the reminder is published.
func (r *Reminder) SetID(id int32) { r.id = id }

// SetTimeInterval clamps a nonzero interval below the five minute floor
// up to exactly five minutes; overflow-risking values normalize to 0
// (snoozing disabled).
func (r *Reminder) SetTimeInterval(seconds uint64) {
	switch {
	case seconds > math.MaxUint64/millisPerSecond:
		r.timeIntervalMilli = 0
	case seconds > 0 && seconds*millisPerSecond < minIntervalMilli:
		r.timeIntervalMilli = minIntervalMilli
	default:
		r.timeIntervalMilli = seconds * millisPerSecond
	}
}

// SetRingDuration clamps zero or overflow-risking values to one second.
func (r *Reminder) SetRingDuration(seconds uint64) {
	if seconds == 0 || seconds > math.MaxUint64/millisPerSecond {
		r.ringDurationMilli = defaultRingDurationMilli
		return
	}
	r.ringDurationMilli = seconds * millisPerSecond
}

func (r *Reminder) SetSnoozeTimes(n uint8) {
	r.snoozeTimes = n
	r.snoozeTimesDynamic = n
}

func (r *Reminder) IsAlerting() bool { return r.state&StateAlerting != 0 }
func (r *Reminder) IsShowing() bool  { return r.state&StateShowing != 0 }

// IsRepeating reports whether the reminder can fire more than once by
// policy (repeat bitmask or an interval-bounded snooze cycle).
func (r *Reminder) IsRepeating() bool {
	if r.timeIntervalMilli > 0 && r.snoozeTimes > 0 {
		return true
	}
	return r.hasRepeatPolicy()
}

// CanRemove reports whether the reminder holds no visible or armed state.
func (r *Reminder) CanRemove() bool {
	return r.state&(StateShowing|StateAlerting|StateActive) == 0
}

// CanShow suppresses a re-show within five minutes of the last one,
// which otherwise happens after a system time change.
func (r *Reminder) CanShow() bool {
	now := r.nowMilli()
	if now == 0 {
		slog.Warn("canShow, get current time failed", slog.Int("reminderId", int(r.id)))
		return false
	}
	return now >= r.reminderTimeMilli+minIntervalMilli
}

func (r *Reminder) ShouldShowImmediately() bool {
	if r.expired {
		return false
	}
	now := r.nowMilli()
	if now == 0 {
		return false
	}
	return r.triggerTimeMilli <= now
}

// OnStart arms the reminder. Starting an active or expired reminder is a
// logged no-op.
func (r *Reminder) OnStart() {
	if r.state&StateActive != 0 {
		slog.Warn("start reminder which is already active", slog.Int("reminderId", int(r.id)))
		return
	}
	if r.expired {
		slog.Warn("start reminder which is expired", slog.Int("reminderId", int(r.id)))
		return
	}
	r.setState(true, StateActive)
}

// OnStop disarms the reminder without touching its schedule.
func (r *Reminder) OnStop() {
	if r.state&StateActive == 0 {
		slog.Warn("stop reminder which is not active", slog.Int("reminderId", int(r.id)))
		return
	}
	r.setState(false, StateActive)
}

// OnShow records the fire, rolls the schedule forward, and when allowed
// marks the reminder visible (and audible when sound is requested).
func (r *Reminder) OnShow(playSound, isSysTimeChanged, allowToNotify bool) {
	r.setState(false, StateActive|StateSnooze)
	if isSysTimeChanged {
		now := r.nowMilli()
		if now == 0 {
			slog.Warn("onShow, get current time failed", slog.Int("reminderId", int(r.id)))
		} else {
			r.reminderTimeMilli = now
		}
	} else {
		r.reminderTimeMilli = r.triggerTimeMilli
	}
	r.UpdateNextReminder(false)
	if allowToNotify {
		r.setState(true, StateShowing)
		if playSound {
			r.setState(true, StateAlerting)
		}
		r.refreshDisplayContent()
	}
}

// OnShowFail clears the visible bit after a failed notification publish.
func (r *Reminder) OnShowFail() {
	r.setState(false, StateShowing)
}

// OnSnooze pushes the trigger one interval ahead. It fails when the
// reminder is already snoozed or the snooze cycle cannot advance.
func (r *Reminder) OnSnooze() bool {
	if r.state&StateSnooze != 0 {
		slog.Warn("snooze reminder which is already snoozed", slog.Int("reminderId", int(r.id)))
		return false
	}
	r.setState(false, StateAlerting)
	if !r.UpdateNextReminder(true) {
		return false
	}
	if r.timeIntervalMilli > 0 {
		r.setState(true, StateSnooze)
	}
	r.refreshDisplayContent()
	return true
}

// OnTerminate stops the sound while leaving the notification shown.
func (r *Reminder) OnTerminate() bool {
	if r.state&StateAlerting == 0 {
		slog.Warn("terminate reminder which is not alerting", slog.Int("reminderId", int(r.id)))
		return false
	}
	r.setState(false, StateAlerting)
	r.refreshDisplayContent()
	return true
}

// OnClose dismisses the notification; with updateNext the schedule is
// recomputed ignoring the snooze cycle, expiring when no next exists.
func (r *Reminder) OnClose(updateNext bool) {
	r.setState(false, StateShowing|StateSnooze|StateAlerting)
	if !updateNext {
		return
	}
	next, ok := r.nextIgnoringSnooze()
	if !ok {
		r.setExpired(true)
		return
	}
	r.triggerTimeMilli = next
	r.snoozeTimesDynamic = r.snoozeTimes
}

// OnSameNotificationIdCovered clears the display bits when a newer
// reminder with the same notification id replaces the visible one. The
// trigger time is untouched.
func (r *Reminder) OnSameNotificationIdCovered() {
	r.setState(false, StateAlerting|StateShowing|StateSnooze)
}

// UpdateNextReminder advances the schedule. Forced mode consumes the
// snooze cycle: while snoozes remain and an interval is configured the
// trigger moves one interval ahead; once the cycle is exhausted the
// count resets and the variant's natural computation takes over. Either
// way a missing natural next expires the reminder.
func (r *Reminder) UpdateNextReminder(force bool) bool {
	if force {
		if r.nowMilli() == 0 {
			slog.Warn("update next reminder, get current time failed", slog.Int("reminderId", int(r.id)))
			return false
		}
		if r.snoozeTimesDynamic > 0 && r.timeIntervalMilli > 0 {
			r.triggerTimeMilli += r.timeIntervalMilli
			r.snoozeTimesDynamic--
			return true
		}
	}
	r.snoozeTimesDynamic = r.snoozeTimes
	next, ok := r.naturalNext()
	if !ok {
		r.setExpired(true)
		return false
	}
	r.triggerTimeMilli = next
	return true
}

// OnDateTimeChange re-evaluates the schedule after the system clock
// moved. It returns true when the reminder must be shown immediately.
func (r *Reminder) OnDateTimeChange() bool {
	if r.kind == TypeTimer {
		r.updateTimerTrigger()
		return false
	}
	next, ok := r.nextIgnoringSnooze()
	return r.handleSysTimeChange(r.triggerTimeMilli, next, ok)
}

// OnTimeZoneChange mirrors OnDateTimeChange; with all arithmetic done in
// the clock's location a zone change is just a clock change.
func (r *Reminder) OnTimeZoneChange() bool {
	if r.kind == TypeTimer {
		r.updateTimerTrigger()
		return false
	}
	next, ok := r.nextIgnoringSnooze()
	return r.handleSysTimeChange(r.triggerTimeMilli, next, ok)
}

// handleSysTimeChange decides what a clock move means for one reminder:
// adopt the natural next trigger when it lands at or before the old one,
// demand an immediate show when the old trigger is already in the past,
// otherwise leave everything alone.
func (r *Reminder) handleSysTimeChange(oldTrigger uint64, optNext uint64, hasNext bool) bool {
	if r.expired {
		return false
	}
	now := r.nowMilli()
	if now == 0 {
		slog.Warn("handle time change, get current time failed", slog.Int("reminderId", int(r.id)))
		return false
	}
	if hasNext && optNext <= oldTrigger {
		r.triggerTimeMilli = optNext
		r.snoozeTimesDynamic = r.snoozeTimes
		return false
	}
	if oldTrigger <= now {
		r.snoozeTimesDynamic = 0
		return true
	}
	return false
}

// naturalNext is the variant's repeat computation used when a cycle
// completes: only a reminder with a repeat policy has a natural next.
func (r *Reminder) naturalNext() (uint64, bool) {
	if !r.hasRepeatPolicy() {
		return 0, false
	}
	return r.nextByPolicy(true)
}

// nextIgnoringSnooze is the variant's next occurrence without the snooze
// cycle and without forcing a one-shot roll-over.
func (r *Reminder) nextIgnoringSnooze() (uint64, bool) {
	return r.nextByPolicy(false)
}

func (r *Reminder) hasRepeatPolicy() bool {
	switch r.kind {
	case TypeAlarm:
		return r.alarm.repeatDays != 0
	case TypeCalendar:
		return r.calendar.repeatMonth != 0 && r.calendar.repeatDay != 0
	default:
		return false
	}
}

func (r *Reminder) nextByPolicy(forceToGetNext bool) (uint64, bool) {
	now := r.clock.Now()
	switch r.kind {
	case TypeAlarm:
		return r.alarmNextTriggerTime(now, forceToGetNext)
	case TypeCalendar:
		return r.calendarNextTriggerTime(now)
	default:
		return 0, false
	}
}

func (r *Reminder) setExpired(expired bool) {
	r.expired = expired
	r.refreshDisplayContent()
}

func (r *Reminder) setState(set bool, bits State) {
	if set {
		r.state |= bits
	} else {
		r.state &^= bits
	}
}

func (r *Reminder) refreshDisplayContent() {
	switch {
	case r.expired && r.expiredContent != "":
		r.displayContent = r.expiredContent
	case r.state&StateSnooze != 0 && r.snoozeContent != "":
		r.displayContent = r.snoozeContent
	default:
		r.displayContent = r.content
	}
}

// nowMilli returns the current instant in epoch ms, 0 when the clock is
// unusable (before the epoch). Callers treat 0 as "cannot schedule".
func (r *Reminder) nowMilli() uint64 {
	return timeToMilli(r.clock.Now())
}

func timeToMilli(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// Dump renders the scheduling-relevant fields for inspection.
func (r *Reminder) Dump() string {
	return fmt.Sprintf(
		"reminder{id=%d type=%s state=%s expired=%t trigger=%s interval=%ds snooze=%d/%d}",
		r.id, r.kind, r.state, r.expired,
		time.UnixMilli(int64(r.triggerTimeMilli)).Format(time.RFC3339),
		r.TimeIntervalSeconds(), r.snoozeTimesDynamic, r.snoozeTimes,
	)
}
