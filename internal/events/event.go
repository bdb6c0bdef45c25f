package events

import "time"

// Actions the reminder agent subscribes to. The reminder.* actions are
// self-addressed (posted by the agent's own timers and notification
// buttons); the system.* actions come from the platform.
const (
	ActionAlarmAlert         = "reminder.alarm_alert"
	ActionAlertTimeout       = "reminder.alert_timeout"
	ActionCloseAlert         = "reminder.close_alert"
	ActionSnoozeAlert        = "reminder.snooze_alert"
	ActionRemoveNotification = "reminder.remove_notification"

	ActionBootCompleted      = "system.boot_completed"
	ActionTimeChanged        = "system.time_changed"
	ActionTimeZoneChanged    = "system.timezone_changed"
	ActionPackageRemoved     = "system.package_removed"
	ActionPackageDataCleared = "system.package_data_cleared"
	ActionPackageRestarted   = "system.package_restarted"
	ActionProcessDied        = "system.process_died"
)

// Event is the envelope carried over the bus. ReminderID is meaningful
// for the reminder.* actions, bundle fields for the package and process
// actions.
type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ReminderID int32     `json:"reminder_id,omitempty"`
	BundleName string    `json:"bundle_name,omitempty"`
	UID        int32     `json:"uid,omitempty"`
	UserID     int32     `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
