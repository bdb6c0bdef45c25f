package domain

import "context"

// StoredReminder pairs a recovered reminder with its owning bundle.
type StoredReminder struct {
	Reminder *Reminder
	Bundle   BundleOption
}

// ReminderStore persists reminders across service restarts. Countdown
// reminders are skipped by UpdateOrInsert. Writers pass a Record
// snapshot, not the live reminder, so the store never reads state that
// another goroutine may be mutating.
type ReminderStore interface {
	UpdateOrInsert(ctx context.Context, rec Record, bundle BundleOption) error
	Delete(ctx context.Context, reminderID int32) error
	DeleteByBundle(ctx context.Context, bundleName string, userID int32) error
	GetAllValidReminders(ctx context.Context) ([]StoredReminder, error)
	GetMaxID(ctx context.Context) (int32, error)
}
