package domain

import (
	"context"
	"time"
)

// ReminderHistoryRecord is one lifecycle event of a reminder, recorded
// for offline analysis.
type ReminderHistoryRecord struct {
	ReminderID  int32
	BundleName  string
	Kind        string
	Action      string
	TriggerTime time.Time
	OccurredAt  time.Time
}

const (
	HistoryActionPublished  = "published"
	HistoryActionShown      = "shown"
	HistoryActionSnoozed    = "snoozed"
	HistoryActionTerminated = "terminated"
	HistoryActionClosed     = "closed"
	HistoryActionCanceled   = "canceled"
	HistoryActionExpired    = "expired"
)

type ReminderHistoryRecorder interface {
	RecordLifecycle(ctx context.Context, rec ReminderHistoryRecord) error
	Flush(ctx context.Context) error
	Close() error
}
