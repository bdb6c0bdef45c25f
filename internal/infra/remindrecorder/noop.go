package remindrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.ReminderHistoryRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordLifecycle(_ context.Context, _ domain.ReminderHistoryRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
