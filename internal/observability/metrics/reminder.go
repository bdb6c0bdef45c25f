package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	reminderMeterName = "reminder.agent"
)

type ReminderMetrics struct {
	remindersPublished metric.Int64Counter
	remindersShown     metric.Int64Counter
	remindersSnoozed   metric.Int64Counter
	remindersClosed    metric.Int64Counter
	remindersCanceled  metric.Int64Counter
	remindersExpired   metric.Int64Counter
	activeReminders    metric.Int64UpDownCounter
	publishDuration    metric.Float64Histogram
}

func NewReminderMetrics() (*ReminderMetrics, error) {
	meter := otel.Meter(reminderMeterName)

	remindersPublished, err := meter.Int64Counter(
		"reminder_published_total",
		metric.WithDescription("Total number of reminders published"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersShown, err := meter.Int64Counter(
		"reminder_shown_total",
		metric.WithDescription("Total number of reminder notifications shown"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersSnoozed, err := meter.Int64Counter(
		"reminder_snoozed_total",
		metric.WithDescription("Total number of reminder snoozes"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersClosed, err := meter.Int64Counter(
		"reminder_closed_total",
		metric.WithDescription("Total number of reminders closed"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersCanceled, err := meter.Int64Counter(
		"reminder_canceled_total",
		metric.WithDescription("Total number of reminders canceled by callers"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersExpired, err := meter.Int64Counter(
		"reminder_expired_total",
		metric.WithDescription("Total number of reminders that reached their final occurrence"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	activeReminders, err := meter.Int64UpDownCounter(
		"reminder_active",
		metric.WithDescription("Reminders currently held by the agent"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	publishDuration, err := meter.Float64Histogram(
		"reminder_publish_duration_seconds",
		metric.WithDescription("Time spent handling a publish request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		remindersPublished: remindersPublished,
		remindersShown:     remindersShown,
		remindersSnoozed:   remindersSnoozed,
		remindersClosed:    remindersClosed,
		remindersCanceled:  remindersCanceled,
		remindersExpired:   remindersExpired,
		activeReminders:    activeReminders,
		publishDuration:    publishDuration,
	}, nil
}

func (m *ReminderMetrics) RecordPublished(ctx context.Context, kind string) {
	m.remindersPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
	m.activeReminders.Add(ctx, 1)
}

func (m *ReminderMetrics) RecordShown(ctx context.Context, kind string, playSound bool) {
	m.remindersShown.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("play_sound", playSound),
	))
}

func (m *ReminderMetrics) RecordSnoozed(ctx context.Context, kind string) {
	m.remindersSnoozed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *ReminderMetrics) RecordClosed(ctx context.Context, kind string) {
	m.remindersClosed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *ReminderMetrics) RecordCanceled(ctx context.Context, kind string, count int64) {
	m.remindersCanceled.Add(ctx, count, metric.WithAttributes(
		attribute.String("kind", kind),
	))
	m.activeReminders.Add(ctx, -count)
}

func (m *ReminderMetrics) RecordExpired(ctx context.Context, kind string) {
	m.remindersExpired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *ReminderMetrics) RecordRemoved(ctx context.Context, count int64) {
	m.activeReminders.Add(ctx, -count)
}

func (m *ReminderMetrics) RecordPublishDuration(ctx context.Context, kind string, duration time.Duration) {
	m.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
