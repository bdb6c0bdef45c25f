package remindrecorder

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

// NewRecorder selects the InfluxDB recorder when it is configured and
// falls back to the noop recorder otherwise; reminder scheduling never
// depends on history recording being available.
func NewRecorder(ctx context.Context, cfg *Config) (domain.ReminderHistoryRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "reminder history recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, reminder history recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "reminder history recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
		org:      cfg.InfluxDBOrg,
	}, nil
}

func (r *influxDBRecorder) RecordLifecycle(ctx context.Context, rec domain.ReminderHistoryRecord) error {
	occurredAt := rec.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	point := influxdb2.NewPoint(
		"reminder_lifecycle",
		map[string]string{
			"reminder_id": strconv.Itoa(int(rec.ReminderID)),
			"bundle":      rec.BundleName,
			"kind":        rec.Kind,
			"action":      rec.Action,
		},
		map[string]any{
			"trigger_unix": rec.TriggerTime.Unix(),
		},
		occurredAt,
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write reminder lifecycle to InfluxDB",
			slog.String("error", err.Error()),
			slog.Int("reminderId", int(rec.ReminderID)),
			slog.String("action", rec.Action),
		)
		return err
	}
	return nil
}

func (r *influxDBRecorder) Flush(_ context.Context) error {
	return nil
}

func (r *influxDBRecorder) Close() error {
	r.client.Close()
	return nil
}
