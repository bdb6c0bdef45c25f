package notify

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

// NoopService is used when no display service endpoint is configured;
// shows and cancels are logged and succeed.
type NoopService struct{}

func NewNoopService() *NoopService {
	return &NoopService{}
}

func (*NoopService) PublishNotification(ctx context.Context, notification Notification) error {
	slog.InfoContext(ctx, "noop notification publish",
		slog.Int("notificationId", int(notification.NotificationID)),
		slog.String("title", notification.Title),
	)
	return nil
}

func (*NoopService) CancelNotification(ctx context.Context, notificationID int32, _ string, _ domain.BundleOption) error {
	slog.InfoContext(ctx, "noop notification cancel",
		slog.Int("notificationId", int(notificationID)),
	)
	return nil
}
