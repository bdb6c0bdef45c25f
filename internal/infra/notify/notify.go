package notify

import (
	"context"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

// Notification is what the display service needs to render a reminder.
type Notification struct {
	NotificationID int32  `json:"notification_id"`
	Label          string `json:"label"`
	Title          string `json:"title"`
	Text           string `json:"text"`
	BundleName     string `json:"bundle_name"`
	UID            int32  `json:"uid"`
	PlaySound      bool   `json:"play_sound"`
}

// Service posts and cancels the notifications backing reminders.
// Failures are reported but never block a state transition.
type Service interface {
	PublishNotification(ctx context.Context, notification Notification) error
	CancelNotification(ctx context.Context, notificationID int32, label string, bundle domain.BundleOption) error
}
