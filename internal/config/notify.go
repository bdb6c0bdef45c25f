package config

import "os"

const notificationServiceURLEnv = "NOTIFICATION_SERVICE_URL"

// NotifyConfig points at the notification delivery service. An empty URL
// selects the logging no-op implementation.
type NotifyConfig struct {
	BaseURL string
}

func LoadNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		BaseURL: os.Getenv(notificationServiceURLEnv),
	}
}
