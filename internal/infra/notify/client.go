package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

// Client talks to the notification display service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) PublishNotification(ctx context.Context, notification Notification) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse notification service URL: %w", err)
	}
	u.Path = "/api/v1/notifications"

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send notification",
			slog.Int("notificationId", int(notification.NotificationID)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("publish notification: unexpected status code %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) CancelNotification(ctx context.Context, notificationID int32, label string, bundle domain.BundleOption) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse notification service URL: %w", err)
	}
	u.Path = "/api/v1/notifications/" + strconv.Itoa(int(notificationID))
	q := u.Query()
	q.Set("label", label)
	q.Set("bundle_name", bundle.BundleName)
	q.Set("uid", strconv.Itoa(int(bundle.UID)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create cancel request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel notification %d: %w", notificationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("cancel notification %d: unexpected status code %d", notificationID, resp.StatusCode)
	}
	return nil
}
