package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
	"github.com/KasumiMercury/primind-reminder-agent/internal/service/agent"
)

// Result codes carried in every response envelope.
const (
	CodeOK                  = "OK"
	CodeServiceNotConnected = "SERVICE_NOT_CONNECTED"
	CodeInvalidParam        = "INVALID_PARAM"
	CodeNoMemory            = "NO_MEMORY"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Bundle identity headers. The platform gateway authenticates the caller
// and forwards its identity; the agent trusts these values.
const (
	headerBundleName = "X-Bundle-Name"
	headerUID        = "X-Uid"
	headerUserID     = "X-User-Id"
)

const (
	reminderTypeTimer    = "timer"
	reminderTypeCalendar = "calendar"
	reminderTypeAlarm    = "alarm"
)

type PublishReminderRequest struct {
	ReminderType   string `json:"reminder_type" binding:"required"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	SnoozeContent  string `json:"snooze_content"`
	ExpiredContent string `json:"expired_content"`
	NotificationID int32  `json:"notification_id"`

	TimeIntervalSeconds uint64 `json:"time_interval_seconds"`
	SnoozeTimes         uint8  `json:"snooze_times"`
	RingDurationSeconds uint64 `json:"ring_duration_seconds"`

	// Alarm fields.
	Hour       uint8   `json:"hour"`
	Minute     uint8   `json:"minute"`
	DaysOfWeek []uint8 `json:"days_of_week"`

	// Calendar fields.
	DateTime          string  `json:"date_time"`
	RepeatMonths      []uint8 `json:"repeat_months"`
	RepeatDaysOfMonth []uint8 `json:"repeat_days_of_month"`

	// Countdown field.
	CountDownSeconds uint64 `json:"count_down_seconds"`
}

type PublishReminderResponse struct {
	Code       string `json:"code"`
	ReminderID int32  `json:"reminder_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

type ReminderSummary struct {
	ReminderID     int32  `json:"reminder_id"`
	ReminderType   string `json:"reminder_type"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	TriggerTime    uint64 `json:"trigger_time"`
	State          string `json:"state"`
	SnoozeTimes    uint8  `json:"snooze_times"`
	NotificationID int32  `json:"notification_id"`
}

type ListRemindersResponse struct {
	Code      string            `json:"code"`
	Reminders []ReminderSummary `json:"reminders"`
}

type statusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ReminderHandler exposes the reminder agent over HTTP.
type ReminderHandler struct {
	agent *agent.Agent
	clock domain.Clock
}

func NewReminderHandler(reminderAgent *agent.Agent, clock domain.Clock) *ReminderHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ReminderHandler{
		agent: reminderAgent,
		clock: clock,
	}
}

// RegisterRoutes wires the reminder endpoints under the given group.
func (h *ReminderHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/reminders", h.HandlePublish)
	group.GET("/reminders", h.HandleGetValid)
	group.DELETE("/reminders", h.HandleCancelAll)
	group.DELETE("/reminders/:id", h.HandleCancel)
}

func (h *ReminderHandler) HandlePublish(c *gin.Context) {
	ctx := c.Request.Context()

	bundle, ok := bundleFromHeaders(c)
	if !ok {
		return
	}

	var req PublishReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "publish request unmarshal failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusBadRequest, statusResponse{Code: CodeInvalidParam, Message: err.Error()})
		return
	}

	reminder, err := h.buildReminder(req)
	if err != nil {
		slog.WarnContext(ctx, "publish request rejected",
			slog.String("reminderType", req.ReminderType),
			slog.String("error", err.Error()),
		)
		respondError(c, err)
		return
	}

	id, err := h.agent.PublishReminder(ctx, reminder, bundle)
	if err != nil {
		slog.WarnContext(ctx, "publish reminder failed",
			slog.String("bundle", bundle.BundleName),
			slog.String("error", err.Error()),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PublishReminderResponse{
		Code:       CodeOK,
		ReminderID: id,
	})
}

func (h *ReminderHandler) HandleCancel(c *gin.Context) {
	ctx := c.Request.Context()

	bundle, ok := bundleFromHeaders(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, domain.ErrInvalidParam)
		return
	}

	if err := h.agent.CancelReminder(ctx, int32(id), bundle); err != nil {
		slog.WarnContext(ctx, "cancel reminder failed",
			slog.Int64("reminderId", id),
			slog.String("bundle", bundle.BundleName),
			slog.String("error", err.Error()),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{Code: CodeOK})
}

func (h *ReminderHandler) HandleCancelAll(c *gin.Context) {
	ctx := c.Request.Context()

	bundle, ok := bundleFromHeaders(c)
	if !ok {
		return
	}

	h.agent.CancelAllReminders(ctx, bundle.BundleName, bundle.UserID)
	c.JSON(http.StatusOK, statusResponse{Code: CodeOK})
}

func (h *ReminderHandler) HandleGetValid(c *gin.Context) {
	ctx := c.Request.Context()

	bundle, ok := bundleFromHeaders(c)
	if !ok {
		return
	}

	reminders := h.agent.GetValidReminders(ctx, bundle)
	summaries := make([]ReminderSummary, 0, len(reminders))
	for _, rec := range reminders {
		summaries = append(summaries, ReminderSummary{
			ReminderID:     rec.ID,
			ReminderType:   rec.Kind.String(),
			Title:          rec.Title,
			Content:        rec.Content,
			TriggerTime:    rec.TriggerTimeMilli,
			State:          rec.State.String(),
			SnoozeTimes:    rec.SnoozeTimes,
			NotificationID: rec.NotificationID,
		})
	}

	c.JSON(http.StatusOK, ListRemindersResponse{
		Code:      CodeOK,
		Reminders: summaries,
	})
}

func (h *ReminderHandler) buildReminder(req PublishReminderRequest) (*domain.Reminder, error) {
	opts := domain.Options{
		NotificationID:      req.NotificationID,
		Title:               req.Title,
		Content:             req.Content,
		SnoozeContent:       req.SnoozeContent,
		ExpiredContent:      req.ExpiredContent,
		TimeIntervalSeconds: req.TimeIntervalSeconds,
		SnoozeTimes:         req.SnoozeTimes,
		RingDurationSeconds: req.RingDurationSeconds,
		Clock:               h.clock,
	}
	switch req.ReminderType {
	case reminderTypeTimer:
		return domain.NewTimer(req.CountDownSeconds, opts)
	case reminderTypeAlarm:
		return domain.NewAlarm(req.Hour, req.Minute, req.DaysOfWeek, opts)
	case reminderTypeCalendar:
		dateTime, err := time.ParseInLocation(time.DateTime, req.DateTime, h.clock.Now().Location())
		if err != nil {
			return nil, domain.ErrInvalidParam
		}
		return domain.NewCalendar(dateTime, req.RepeatMonths, req.RepeatDaysOfMonth, opts)
	default:
		return nil, domain.ErrInvalidParam
	}
}

func bundleFromHeaders(c *gin.Context) (domain.BundleOption, bool) {
	bundleName := c.GetHeader(headerBundleName)
	if bundleName == "" {
		respondError(c, domain.ErrInvalidParam)
		return domain.BundleOption{}, false
	}
	uid, err := parseInt32Header(c.GetHeader(headerUID))
	if err != nil {
		respondError(c, domain.ErrInvalidParam)
		return domain.BundleOption{}, false
	}
	userID, err := parseInt32Header(c.GetHeader(headerUserID))
	if err != nil {
		respondError(c, domain.ErrInvalidParam)
		return domain.BundleOption{}, false
	}
	return domain.BundleOption{
		BundleName: bundleName,
		UID:        uid,
		UserID:     userID,
	}, true
}

func parseInt32Header(value string) (int32, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(parsed), nil
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := CodeInternalError
	switch {
	case errors.Is(err, domain.ErrInvalidParam):
		status, code = http.StatusBadRequest, CodeInvalidParam
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, code = http.StatusTooManyRequests, CodeQuotaExceeded
	case errors.Is(err, domain.ErrReminderNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrNoMemory):
		status, code = http.StatusInternalServerError, CodeNoMemory
	case errors.Is(err, domain.ErrServiceNotConnected):
		status, code = http.StatusServiceUnavailable, CodeServiceNotConnected
	}
	c.JSON(status, statusResponse{
		Code:    code,
		Message: err.Error(),
	})
}
