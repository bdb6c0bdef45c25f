package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/systimer"
	"github.com/KasumiMercury/primind-reminder-agent/internal/service/agent"
)

type stubStore struct{}

func (stubStore) UpdateOrInsert(context.Context, domain.Record, domain.BundleOption) error {
	return nil
}
func (stubStore) Delete(context.Context, int32) error                 { return nil }
func (stubStore) DeleteByBundle(context.Context, string, int32) error { return nil }
func (stubStore) GetAllValidReminders(context.Context) ([]domain.StoredReminder, error) {
	return nil, nil
}
func (stubStore) GetMaxID(context.Context) (int32, error) { return 0, nil }

type stubTimers struct {
	nextID uint64
}

func (s *stubTimers) CreateTimer(context.Context, systimer.TimerInfo) (uint64, error) {
	s.nextID++
	return s.nextID, nil
}
func (s *stubTimers) StartTimer(context.Context, uint64, uint64) error { return nil }
func (s *stubTimers) StopTimer(context.Context, uint64) error          { return nil }

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func newTestRouter(t *testing.T, agentOpts agent.Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := fixedClock{t: time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)}
	agentOpts.Store = stubStore{}
	agentOpts.Timers = &stubTimers{}
	agentOpts.Clock = clock
	reminderAgent, err := agent.New(agentOpts)
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}

	router := gin.New()
	NewReminderHandler(reminderAgent, clock).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bundle-Name", "com.example.alpha")
	req.Header.Set("X-Uid", "20010")
	req.Header.Set("X-User-Id", "100")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestPublishAlarmReminder(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	rec := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"alarm","title":"wake up","hour":9,"minute":30,"days_of_week":[2,4]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["code"] != CodeOK {
		t.Errorf("code = %v, want OK", body["code"])
	}
	if body["reminder_id"] != float64(1) {
		t.Errorf("reminder_id = %v, want 1", body["reminder_id"])
	}
}

func TestPublishCalendarReminder(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	rec := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"calendar","title":"dentist","date_time":"2026-10-05 14:30:00"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPublishRejectsUnknownType(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	rec := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"sundial"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeResponse(t, rec); body["code"] != CodeInvalidParam {
		t.Errorf("code = %v, want INVALID_PARAM", body["code"])
	}
}

func TestPublishRejectsInvalidAlarmTime(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	rec := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"alarm","hour":24,"minute":0}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPublishRequiresBundleHeader(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders",
		strings.NewReader(`{"reminder_type":"timer","count_down_seconds":60}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPublishQuotaExceeded(t *testing.T) {
	router := newTestRouter(t, agent.Options{MaxPerBundle: 1})

	first := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"timer","count_down_seconds":60}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first publish status = %d", first.Code)
	}
	second := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"timer","count_down_seconds":60}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second publish status = %d, want 429", second.Code)
	}
	if body := decodeResponse(t, second); body["code"] != CodeQuotaExceeded {
		t.Errorf("code = %v, want QUOTA_EXCEEDED", body["code"])
	}
}

func TestCancelReminderNotFound(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	rec := doRequest(router, http.MethodDelete, "/api/v1/reminders/99", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeResponse(t, rec); body["code"] != CodeNotFound {
		t.Errorf("code = %v, want NOT_FOUND", body["code"])
	}
}

func TestCancelReminderRoundTrip(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	published := doRequest(router, http.MethodPost, "/api/v1/reminders",
		`{"reminder_type":"alarm","hour":9,"minute":0}`)
	if published.Code != http.StatusOK {
		t.Fatalf("publish status = %d", published.Code)
	}
	id := int32(decodeResponse(t, published)["reminder_id"].(float64))

	rec := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/v1/reminders/%d", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetValidReminders(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	for i := 0; i < 2; i++ {
		rec := doRequest(router, http.MethodPost, "/api/v1/reminders",
			`{"reminder_type":"alarm","title":"standup","hour":10,"minute":0,"days_of_week":[1,2,3,4,5]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("publish %d status = %d", i, rec.Code)
		}
	}

	rec := doRequest(router, http.MethodGet, "/api/v1/reminders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var resp ListRemindersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Reminders) != 2 {
		t.Fatalf("reminders = %d, want 2", len(resp.Reminders))
	}
	if resp.Reminders[0].ReminderType != "alarm" {
		t.Errorf("reminder_type = %q, want alarm", resp.Reminders[0].ReminderType)
	}
}

func TestCancelAllReminders(t *testing.T) {
	router := newTestRouter(t, agent.Options{})

	for i := 0; i < 3; i++ {
		doRequest(router, http.MethodPost, "/api/v1/reminders",
			`{"reminder_type":"alarm","hour":10,"minute":0}`)
	}

	rec := doRequest(router, http.MethodDelete, "/api/v1/reminders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel all status = %d", rec.Code)
	}

	list := doRequest(router, http.MethodGet, "/api/v1/reminders", "")
	var resp ListRemindersResponse
	if err := json.Unmarshal(list.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Reminders) != 0 {
		t.Fatalf("reminders after cancel all = %d, want 0", len(resp.Reminders))
	}
}
