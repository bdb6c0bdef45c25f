package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

var testNow = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *ReminderStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewReminderStore(db, fixedClock{t: testNow})
	if err != nil {
		t.Fatalf("NewReminderStore failed: %v", err)
	}
	return store
}

func newTestAlarm(t *testing.T, id int32) *domain.Reminder {
	t.Helper()
	r, err := domain.NewAlarm(9, 0, []uint8{2, 4}, domain.Options{
		NotificationID:      100 + id,
		Title:               "alarm",
		Content:             "alarm body",
		TimeIntervalSeconds: 300,
		SnoozeTimes:         2,
		Clock:               fixedClock{t: testNow},
	})
	if err != nil {
		t.Fatalf("NewAlarm failed: %v", err)
	}
	r.SetID(id)
	return r
}

func TestReminderStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bundle := domain.BundleOption{BundleName: "com.example.clock", UID: 20010, UserID: 100}

	reminder := newTestAlarm(t, 1)
	if err := store.UpdateOrInsert(ctx, reminder.ToRecord(), bundle); err != nil {
		t.Fatalf("UpdateOrInsert failed: %v", err)
	}

	stored, err := store.GetAllValidReminders(ctx)
	if err != nil {
		t.Fatalf("GetAllValidReminders failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d stored reminders, want 1", len(stored))
	}
	got := stored[0]
	if got.Bundle != bundle {
		t.Errorf("bundle = %+v, want %+v", got.Bundle, bundle)
	}
	if got.Reminder.ID() != 1 || got.Reminder.Kind() != domain.TypeAlarm {
		t.Errorf("identity = id %d kind %v, want id 1 alarm", got.Reminder.ID(), got.Reminder.Kind())
	}
	if got.Reminder.TriggerTimeMilli() != reminder.TriggerTimeMilli() {
		t.Errorf("trigger = %d, want %d", got.Reminder.TriggerTimeMilli(), reminder.TriggerTimeMilli())
	}
	if got.Reminder.TimeIntervalSeconds() != 300 || got.Reminder.SnoozeTimes() != 2 {
		t.Errorf("interval/snooze = %d/%d, want 300/2",
			got.Reminder.TimeIntervalSeconds(), got.Reminder.SnoozeTimes())
	}
}

func TestReminderStoreUpdateExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bundle := domain.BundleOption{BundleName: "com.example.clock", UID: 20010, UserID: 100}

	reminder := newTestAlarm(t, 1)
	if err := store.UpdateOrInsert(ctx, reminder.ToRecord(), bundle); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	reminder.OnShow(false, false, true) // advances trigger and state
	if err := store.UpdateOrInsert(ctx, reminder.ToRecord(), bundle); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, err := store.GetAllValidReminders(ctx)
	if err != nil {
		t.Fatalf("GetAllValidReminders failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d rows after update, want 1", len(stored))
	}
	if got := stored[0].Reminder.State(); got != reminder.State() {
		t.Errorf("state = %v, want %v", got, reminder.State())
	}
}

func TestReminderStoreSkipsCountdown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	timer, err := domain.NewTimer(60, domain.Options{Clock: fixedClock{t: testNow}})
	if err != nil {
		t.Fatalf("NewTimer failed: %v", err)
	}
	timer.SetID(5)
	if err := store.UpdateOrInsert(ctx, timer.ToRecord(), domain.BundleOption{BundleName: "b"}); err != nil {
		t.Fatalf("UpdateOrInsert(timer) failed: %v", err)
	}

	stored, err := store.GetAllValidReminders(ctx)
	if err != nil {
		t.Fatalf("GetAllValidReminders failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("countdown reminder was persisted: %d rows", len(stored))
	}
}

func TestReminderStoreInitRecovery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bundle := domain.BundleOption{BundleName: "com.example.clock", UID: 20010, UserID: 100}

	fresh := newTestAlarm(t, 1)
	fresh.OnStart()
	if err := store.UpdateOrInsert(ctx, fresh.ToRecord(), bundle); err != nil {
		t.Fatalf("insert fresh failed: %v", err)
	}

	expired, err := domain.NewAlarm(9, 0, nil, domain.Options{Clock: fixedClock{t: testNow}})
	if err != nil {
		t.Fatalf("NewAlarm failed: %v", err)
	}
	expired.SetID(2)
	expired.OnShow(false, false, true) // one-shot: expires
	if !expired.IsExpired() {
		t.Fatal("one-shot alarm should be expired after show")
	}
	if err := store.UpdateOrInsert(ctx, expired.ToRecord(), bundle); err != nil {
		t.Fatalf("insert expired failed: %v", err)
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	stored, err := store.GetAllValidReminders(ctx)
	if err != nil {
		t.Fatalf("GetAllValidReminders failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d rows after recovery, want 1", len(stored))
	}
	if got := stored[0].Reminder.State(); got != domain.StateInactive {
		t.Errorf("recovered state = %v, want inactive", got)
	}
}

func TestReminderStoreGetMaxID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	maxID, err := store.GetMaxID(ctx)
	if err != nil {
		t.Fatalf("GetMaxID on empty store failed: %v", err)
	}
	if maxID != 0 {
		t.Errorf("GetMaxID() on empty store = %d, want 0", maxID)
	}

	bundle := domain.BundleOption{BundleName: "b", UID: 1, UserID: 1}
	for _, id := range []int32{3, 17, 9} {
		if err := store.UpdateOrInsert(ctx, newTestAlarm(t, id).ToRecord(), bundle); err != nil {
			t.Fatalf("insert %d failed: %v", id, err)
		}
	}
	maxID, err = store.GetMaxID(ctx)
	if err != nil {
		t.Fatalf("GetMaxID failed: %v", err)
	}
	if maxID != 17 {
		t.Errorf("GetMaxID() = %d, want 17", maxID)
	}
}

func TestReminderStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bundleA := domain.BundleOption{BundleName: "com.example.a", UID: 1, UserID: 100}
	bundleB := domain.BundleOption{BundleName: "com.example.b", UID: 2, UserID: 100}

	for id, bundle := range map[int32]domain.BundleOption{1: bundleA, 2: bundleA, 3: bundleB} {
		if err := store.UpdateOrInsert(ctx, newTestAlarm(t, id).ToRecord(), bundle); err != nil {
			t.Fatalf("insert %d failed: %v", id, err)
		}
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.DeleteByBundle(ctx, "com.example.a", 100); err != nil {
		t.Fatalf("DeleteByBundle failed: %v", err)
	}

	stored, err := store.GetAllValidReminders(ctx)
	if err != nil {
		t.Fatalf("GetAllValidReminders failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Reminder.ID() != 3 {
		t.Fatalf("remaining rows = %d, want only reminder 3", len(stored))
	}
}

func TestReminderStoreGetBundleOption(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bundle := domain.BundleOption{BundleName: "com.example.clock", UID: 20010, UserID: 100}

	if err := store.UpdateOrInsert(ctx, newTestAlarm(t, 5).ToRecord(), bundle); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.GetBundleOption(ctx, 5)
	if err != nil {
		t.Fatalf("GetBundleOption failed: %v", err)
	}
	if got != bundle {
		t.Errorf("GetBundleOption() = %+v, want %+v", got, bundle)
	}

	if _, err := store.GetBundleOption(ctx, 99); !errors.Is(err, domain.ErrReminderNotFound) {
		t.Errorf("GetBundleOption(99): err = %v, want ErrReminderNotFound", err)
	}
}
