package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
	"github.com/KasumiMercury/primind-reminder-agent/internal/events"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/notify"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/remindrecorder"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/systimer"
	"github.com/KasumiMercury/primind-reminder-agent/internal/observability/metrics"
)

const (
	// DefaultMaxPerBundle and DefaultMaxTotal are the publish quotas.
	DefaultMaxPerBundle = 30
	DefaultMaxTotal     = 2000

	// Reminders due within this window of the fired one are shown in the
	// same batch instead of arming a timer that fires a moment later.
	sameTimeDistinguishMilli uint64 = 1000
)

// Agent owns every reminder in the process: the collection, the
// id→bundle map, the id counter, and the at-most-one armed trigger timer
// plus the at-most-one armed alert-timeout timer.
//
// mu serializes all collection and trigger-timer state. alertMu guards
// the alert-timeout bookkeeping because the timeout fires independently
// of the trigger timer. showMu guards the set of reminder ids whose
// notifications are currently posted. Lock order is mu, then showMu or
// alertMu; neither inner lock is held while taking mu.
type Agent struct {
	mu               sync.Mutex
	reminders        []*domain.Reminder
	bundles          map[int32]domain.BundleOption
	idCounter        int32
	timerID          uint64
	activeReminderID int32

	alertMu            sync.Mutex
	alertTimerID       uint64
	alertingReminderID int32

	showMu sync.Mutex
	shown  map[int32]struct{}

	store    domain.ReminderStore
	timers   systimer.Service
	notifier notify.Service
	recorder domain.ReminderHistoryRecorder
	metrics  *metrics.ReminderMetrics
	clock    domain.Clock

	maxPerBundle int
	maxTotal     int
}

type Options struct {
	Store    domain.ReminderStore
	Timers   systimer.Service
	Notifier notify.Service
	Recorder domain.ReminderHistoryRecorder
	Metrics  *metrics.ReminderMetrics
	Clock    domain.Clock

	MaxPerBundle int
	MaxTotal     int
}

func New(opts Options) (*Agent, error) {
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewNoopService()
	}
	if opts.Recorder == nil {
		opts.Recorder = remindrecorder.NewNoopRecorder()
	}
	if opts.Metrics == nil {
		m, err := metrics.NewReminderMetrics()
		if err != nil {
			return nil, fmt.Errorf("create reminder metrics: %w", err)
		}
		opts.Metrics = m
	}
	if opts.MaxPerBundle <= 0 {
		opts.MaxPerBundle = DefaultMaxPerBundle
	}
	if opts.MaxTotal <= 0 {
		opts.MaxTotal = DefaultMaxTotal
	}
	return &Agent{
		bundles:            make(map[int32]domain.BundleOption),
		activeReminderID:   domain.InvalidReminderID,
		alertingReminderID: domain.InvalidReminderID,
		shown:              make(map[int32]struct{}),
		store:              opts.Store,
		timers:             opts.Timers,
		notifier:           opts.Notifier,
		recorder:           opts.Recorder,
		metrics:            opts.Metrics,
		clock:              opts.Clock,
		maxPerBundle:       opts.MaxPerBundle,
		maxTotal:           opts.MaxTotal,
	}, nil
}

// Init reloads the collection from the store and seeds the id counter
// with the persisted high-water mark, then re-evaluates scheduling. The
// store's own recovery (dropping expired rows, resetting states) runs
// before this, at startup.
func (a *Agent) Init(ctx context.Context) error {
	stored, err := a.store.GetAllValidReminders(ctx)
	if err != nil {
		return fmt.Errorf("load persisted reminders: %w", err)
	}
	maxID, err := a.store.GetMaxID(ctx)
	if err != nil {
		return fmt.Errorf("recover reminder id counter: %w", err)
	}

	a.mu.Lock()
	a.reminders = a.reminders[:0]
	a.bundles = make(map[int32]domain.BundleOption, len(stored))
	for _, s := range stored {
		a.reminders = append(a.reminders, s.Reminder)
		a.bundles[s.Reminder.ID()] = s.Bundle
	}
	if maxID > a.idCounter {
		a.idCounter = maxID
	}
	a.mu.Unlock()

	slog.InfoContext(ctx, "reminder agent initialized",
		slog.Int("reminders", len(stored)),
		slog.Int("idCounter", int(maxID)),
	)
	a.StartRecentReminder(ctx)
	return nil
}

// PublishReminder admits a reminder under the per-bundle and system
// quotas, assigns its id, persists it best-effort, and re-evaluates
// which reminder holds the armed timer.
func (a *Agent) PublishReminder(ctx context.Context, reminder *domain.Reminder, bundle domain.BundleOption) (int32, error) {
	start := time.Now()

	a.mu.Lock()
	if a.countForBundleLocked(bundle) >= a.maxPerBundle {
		a.mu.Unlock()
		return domain.InvalidReminderID, fmt.Errorf(
			"bundle %s already holds %d reminders: %w", bundle.BundleName, a.maxPerBundle, domain.ErrQuotaExceeded)
	}
	if a.validCountLocked() >= a.maxTotal {
		a.mu.Unlock()
		return domain.InvalidReminderID, fmt.Errorf(
			"system already holds %d reminders: %w", a.maxTotal, domain.ErrQuotaExceeded)
	}
	id := a.nextIDLocked()
	reminder.SetID(id)
	a.reminders = append(a.reminders, reminder)
	a.bundles[id] = bundle
	rec := reminder.ToRecord()
	a.mu.Unlock()

	if err := a.store.UpdateOrInsert(ctx, rec, bundle); err != nil {
		slog.WarnContext(ctx, "persist reminder failed, it will not survive a restart",
			slog.Int("reminderId", int(id)),
			slog.String("error", err.Error()),
		)
	}
	kind := rec.Kind.String()
	a.metrics.RecordPublished(ctx, kind)
	a.metrics.RecordPublishDuration(ctx, kind, time.Since(start))
	a.recordHistory(ctx, rec, bundle, domain.HistoryActionPublished)

	slog.InfoContext(ctx, "reminder published",
		slog.Int("reminderId", int(id)),
		slog.String("kind", kind),
		slog.String("bundle", bundle.BundleName),
		slog.Uint64("triggerTime", rec.TriggerTimeMilli),
	)
	a.StartRecentReminder(ctx)
	return id, nil
}

// CancelReminder removes a reminder owned by the calling bundle,
// stopping its timer first when it is the armed one.
func (a *Agent) CancelReminder(ctx context.Context, reminderID int32, bundle domain.BundleOption) error {
	a.mu.Lock()
	idx := a.indexOfLocked(reminderID)
	if idx < 0 {
		a.mu.Unlock()
		return fmt.Errorf("cancel reminder %d: %w", reminderID, domain.ErrReminderNotFound)
	}
	owner := a.bundles[reminderID]
	if owner.BundleName != bundle.BundleName || owner.UserID != bundle.UserID {
		a.mu.Unlock()
		return fmt.Errorf("cancel reminder %d: not owned by %s: %w",
			reminderID, bundle.BundleName, domain.ErrReminderNotFound)
	}
	if a.activeReminderID == reminderID {
		a.stopTriggerTimerLocked(ctx)
	}
	rec := a.reminders[idx].ToRecord()
	a.reminders = append(a.reminders[:idx], a.reminders[idx+1:]...)
	delete(a.bundles, reminderID)
	a.mu.Unlock()

	a.stopAlertingIf(ctx, reminderID)
	a.removeShown(reminderID)
	if err := a.store.Delete(ctx, reminderID); err != nil {
		slog.WarnContext(ctx, "delete persisted reminder failed",
			slog.Int("reminderId", int(reminderID)),
			slog.String("error", err.Error()),
		)
	}
	if err := a.notifier.CancelNotification(ctx, rec.NotificationID, notificationLabel(reminderID), owner); err != nil {
		slog.WarnContext(ctx, "cancel notification failed",
			slog.Int("reminderId", int(reminderID)),
			slog.String("error", err.Error()),
		)
	}
	a.metrics.RecordCanceled(ctx, rec.Kind.String(), 1)
	a.recordHistory(ctx, rec, owner, domain.HistoryActionCanceled)
	a.StartRecentReminder(ctx)
	return nil
}

// CancelAllReminders drops every reminder of a bundle, used both by the
// caller-facing API and by package-removed handling.
func (a *Agent) CancelAllReminders(ctx context.Context, bundleName string, userID int32) {
	a.mu.Lock()
	var removed []domain.Record
	kept := a.reminders[:0]
	for _, r := range a.reminders {
		owner := a.bundles[r.ID()]
		if owner.BundleName == bundleName && owner.UserID == userID {
			if a.activeReminderID == r.ID() {
				a.stopTriggerTimerLocked(ctx)
			}
			delete(a.bundles, r.ID())
			removed = append(removed, r.ToRecord())
			continue
		}
		kept = append(kept, r)
	}
	a.reminders = kept
	a.mu.Unlock()

	for _, rec := range removed {
		a.stopAlertingIf(ctx, rec.ID)
		a.removeShown(rec.ID)
		owner := domain.BundleOption{BundleName: bundleName, UserID: userID}
		if err := a.notifier.CancelNotification(ctx, rec.NotificationID, notificationLabel(rec.ID), owner); err != nil {
			slog.WarnContext(ctx, "cancel notification failed",
				slog.Int("reminderId", int(rec.ID)),
				slog.String("error", err.Error()),
			)
		}
		a.metrics.RecordCanceled(ctx, rec.Kind.String(), 1)
	}
	if len(removed) > 0 {
		if err := a.store.DeleteByBundle(ctx, bundleName, userID); err != nil {
			slog.WarnContext(ctx, "delete persisted bundle reminders failed",
				slog.String("bundle", bundleName),
				slog.String("error", err.Error()),
			)
		}
		slog.InfoContext(ctx, "canceled all reminders of bundle",
			slog.String("bundle", bundleName),
			slog.Int("count", len(removed)),
		)
	}
	a.StartRecentReminder(ctx)
}

// GetValidReminders returns snapshots of the non-expired reminders of a
// bundle. Copies, not the live reminders: callers read them without mu.
func (a *Agent) GetValidReminders(_ context.Context, bundle domain.BundleOption) []domain.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.Record
	for _, r := range a.reminders {
		if r.IsExpired() {
			continue
		}
		owner := a.bundles[r.ID()]
		if owner.BundleName == bundle.BundleName && owner.UserID == bundle.UserID {
			out = append(out, r.ToRecord())
		}
	}
	return out
}

// StartRecentReminder arms the OS timer for the soonest non-expired
// reminder. Re-arming is skipped when the winner is already armed, and
// expired removable reminders are pruned as a side effect of the scan.
func (a *Agent) StartRecentReminder(ctx context.Context) {
	a.mu.Lock()
	recent := a.recentReminderLocked(ctx)
	if recent == nil {
		if a.timerID != 0 {
			a.stopTriggerTimerLocked(ctx)
		}
		a.mu.Unlock()
		return
	}
	if recent.ID() == a.activeReminderID && a.timerID != 0 {
		a.mu.Unlock()
		return
	}
	if a.timerID != 0 {
		a.stopTriggerTimerLocked(ctx)
	}

	timerID, err := a.timers.CreateTimer(ctx, systimer.TimerInfo{
		ReminderID: recent.ID(),
		Action:     events.ActionAlarmAlert,
	})
	if err != nil {
		a.mu.Unlock()
		slog.ErrorContext(ctx, "create trigger timer failed",
			slog.Int("reminderId", int(recent.ID())),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := a.timers.StartTimer(ctx, timerID, recent.TriggerTimeMilli()); err != nil {
		// Release the handle so a failed arm does not leak it.
		if stopErr := a.timers.StopTimer(ctx, timerID); stopErr != nil {
			slog.WarnContext(ctx, "release unarmed timer failed",
				slog.String("error", stopErr.Error()))
		}
		a.mu.Unlock()
		slog.ErrorContext(ctx, "start trigger timer failed",
			slog.Int("reminderId", int(recent.ID())),
			slog.String("error", err.Error()),
		)
		return
	}
	recent.OnStart()
	a.timerID = timerID
	a.activeReminderID = recent.ID()
	bundle := a.bundles[recent.ID()]
	rec := recent.ToRecord()
	a.mu.Unlock()

	slog.DebugContext(ctx, "armed trigger timer",
		slog.Int("reminderId", int(rec.ID)),
		slog.Uint64("triggerTime", rec.TriggerTimeMilli),
	)
	a.persist(ctx, rec, bundle)
}

// ShowActiveReminder handles a trigger-timer fire: the armed reminder
// and everything due within the same-time window are shown in one batch,
// then the schedule is re-evaluated. A fire for a reminder that is gone
// is a benign no-op.
func (a *Agent) ShowActiveReminder(ctx context.Context) {
	a.mu.Lock()
	activeID := a.activeReminderID
	a.timerID = 0
	a.activeReminderID = domain.InvalidReminderID

	active := a.findByIDLocked(activeID)
	if active == nil {
		a.mu.Unlock()
		slog.InfoContext(ctx, "trigger fired for a reminder no longer present",
			slog.Int("reminderId", int(activeID)),
		)
		a.StartRecentReminder(ctx)
		return
	}
	base := active.TriggerTimeMilli()
	var due []*domain.Reminder
	for _, r := range a.reminders {
		if r.IsExpired() {
			continue
		}
		if r.TriggerTimeMilli() <= base+sameTimeDistinguishMilli {
			due = append(due, r)
		}
	}
	for _, r := range due {
		a.showReminderLocked(ctx, r, r == active, false)
	}
	a.mu.Unlock()

	a.StartRecentReminder(ctx)
}

// SnoozeReminder routes the notification's snooze action back into the
// reminder by id.
func (a *Agent) SnoozeReminder(ctx context.Context, reminderID int32) {
	a.mu.Lock()
	reminder := a.findByIDLocked(reminderID)
	if reminder == nil {
		a.mu.Unlock()
		slog.InfoContext(ctx, "snooze for a reminder no longer present",
			slog.Int("reminderId", int(reminderID)),
		)
		return
	}
	if a.activeReminderID == reminderID {
		a.stopTriggerTimerLocked(ctx)
	}
	ok := reminder.OnSnooze()
	bundle := a.bundles[reminderID]
	rec := reminder.ToRecord()
	display := reminder.DisplayContent()
	a.mu.Unlock()

	a.stopAlertingIf(ctx, reminderID)
	if !ok {
		return
	}
	a.publishUpdatedNotification(ctx, rec, display, bundle)
	a.metrics.RecordSnoozed(ctx, rec.Kind.String())
	a.recordHistory(ctx, rec, bundle, domain.HistoryActionSnoozed)
	a.persist(ctx, rec, bundle)
	a.StartRecentReminder(ctx)
}

// CloseReminder dismisses the reminder's notification and rolls its
// schedule forward, expiring it when nothing remains.
func (a *Agent) CloseReminder(ctx context.Context, reminderID int32) {
	a.mu.Lock()
	reminder := a.findByIDLocked(reminderID)
	if reminder == nil {
		a.mu.Unlock()
		slog.InfoContext(ctx, "close for a reminder no longer present",
			slog.Int("reminderId", int(reminderID)),
		)
		return
	}
	if a.activeReminderID == reminderID {
		a.stopTriggerTimerLocked(ctx)
	}
	reminder.OnClose(true)
	bundle := a.bundles[reminderID]
	rec := reminder.ToRecord()
	a.mu.Unlock()

	a.stopAlertingIf(ctx, reminderID)
	a.removeShown(reminderID)
	if err := a.notifier.CancelNotification(ctx, rec.NotificationID, notificationLabel(reminderID), bundle); err != nil {
		slog.WarnContext(ctx, "cancel notification failed",
			slog.Int("reminderId", int(reminderID)),
			slog.String("error", err.Error()),
		)
	}
	a.metrics.RecordClosed(ctx, rec.Kind.String())
	a.recordHistory(ctx, rec, bundle, domain.HistoryActionClosed)
	if rec.Expired {
		a.metrics.RecordExpired(ctx, rec.Kind.String())
		a.recordHistory(ctx, rec, bundle, domain.HistoryActionExpired)
	}
	a.persist(ctx, rec, bundle)
	a.StartRecentReminder(ctx)
}

// TerminateAlerting stops the sound of an alerting reminder, either from
// the ring-duration timeout or a user dismiss of the alert.
func (a *Agent) TerminateAlerting(ctx context.Context, reminderID int32) {
	a.mu.Lock()
	reminder := a.findByIDLocked(reminderID)
	if reminder == nil {
		a.mu.Unlock()
		slog.InfoContext(ctx, "terminate for a reminder no longer present",
			slog.Int("reminderId", int(reminderID)),
		)
		a.stopAlertingIf(ctx, reminderID)
		return
	}
	ok := reminder.OnTerminate()
	bundle := a.bundles[reminderID]
	rec := reminder.ToRecord()
	display := reminder.DisplayContent()
	a.mu.Unlock()

	a.stopAlertingIf(ctx, reminderID)
	if !ok {
		return
	}
	a.publishUpdatedNotification(ctx, rec, display, bundle)
	a.recordHistory(ctx, rec, bundle, domain.HistoryActionTerminated)
	a.persist(ctx, rec, bundle)
}

// RefreshRemindersDueToSysTimeChange re-evaluates every reminder after a
// clock or zone change, immediately showing the ones whose old trigger
// the clock jumped past, then re-arms from scratch.
func (a *Agent) RefreshRemindersDueToSysTimeChange(ctx context.Context, changeType events.SysTimeChangeType) {
	slog.InfoContext(ctx, "refresh reminders due to system time change",
		slog.Int("changeType", int(changeType)),
	)
	a.mu.Lock()
	if a.timerID != 0 {
		a.stopTriggerTimerLocked(ctx)
	}
	var immediate []*domain.Reminder
	for _, r := range a.reminders {
		if r.IsExpired() {
			continue
		}
		var show bool
		if changeType == events.DateTimeChange {
			show = r.OnDateTimeChange()
		} else {
			show = r.OnTimeZoneChange()
		}
		if show {
			immediate = append(immediate, r)
			continue
		}
		a.persist(ctx, r.ToRecord(), a.bundles[r.ID()])
	}
	for _, r := range immediate {
		a.showReminderLocked(ctx, r, false, true)
	}
	a.mu.Unlock()

	a.StartRecentReminder(ctx)
}

// OnProcessDied closes the posted notifications of a died client so they
// do not linger without an owner to act on them.
func (a *Agent) OnProcessDied(ctx context.Context, bundleName string, uid int32) {
	shownIDs := a.shownIDs()

	a.mu.Lock()
	var closed []domain.Record
	for _, id := range shownIDs {
		r := a.findByIDLocked(id)
		if r == nil {
			continue
		}
		owner := a.bundles[id]
		if owner.BundleName != bundleName || owner.UID != uid {
			continue
		}
		r.OnClose(false)
		closed = append(closed, r.ToRecord())
	}
	a.mu.Unlock()

	for _, rec := range closed {
		a.stopAlertingIf(ctx, rec.ID)
		a.removeShown(rec.ID)
		a.persist(ctx, rec, domain.BundleOption{BundleName: bundleName, UID: uid})
	}
	if len(closed) > 0 {
		slog.InfoContext(ctx, "closed reminders of died process",
			slog.String("bundle", bundleName),
			slog.Int("count", len(closed)),
		)
	}
}

// Dump renders the agent's scheduling state for inspection.
func (a *Agent) Dump(_ context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "reminders=%d active=%d timer=%d\n",
		len(a.reminders), a.activeReminderID, a.timerID)
	for _, r := range a.reminders {
		sb.WriteString(r.Dump())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// showReminderLocked runs one reminder's show transition and posts its
// notification. Callers hold mu.
func (a *Agent) showReminderLocked(ctx context.Context, r *domain.Reminder, playSound, isSysTimeChanged bool) {
	allow := r.CanShow()
	if !allow {
		slog.InfoContext(ctx, "reminder shown recently, notification suppressed",
			slog.Int("reminderId", int(r.ID())),
		)
	}
	sound := playSound && allow && a.shouldAlert(r)
	r.OnShow(sound, isSysTimeChanged, allow)
	bundle := a.bundles[r.ID()]

	if allow {
		a.coverSameNotificationIDLocked(ctx, r, bundle)
		err := a.notifier.PublishNotification(ctx, notify.Notification{
			NotificationID: r.NotificationID(),
			Label:          notificationLabel(r.ID()),
			Title:          r.Title(),
			Text:           r.DisplayContent(),
			BundleName:     bundle.BundleName,
			UID:            bundle.UID,
			PlaySound:      sound,
		})
		if err != nil {
			slog.ErrorContext(ctx, "publish notification failed",
				slog.Int("reminderId", int(r.ID())),
				slog.String("error", err.Error()),
			)
			r.OnShowFail()
		} else {
			a.markShown(r.ID())
			if sound {
				a.startAlerting(ctx, r)
			}
			a.metrics.RecordShown(ctx, r.Kind().String(), sound)
			a.recordHistory(ctx, r.ToRecord(), bundle, domain.HistoryActionShown)
		}
	}
	if r.IsExpired() {
		a.metrics.RecordExpired(ctx, r.Kind().String())
		a.recordHistory(ctx, r.ToRecord(), bundle, domain.HistoryActionExpired)
	}
	a.persist(ctx, r.ToRecord(), bundle)
}

// coverSameNotificationIDLocked clears other shown reminders of the same
// bundle that share the notification id; the platform replaces their
// notification with this one's.
func (a *Agent) coverSameNotificationIDLocked(ctx context.Context, r *domain.Reminder, bundle domain.BundleOption) {
	for _, other := range a.reminders {
		if other.ID() == r.ID() || !other.IsShowing() {
			continue
		}
		if other.NotificationID() != r.NotificationID() {
			continue
		}
		owner := a.bundles[other.ID()]
		if owner.BundleName != bundle.BundleName || owner.UID != bundle.UID {
			continue
		}
		slog.InfoContext(ctx, "notification covered by newer reminder",
			slog.Int("coveredReminderId", int(other.ID())),
			slog.Int("reminderId", int(r.ID())),
		)
		other.OnSameNotificationIdCovered()
		a.removeShown(other.ID())
		a.stopAlertingIf(ctx, other.ID())
		a.persist(ctx, other.ToRecord(), owner)
	}
}

// shouldAlert is the do-not-disturb seam; no policy service is wired, so
// sound is always allowed.
func (a *Agent) shouldAlert(_ *domain.Reminder) bool {
	return true
}

func (a *Agent) startAlerting(ctx context.Context, r *domain.Reminder) {
	a.alertMu.Lock()
	defer a.alertMu.Unlock()
	if a.alertTimerID != 0 {
		if err := a.timers.StopTimer(ctx, a.alertTimerID); err != nil {
			slog.WarnContext(ctx, "stop previous alert timer failed",
				slog.String("error", err.Error()))
		}
		a.alertTimerID = 0
		a.alertingReminderID = domain.InvalidReminderID
	}
	timerID, err := a.timers.CreateTimer(ctx, systimer.TimerInfo{
		ReminderID: r.ID(),
		Action:     events.ActionAlertTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "create alert timer failed",
			slog.Int("reminderId", int(r.ID())),
			slog.String("error", err.Error()),
		)
		return
	}
	fireAt := uint64(a.clock.Now().UnixMilli()) + r.RingDurationMilli()
	if err := a.timers.StartTimer(ctx, timerID, fireAt); err != nil {
		if stopErr := a.timers.StopTimer(ctx, timerID); stopErr != nil {
			slog.WarnContext(ctx, "release unarmed timer failed",
				slog.String("error", stopErr.Error()))
		}
		slog.ErrorContext(ctx, "start alert timer failed",
			slog.Int("reminderId", int(r.ID())),
			slog.String("error", err.Error()),
		)
		return
	}
	a.alertTimerID = timerID
	a.alertingReminderID = r.ID()
}

func (a *Agent) stopAlertingIf(ctx context.Context, reminderID int32) {
	a.alertMu.Lock()
	defer a.alertMu.Unlock()
	if a.alertingReminderID != reminderID {
		return
	}
	if a.alertTimerID != 0 {
		if err := a.timers.StopTimer(ctx, a.alertTimerID); err != nil {
			slog.WarnContext(ctx, "stop alert timer failed",
				slog.String("error", err.Error()))
		}
		a.alertTimerID = 0
	}
	a.alertingReminderID = domain.InvalidReminderID
}

// recentReminderLocked scans for the smallest trigger time among the
// valid reminders, pruning expired removable entries along the way.
// Ties keep the earlier entry, so repeated calls pick the same winner.
func (a *Agent) recentReminderLocked(ctx context.Context) *domain.Reminder {
	var recent *domain.Reminder
	kept := a.reminders[:0]
	for _, r := range a.reminders {
		if r.IsExpired() && r.CanRemove() {
			id := r.ID()
			delete(a.bundles, id)
			a.removeShown(id)
			if err := a.store.Delete(ctx, id); err != nil {
				slog.WarnContext(ctx, "delete expired reminder failed",
					slog.Int("reminderId", int(id)),
					slog.String("error", err.Error()),
				)
			}
			a.metrics.RecordRemoved(ctx, 1)
			continue
		}
		kept = append(kept, r)
		if r.IsExpired() {
			continue
		}
		if recent == nil || r.TriggerTimeMilli() < recent.TriggerTimeMilli() {
			recent = r
		}
	}
	a.reminders = kept
	return recent
}

func (a *Agent) stopTriggerTimerLocked(ctx context.Context) {
	if a.timerID != 0 {
		if err := a.timers.StopTimer(ctx, a.timerID); err != nil {
			slog.WarnContext(ctx, "stop trigger timer failed",
				slog.String("error", err.Error()))
		}
		a.timerID = 0
	}
	if prev := a.findByIDLocked(a.activeReminderID); prev != nil && prev.State()&domain.StateActive != 0 {
		prev.OnStop()
	}
	a.activeReminderID = domain.InvalidReminderID
}

func (a *Agent) countForBundleLocked(bundle domain.BundleOption) int {
	count := 0
	for _, r := range a.reminders {
		if r.IsExpired() {
			continue
		}
		owner := a.bundles[r.ID()]
		if owner.BundleName == bundle.BundleName && owner.UserID == bundle.UserID {
			count++
		}
	}
	return count
}

func (a *Agent) validCountLocked() int {
	count := 0
	for _, r := range a.reminders {
		if !r.IsExpired() {
			count++
		}
	}
	return count
}

// nextIDLocked pre-increments the counter; wraparound resets to 0 first
// so ids stay positive.
func (a *Agent) nextIDLocked() int32 {
	if a.idCounter < 0 {
		a.idCounter = 0
	}
	a.idCounter++
	return a.idCounter
}

func (a *Agent) indexOfLocked(reminderID int32) int {
	for i, r := range a.reminders {
		if r.ID() == reminderID {
			return i
		}
	}
	return -1
}

func (a *Agent) findByIDLocked(reminderID int32) *domain.Reminder {
	if reminderID == domain.InvalidReminderID {
		return nil
	}
	if idx := a.indexOfLocked(reminderID); idx >= 0 {
		return a.reminders[idx]
	}
	return nil
}

func (a *Agent) markShown(reminderID int32) {
	a.showMu.Lock()
	defer a.showMu.Unlock()
	a.shown[reminderID] = struct{}{}
}

func (a *Agent) removeShown(reminderID int32) {
	a.showMu.Lock()
	defer a.showMu.Unlock()
	delete(a.shown, reminderID)
}

func (a *Agent) shownIDs() []int32 {
	a.showMu.Lock()
	defer a.showMu.Unlock()
	ids := make([]int32, 0, len(a.shown))
	for id := range a.shown {
		ids = append(ids, id)
	}
	return ids
}

// publishUpdatedNotification, persist, and recordHistory take a Record
// snapshot (plus the display text, which is not part of the persistence
// image) captured while mu was held, so they never touch the live
// reminder after the lock is released.
func (a *Agent) publishUpdatedNotification(ctx context.Context, rec domain.Record, display string, bundle domain.BundleOption) {
	err := a.notifier.PublishNotification(ctx, notify.Notification{
		NotificationID: rec.NotificationID,
		Label:          notificationLabel(rec.ID),
		Title:          rec.Title,
		Text:           display,
		BundleName:     bundle.BundleName,
		UID:            bundle.UID,
	})
	if err != nil {
		slog.WarnContext(ctx, "update notification failed",
			slog.Int("reminderId", int(rec.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (a *Agent) persist(ctx context.Context, rec domain.Record, bundle domain.BundleOption) {
	if err := a.store.UpdateOrInsert(ctx, rec, bundle); err != nil {
		slog.WarnContext(ctx, "persist reminder failed",
			slog.Int("reminderId", int(rec.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (a *Agent) recordHistory(ctx context.Context, rec domain.Record, bundle domain.BundleOption, action string) {
	err := a.recorder.RecordLifecycle(ctx, domain.ReminderHistoryRecord{
		ReminderID:  rec.ID,
		BundleName:  bundle.BundleName,
		Kind:        rec.Kind.String(),
		Action:      action,
		TriggerTime: time.UnixMilli(int64(rec.TriggerTimeMilli)),
		OccurredAt:  a.clock.Now(),
	})
	if err != nil {
		slog.DebugContext(ctx, "record reminder history failed",
			slog.Int("reminderId", int(rec.ID)),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func notificationLabel(reminderID int32) string {
	return "reminder_" + strconv.Itoa(int(reminderID))
}
