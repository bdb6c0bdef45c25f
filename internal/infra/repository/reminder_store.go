package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
)

const reminderSchema = `
CREATE TABLE IF NOT EXISTS reminders (
    reminder_id           INTEGER PRIMARY KEY,
    bundle_name           TEXT    NOT NULL,
    uid                   INTEGER NOT NULL,
    user_id               INTEGER NOT NULL,
    notification_id       INTEGER NOT NULL,
    reminder_type         INTEGER NOT NULL,
    title                 TEXT    NOT NULL DEFAULT '',
    content               TEXT    NOT NULL DEFAULT '',
    snooze_content        TEXT    NOT NULL DEFAULT '',
    expired_content       TEXT    NOT NULL DEFAULT '',
    reminder_time         INTEGER NOT NULL DEFAULT 0,
    trigger_time          INTEGER NOT NULL DEFAULT 0,
    time_interval         INTEGER NOT NULL DEFAULT 0,
    ring_duration         INTEGER NOT NULL DEFAULT 0,
    snooze_times          INTEGER NOT NULL DEFAULT 0,
    dynamic_snooze_times  INTEGER NOT NULL DEFAULT 0,
    is_expired            INTEGER NOT NULL DEFAULT 0,
    state                 INTEGER NOT NULL DEFAULT 0,
    alarm_hour            INTEGER NOT NULL DEFAULT 0,
    alarm_minute          INTEGER NOT NULL DEFAULT 0,
    repeat_days_of_week   INTEGER NOT NULL DEFAULT 0,
    calendar_hour         INTEGER NOT NULL DEFAULT 0,
    calendar_minute       INTEGER NOT NULL DEFAULT 0,
    repeat_months         INTEGER NOT NULL DEFAULT 0,
    repeat_days           INTEGER NOT NULL DEFAULT 0,
    first_designate_year  INTEGER NOT NULL DEFAULT 0,
    first_designate_month INTEGER NOT NULL DEFAULT 0,
    first_designate_day   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_reminders_trigger_time
    ON reminders(trigger_time);

CREATE INDEX IF NOT EXISTS idx_reminders_bundle
    ON reminders(bundle_name, user_id);
`

const reminderColumns = `reminder_id, bundle_name, uid, user_id, notification_id, reminder_type,
    title, content, snooze_content, expired_content,
    reminder_time, trigger_time, time_interval, ring_duration,
    snooze_times, dynamic_snooze_times, is_expired, state,
    alarm_hour, alarm_minute, repeat_days_of_week,
    calendar_hour, calendar_minute, repeat_months, repeat_days,
    first_designate_year, first_designate_month, first_designate_day`

// Open opens (creating if needed) the reminder database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open reminder database: %w", err)
	}
	return db, nil
}

type ReminderStore struct {
	db    *sql.DB
	clock domain.Clock
}

func NewReminderStore(db *sql.DB, clock domain.Clock) (*ReminderStore, error) {
	if _, err := db.Exec(reminderSchema); err != nil {
		return nil, fmt.Errorf("apply reminder schema: %w", err)
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ReminderStore{db: db, clock: clock}, nil
}

// Init applies the restart recovery policy: expired rows are dropped and
// the runtime state of every remaining row is reset, because OS timers
// and shown notifications do not survive the process.
func (s *ReminderStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE is_expired != 0`); err != nil {
		return fmt.Errorf("delete expired reminders: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE reminders SET state = 0`); err != nil {
		return fmt.Errorf("reset reminder states: %w", err)
	}
	return nil
}

func (s *ReminderStore) UpdateOrInsert(ctx context.Context, rec domain.Record, bundle domain.BundleOption) error {
	if rec.Kind == domain.TypeTimer {
		slog.DebugContext(ctx, "countdown reminder is not persisted",
			slog.Int("reminderId", int(rec.ID)))
		return nil
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM reminders WHERE reminder_id = ?`, rec.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.insert(ctx, rec, bundle)
	case err != nil:
		return fmt.Errorf("check reminder %d existence: %w", rec.ID, err)
	default:
		return s.update(ctx, rec, bundle)
	}
}

func (s *ReminderStore) insert(ctx context.Context, rec domain.Record, bundle domain.BundleOption) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO reminders (`+reminderColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, bundle.BundleName, bundle.UID, bundle.UserID, rec.NotificationID, rec.Kind,
		rec.Title, rec.Content, rec.SnoozeContent, rec.ExpiredContent,
		int64(rec.ReminderTimeMilli), int64(rec.TriggerTimeMilli),
		int64(rec.TimeIntervalMilli), int64(rec.RingDurationMilli),
		rec.SnoozeTimes, rec.SnoozeTimesDynamic, rec.Expired, rec.State,
		rec.AlarmHour, rec.AlarmMinute, rec.RepeatDaysOfWeek,
		rec.CalendarHour, rec.CalendarMinute, rec.RepeatMonths, rec.RepeatDaysOfMonth,
		rec.FirstDesignateYear, rec.FirstDesignateMonth, rec.FirstDesignateDay,
	)
	if err != nil {
		return fmt.Errorf("insert reminder %d: %w", rec.ID, err)
	}
	return nil
}

func (s *ReminderStore) update(ctx context.Context, rec domain.Record, bundle domain.BundleOption) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET
        bundle_name = ?, uid = ?, user_id = ?, notification_id = ?, reminder_type = ?,
        title = ?, content = ?, snooze_content = ?, expired_content = ?,
        reminder_time = ?, trigger_time = ?, time_interval = ?, ring_duration = ?,
        snooze_times = ?, dynamic_snooze_times = ?, is_expired = ?, state = ?,
        alarm_hour = ?, alarm_minute = ?, repeat_days_of_week = ?,
        calendar_hour = ?, calendar_minute = ?, repeat_months = ?, repeat_days = ?,
        first_designate_year = ?, first_designate_month = ?, first_designate_day = ?
        WHERE reminder_id = ?`,
		bundle.BundleName, bundle.UID, bundle.UserID, rec.NotificationID, rec.Kind,
		rec.Title, rec.Content, rec.SnoozeContent, rec.ExpiredContent,
		int64(rec.ReminderTimeMilli), int64(rec.TriggerTimeMilli),
		int64(rec.TimeIntervalMilli), int64(rec.RingDurationMilli),
		rec.SnoozeTimes, rec.SnoozeTimesDynamic, rec.Expired, rec.State,
		rec.AlarmHour, rec.AlarmMinute, rec.RepeatDaysOfWeek,
		rec.CalendarHour, rec.CalendarMinute, rec.RepeatMonths, rec.RepeatDaysOfMonth,
		rec.FirstDesignateYear, rec.FirstDesignateMonth, rec.FirstDesignateDay,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update reminder %d: %w", rec.ID, err)
	}
	return nil
}

func (s *ReminderStore) Delete(ctx context.Context, reminderID int32) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE reminder_id = ?`, reminderID); err != nil {
		return fmt.Errorf("delete reminder %d: %w", reminderID, err)
	}
	return nil
}

func (s *ReminderStore) DeleteByBundle(ctx context.Context, bundleName string, userID int32) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE bundle_name = ? AND user_id = ?`, bundleName, userID); err != nil {
		return fmt.Errorf("delete reminders of %s: %w", bundleName, err)
	}
	return nil
}

// GetAllValidReminders returns every non-expired reminder ordered by
// trigger time. Rows that cannot be reconstructed are logged and
// skipped rather than failing recovery wholesale.
func (s *ReminderStore) GetAllValidReminders(ctx context.Context) ([]domain.StoredReminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reminderColumns+`
        FROM reminders WHERE is_expired = 0 ORDER BY trigger_time`)
	if err != nil {
		return nil, fmt.Errorf("query valid reminders: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredReminder
	for rows.Next() {
		rec, bundle, err := scanReminderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		reminder, err := domain.Recover(rec, s.clock)
		if err != nil {
			slog.WarnContext(ctx, "skip unrecoverable reminder row",
				slog.Int("reminderId", int(rec.ID)),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, domain.StoredReminder{Reminder: reminder, Bundle: bundle})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder rows: %w", err)
	}
	return out, nil
}

func scanReminderRow(rows *sql.Rows) (domain.Record, domain.BundleOption, error) {
	var (
		rec          domain.Record
		bundle       domain.BundleOption
		reminderTime int64
		trigger      int64
		interval     int64
		ring         int64
	)
	err := rows.Scan(
		&rec.ID, &bundle.BundleName, &bundle.UID, &bundle.UserID, &rec.NotificationID, &rec.Kind,
		&rec.Title, &rec.Content, &rec.SnoozeContent, &rec.ExpiredContent,
		&reminderTime, &trigger, &interval, &ring,
		&rec.SnoozeTimes, &rec.SnoozeTimesDynamic, &rec.Expired, &rec.State,
		&rec.AlarmHour, &rec.AlarmMinute, &rec.RepeatDaysOfWeek,
		&rec.CalendarHour, &rec.CalendarMinute, &rec.RepeatMonths, &rec.RepeatDaysOfMonth,
		&rec.FirstDesignateYear, &rec.FirstDesignateMonth, &rec.FirstDesignateDay,
	)
	if err != nil {
		return domain.Record{}, domain.BundleOption{}, err
	}
	rec.ReminderTimeMilli = uint64(reminderTime)
	rec.TriggerTimeMilli = uint64(trigger)
	rec.TimeIntervalMilli = uint64(interval)
	rec.RingDurationMilli = uint64(ring)
	return rec, bundle, nil
}

// GetBundleOption returns the owning bundle of a persisted reminder.
func (s *ReminderStore) GetBundleOption(ctx context.Context, reminderID int32) (domain.BundleOption, error) {
	var bundle domain.BundleOption
	err := s.db.QueryRowContext(ctx,
		`SELECT bundle_name, uid, user_id FROM reminders WHERE reminder_id = ?`, reminderID).
		Scan(&bundle.BundleName, &bundle.UID, &bundle.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BundleOption{}, fmt.Errorf("reminder %d: %w", reminderID, domain.ErrReminderNotFound)
	}
	if err != nil {
		return domain.BundleOption{}, fmt.Errorf("query bundle of reminder %d: %w", reminderID, err)
	}
	return bundle, nil
}

// GetMaxID reports the highest persisted reminder id, 0 when the table
// is empty. The manager seeds its id counter with it on startup.
func (s *ReminderStore) GetMaxID(ctx context.Context) (int32, error) {
	var maxID int32
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(reminder_id), 0) FROM reminders`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("query max reminder id: %w", err)
	}
	return maxID, nil
}
