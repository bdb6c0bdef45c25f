package events

import (
	"context"
	"log/slog"
)

// SysTimeChangeType distinguishes the two clock-related refreshes.
type SysTimeChangeType int

const (
	TimeZoneChange SysTimeChangeType = 0
	DateTimeChange SysTimeChangeType = 1
)

// Agent is the subset of the reminder agent the event manager drives.
type Agent interface {
	ShowActiveReminder(ctx context.Context)
	SnoozeReminder(ctx context.Context, reminderID int32)
	CloseReminder(ctx context.Context, reminderID int32)
	TerminateAlerting(ctx context.Context, reminderID int32)
	RefreshRemindersDueToSysTimeChange(ctx context.Context, changeType SysTimeChangeType)
	CancelAllReminders(ctx context.Context, bundleName string, userID int32)
	OnProcessDied(ctx context.Context, bundleName string, uid int32)
	Init(ctx context.Context) error
}

// EventManager subscribes to the bus and routes each event to the agent
// operation it addresses.
type EventManager struct {
	bus   Bus
	agent Agent
}

func NewEventManager(bus Bus, agent Agent) *EventManager {
	return &EventManager{bus: bus, agent: agent}
}

// Start consumes events until ctx is canceled or the bus closes.
func (m *EventManager) Start(ctx context.Context) error {
	ch, err := m.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				m.dispatch(ctx, event)
			}
		}
	}()
	return nil
}

func (m *EventManager) dispatch(ctx context.Context, event Event) {
	slog.DebugContext(ctx, "dispatch event",
		slog.String("action", event.Action),
		slog.String("eventId", event.ID),
		slog.Int("reminderId", int(event.ReminderID)),
	)
	switch event.Action {
	case ActionAlarmAlert:
		m.agent.ShowActiveReminder(ctx)
	case ActionSnoozeAlert:
		m.agent.SnoozeReminder(ctx, event.ReminderID)
	case ActionCloseAlert:
		m.agent.CloseReminder(ctx, event.ReminderID)
	case ActionAlertTimeout, ActionRemoveNotification:
		m.agent.TerminateAlerting(ctx, event.ReminderID)
	case ActionTimeChanged:
		m.agent.RefreshRemindersDueToSysTimeChange(ctx, DateTimeChange)
	case ActionTimeZoneChanged:
		m.agent.RefreshRemindersDueToSysTimeChange(ctx, TimeZoneChange)
	case ActionPackageRemoved, ActionPackageDataCleared, ActionPackageRestarted:
		m.agent.CancelAllReminders(ctx, event.BundleName, event.UserID)
	case ActionProcessDied:
		m.agent.OnProcessDied(ctx, event.BundleName, event.UID)
	case ActionBootCompleted:
		if err := m.agent.Init(ctx); err != nil {
			slog.ErrorContext(ctx, "agent init on boot completed failed",
				slog.String("error", err.Error()))
		}
	default:
		slog.WarnContext(ctx, "unknown event action", slog.String("action", event.Action))
	}
}
