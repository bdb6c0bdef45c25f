package systimer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
	"github.com/KasumiMercury/primind-reminder-agent/internal/events"
)

// TimerInfo is the wake payload: when the timer fires, Action is
// published to the bus carrying ReminderID.
type TimerInfo struct {
	ReminderID int32
	Action     string
}

// Service arms at most one OS timer per handle. 0 is never a valid
// handle; callers use it as "not armed".
type Service interface {
	CreateTimer(ctx context.Context, info TimerInfo) (uint64, error)
	StartTimer(ctx context.Context, timerID uint64, triggerAtMilli uint64) error
	StopTimer(ctx context.Context, timerID uint64) error
}

type armedTimer struct {
	info  TimerInfo
	timer *time.Timer
}

// SystemTimerService schedules wall-clock timers in process and turns
// each fire into a bus event, so the agent consumes timer fires the same
// way it consumes every other system event.
type SystemTimerService struct {
	bus   events.Bus
	clock domain.Clock

	mu     sync.Mutex
	nextID uint64
	timers map[uint64]*armedTimer
}

func NewSystemTimerService(bus events.Bus, clock domain.Clock) *SystemTimerService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &SystemTimerService{
		bus:    bus,
		clock:  clock,
		timers: make(map[uint64]*armedTimer),
	}
}

func (s *SystemTimerService) CreateTimer(_ context.Context, info TimerInfo) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.timers[id] = &armedTimer{info: info}
	return id, nil
}

func (s *SystemTimerService) StartTimer(ctx context.Context, timerID uint64, triggerAtMilli uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	armed, ok := s.timers[timerID]
	if !ok {
		return fmt.Errorf("start timer %d: unknown timer id", timerID)
	}
	if armed.timer != nil {
		armed.timer.Stop()
	}

	delay := time.Duration(0)
	nowMilli := s.clock.Now().UnixMilli()
	if int64(triggerAtMilli) > nowMilli {
		delay = time.Duration(int64(triggerAtMilli)-nowMilli) * time.Millisecond
	}
	slog.DebugContext(ctx, "arm timer",
		slog.Uint64("timerId", timerID),
		slog.Int("reminderId", int(armed.info.ReminderID)),
		slog.Duration("delay", delay),
	)
	armed.timer = time.AfterFunc(delay, func() {
		s.fire(timerID)
	})
	return nil
}

// StopTimer disarms and releases the handle. Stopping an unknown handle
// is a no-op, matching a fire racing a stop.
func (s *SystemTimerService) StopTimer(_ context.Context, timerID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	armed, ok := s.timers[timerID]
	if !ok {
		return nil
	}
	if armed.timer != nil {
		armed.timer.Stop()
	}
	delete(s.timers, timerID)
	return nil
}

func (s *SystemTimerService) fire(timerID uint64) {
	s.mu.Lock()
	armed, ok := s.timers[timerID]
	if ok {
		delete(s.timers, timerID)
	}
	s.mu.Unlock()
	if !ok {
		return // stopped concurrently
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.bus.Publish(ctx, events.Event{
		Action:     armed.info.Action,
		ReminderID: armed.info.ReminderID,
	})
	if err != nil {
		slog.Error("publish timer fire event failed",
			slog.Uint64("timerId", timerID),
			slog.Int("reminderId", int(armed.info.ReminderID)),
			slog.String("error", err.Error()),
		)
	}
}
