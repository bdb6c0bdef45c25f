package domain

import (
	"fmt"
	"math"
	"time"
)

// timerSpec is a one-shot countdown. It never repeats and is never
// persisted; startedAt carries the monotonic reading used to rebase the
// trigger when the wall clock moves.
type timerSpec struct {
	countDownSeconds uint64
	startedAt        time.Time
}

// NewTimer builds a countdown reminder firing once, countDownSeconds
// from now.
func NewTimer(countDownSeconds uint64, opts Options) (*Reminder, error) {
	if countDownSeconds == 0 || countDownSeconds > math.MaxUint64/millisPerSecond {
		return nil, fmt.Errorf("countdown %d out of range: %w", countDownSeconds, ErrInvalidParam)
	}
	r := newReminder(TypeTimer, opts)
	now := r.clock.Now()
	r.timer = &timerSpec{countDownSeconds: countDownSeconds, startedAt: now}
	r.triggerTimeMilli = timeToMilli(now) + countDownSeconds*millisPerSecond
	return r, nil
}

func (r *Reminder) CountDownSeconds() uint64 { return r.timer.countDownSeconds }

// updateTimerTrigger recomputes the trigger from the remaining countdown
// after the wall clock moved; the elapsed share already served is kept.
func (r *Reminder) updateTimerTrigger() {
	if r.expired {
		return
	}
	now := r.clock.Now()
	remaining := time.Duration(r.timer.countDownSeconds)*time.Second - now.Sub(r.timer.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	r.triggerTimeMilli = timeToMilli(now.Add(remaining))
}
