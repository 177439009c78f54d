package battle

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler defers timed transitions. Implementations must not run f synchronously
// inside AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ClockScheduler schedules on the wall clock.
type ClockScheduler struct{}

// AfterFunc implements Scheduler.
func (ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler is a virtual clock. Callbacks only run from Advance or RunAll,
// on the caller's goroutine, in deadline order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	s    *ManualScheduler
	at   time.Duration
	seq  uint64
	f    func()
	done bool
}

// NewManualScheduler creates a virtual clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop implements Timer.
func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// next pops the earliest timer due at or before limit.
func (s *ManualScheduler) next(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range s.timers {
		if t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	if best != nil {
		best.done = true
		s.remove(best)
	}
	return best
}

// Advance moves the clock forward by d, firing every callback that becomes due,
// including callbacks scheduled by earlier callbacks.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.next(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.at
		s.mu.Unlock()
		t.f()
	}
}

// RunAll fires pending callbacks until none remain or limit callbacks have run.
// It returns the number of callbacks fired.
func (s *ManualScheduler) RunAll(limit int) int {
	fired := 0
	for fired < limit {
		s.mu.Lock()
		if len(s.timers) == 0 {
			s.mu.Unlock()
			break
		}
		t := s.next(time.Duration(1<<63 - 1))
		s.now = t.at
		s.mu.Unlock()
		t.f()
		fired++
	}
	return fired
}

// Pending returns the number of scheduled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
