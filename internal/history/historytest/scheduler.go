// Package historytest provides a virtual-time Scheduler for tests.
package historytest

import (
	"time"

	"github.com/kobzarvs/qnote/internal/history"
)

// Scheduler fires timers only when Advance moves its clock past them.
type Scheduler struct {
	now    time.Duration
	seq    int
	timers []*timer
}

type timer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) history.Timer {
	s.seq++
	t := &timer{at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// epoch is the virtual time of New.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Now is the virtual clock.
func (s *Scheduler) Now() time.Time { return epoch.Add(s.now) }

// Pending counts armed timers that have neither fired nor been stopped.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every timer that comes due
// in deadline order. Timers armed by a callback run too if they fall inside
// the window.
func (s *Scheduler) Advance(d time.Duration) {
	end := s.now + d
	for {
		t := s.next(end)
		if t == nil {
			break
		}
		s.now = t.at
		t.fired = true
		t.f()
	}
	s.now = end
	s.prune()
}

func (s *Scheduler) next(end time.Duration) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.stopped || t.fired || t.at > end {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) prune() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = live
}
