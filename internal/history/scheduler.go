package history

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler arms single-shot timers. Callbacks must run on the goroutine
// that drives the Manager. Now is the clock the timers are measured on.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// PostScheduler arms wall-clock timers and hands the expired callbacks to
// post, which queues them on the event loop.
type PostScheduler struct {
	post func(func())
}

func NewPostScheduler(post func(func())) *PostScheduler {
	return &PostScheduler{post: post}
}

func (s *PostScheduler) Now() time.Time { return time.Now() }

func (s *PostScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { s.post(f) })
}
