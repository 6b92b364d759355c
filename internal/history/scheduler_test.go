package history_test

import (
	"testing"
	"time"

	"github.com/kobzarvs/qnote/internal/history"
)

func TestPostSchedulerDroppedReleaseStillResumesRecording(t *testing.T) {
	buf := &fakeBuffer{}
	sched := history.NewPostScheduler(func(func()) {})
	m := history.New(buf, sched, history.Options{})
	defer m.Stop()
	buf.set("a")
	m.RecordCheckpoint()
	buf.set("ab")
	m.RecordCheckpoint()

	m.Undo()
	time.Sleep(3 * history.DefaultSuppressDelay)

	if m.State() != history.Idle {
		t.Fatalf("state = %v, want idle", m.State())
	}
	buf.set("ax")
	m.RecordCheckpoint()
	if got := m.UndoDepth(); got != 1 {
		t.Fatalf("UndoDepth = %d, want 1", got)
	}
}

func TestPostSchedulerPostsExpiredCallbacks(t *testing.T) {
	posted := make(chan func(), 1)
	sched := history.NewPostScheduler(func(f func()) { posted <- f })
	ran := false
	sched.AfterFunc(time.Millisecond, func() { ran = true })
	select {
	case f := <-posted:
		f()
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for posted callback")
	}
	if !ran {
		t.Fatalf("callback did not run")
	}
}
