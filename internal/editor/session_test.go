package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kobzarvs/qnote/internal/config"
	"github.com/kobzarvs/qnote/internal/history/historytest"
	"github.com/kobzarvs/qnote/internal/session"
)

func TestSessionRestoresSelectionPerFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("0123456789"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	sm := session.Open(filepath.Join(dir, "session.json"), time.Hour)
	e := New(config.Default(), Options{
		Scheduler:  historytest.New(),
		Session:    sm,
		SaveConfig: func(config.Config) error { return nil },
	})

	if err := e.OpenFile(a); err != nil {
		t.Fatalf("OpenFile a: %v", err)
	}
	e.Buffer().Select(2, 5)
	if err := e.OpenFile(b); err != nil {
		t.Fatalf("OpenFile b: %v", err)
	}
	if start, end := e.Buffer().Selection(); start != 0 || end != 0 {
		t.Fatalf("b selection = %d..%d, want 0..0", start, end)
	}
	if err := e.OpenFile(a); err != nil {
		t.Fatalf("reopen a: %v", err)
	}
	if start, end := e.Buffer().Selection(); start != 2 || end != 5 {
		t.Fatalf("a selection = %d..%d, want 2..5", start, end)
	}

	e.Shutdown()
	if err := sm.Stop(); err != nil {
		t.Fatalf("session Stop: %v", err)
	}

	sm2 := session.Open(filepath.Join(dir, "session.json"), time.Hour)
	defer sm2.Stop()
	e2 := New(config.Default(), Options{
		Scheduler:  historytest.New(),
		Session:    sm2,
		SaveConfig: func(config.Config) error { return nil },
	})
	if !e2.RestoreSession() {
		t.Fatalf("RestoreSession opened nothing")
	}
	abs, _ := filepath.Abs(a)
	if got, _ := filepath.Abs(e2.Filename()); got != abs {
		t.Fatalf("restored %q, want %q", e2.Filename(), a)
	}
}
