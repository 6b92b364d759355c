package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStopPersistsFileState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := Open(path, time.Hour)
	m.SetFileState("/notes/a.md", FileState{SelectionStart: 3, SelectionEnd: 9, ScrollY: 2})
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	reopened := Open(path, time.Hour)
	defer reopened.Stop()
	if got := reopened.GetActiveFile(); got != "/notes/a.md" {
		t.Fatalf("active file = %q, want %q", got, "/notes/a.md")
	}
	st, ok := reopened.GetFileState("/notes/a.md")
	if !ok {
		t.Fatalf("file state missing after reload")
	}
	if st.SelectionStart != 3 || st.SelectionEnd != 9 || st.ScrollY != 2 {
		t.Fatalf("file state = %+v", st)
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := Open(path, time.Hour)
	defer m.Stop()
	if err := m.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clean Save wrote %s", path)
	}
}

func TestCorruptSessionStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := Open(path, time.Hour)
	defer m.Stop()
	if got := m.GetActiveFile(); got != "" {
		t.Fatalf("active file = %q, want empty", got)
	}
	m.SetActiveFile("/x.md")
	if got := m.GetActiveFile(); got != "/x.md" {
		t.Fatalf("active file = %q", got)
	}
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := Open(path, 10*time.Millisecond)
	defer m.Stop()
	m.SetActiveFile("/y.md")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("autosave did not write %s", path)
}
