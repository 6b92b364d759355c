package editor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kobzarvs/qnote/internal/logger"
	"github.com/kobzarvs/qnote/internal/session"
)

// NewFile clears the note. The previous text stays one undo step away.
func (e *Editor) NewFile() {
	e.rememberFileState()
	e.hist.ReplaceExternally(func() {
		e.buf.SetText("")
	})
	e.filename = ""
	e.savedText = ""
	e.scroll = 0
	e.scrollX = 0
	e.focus()
	e.setStatus("new note")
}

// OpenFile replaces the note with the contents of path. The previous text
// stays one undo step away.
func (e *Editor) OpenFile(path string) error {
	return e.openFile(path, e.hist.ReplaceExternally)
}

// LoadFile opens path as the first note of a session. History starts at
// the loaded text, so undo never returns to the empty startup buffer.
func (e *Editor) LoadFile(path string) error {
	return e.openFile(path, func(apply func()) {
		e.hist.Reset()
		apply()
		e.hist.RecordCheckpoint()
	})
}

func (e *Editor) openFile(path string, replace func(apply func())) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	e.rememberFileState()
	text := string(data)
	st, known := e.fileState(path)
	replace(func() {
		e.buf.SetText(text)
		if known {
			e.buf.Select(st.SelectionStart, st.SelectionEnd)
		}
	})
	e.filename = path
	e.savedText = text
	e.scroll = 0
	e.scrollX = 0
	if known {
		e.scroll = st.ScrollY
	}
	if e.opts.Session != nil {
		e.opts.Session.SetActiveFile(absPath(path))
	}
	e.focus()
	logger.Info("file opened", "path", path, "bytes", len(data))
	return nil
}

// RestoreSession reopens the note that was active when the editor last
// quit. It reports whether a note was opened.
func (e *Editor) RestoreSession() bool {
	if e.opts.Session == nil {
		return false
	}
	path := e.opts.Session.GetActiveFile()
	if path == "" {
		return false
	}
	if err := e.LoadFile(path); err != nil {
		logger.Warn("restore session", "path", path, "error", err)
		return false
	}
	return true
}

// Save writes the note to path, or to the current file when path is empty.
func (e *Editor) Save(path string) error {
	if path == "" {
		if e.filename == "" {
			return ErrNoFileName
		}
		path = e.filename
	}
	text := e.buf.Text()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return err
	}
	e.filename = path
	e.savedText = text
	e.rememberFileState()
	logger.Info("file saved", "path", path, "bytes", len(text))
	return nil
}

func (e *Editor) saveWithStatus(path string) bool {
	if err := e.Save(path); err != nil {
		e.setStatus("Error saving file: " + err.Error())
		return false
	}
	e.setStatus(fmt.Sprintf("written %s", filepath.Base(e.filename)))
	return true
}

func (e *Editor) fileState(path string) (session.FileState, bool) {
	if e.opts.Session == nil {
		return session.FileState{}, false
	}
	return e.opts.Session.GetFileState(absPath(path))
}

// rememberFileState stores the caret and scroll of the open note.
func (e *Editor) rememberFileState() {
	if e.opts.Session == nil || e.filename == "" {
		return
	}
	start, end := e.buf.Selection()
	e.opts.Session.SetFileState(absPath(e.filename), session.FileState{
		SelectionStart: start,
		SelectionEnd:   end,
		ScrollY:        e.scroll,
	})
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// SetFilename names the note without touching its text.
func (e *Editor) SetFilename(path string) {
	e.filename = path
}
