package app

import (
	"errors"
	"os"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qnote/internal/config"
	"github.com/kobzarvs/qnote/internal/editor"
	"github.com/kobzarvs/qnote/internal/highlight"
	"github.com/kobzarvs/qnote/internal/logger"
	"github.com/kobzarvs/qnote/internal/session"
)

// App is the top-level runtime for qnote.
type App struct {
	args []string
}

func New(args []string) *App {
	return &App{args: args}
}

func (a *App) Run() (err error) {
	runtime.LockOSThread()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	s.EnableMouse()
	s.EnablePaste()
	defer s.Fini()

	stopped := make(chan struct{})
	ed, cleanup := a.setup(s, cfg, stopped)
	defer func() {
		err = multierr.Append(err, cleanup())
	}()

	err = loop(s, ed)
	close(stopped)
	return err
}

const maxPostBackoff = 50 * time.Millisecond

// post queues f on the event loop. Timers, AI results and config reloads
// all reach the editor this way. It is only called from goroutines other
// than the loop, so it waits out a full queue instead of dropping f.
func post(s tcell.Screen, stopped <-chan struct{}) func(func()) {
	return func(f func()) {
		deliver(s.PostEvent, tcell.NewEventInterrupt(f), stopped)
	}
}

// deliver retries ev until the queue accepts it or the loop has stopped.
func deliver(postEvent func(tcell.Event) error, ev tcell.Event, stopped <-chan struct{}) {
	wait := time.Millisecond
	for {
		err := postEvent(ev)
		if err == nil {
			return
		}
		select {
		case <-stopped:
			logger.Warn("event loop stopped, dropping callback", "error", err)
			return
		case <-time.After(wait):
		}
		if wait < maxPostBackoff {
			wait *= 2
		}
	}
}

func (a *App) setup(s tcell.Screen, cfg config.Config, stopped <-chan struct{}) (*editor.Editor, func() error) {
	opts := editor.Options{Post: post(s, stopped)}

	hl, err := highlight.New()
	if err != nil {
		logger.Warn("markdown highlighting disabled", "error", err)
	} else {
		opts.Highlighter = hl
	}
	sm, err := session.NewManager()
	if err != nil {
		logger.Warn("session disabled", "error", err)
	} else {
		opts.Session = sm
	}

	ed := editor.New(cfg, opts)

	watcher, err := config.Watch(func() {
		opts.Post(func() { reloadConfig(ed) })
	}, func(err error) {
		logger.Warn("config watch", "error", err)
	})
	if err != nil {
		logger.Warn("config reload disabled", "error", err)
	}

	a.openInitial(ed)

	cleanup := func() error {
		var err error
		ed.Shutdown()
		if watcher != nil {
			err = multierr.Append(err, watcher.Close())
		}
		if sm != nil {
			err = multierr.Append(err, sm.Stop())
		}
		if hl != nil {
			hl.Close()
		}
		return err
	}
	return ed, cleanup
}

// openInitial opens the file named on the command line, or the note that
// was active last time. A named file that does not exist yet is created on
// the first save.
func (a *App) openInitial(ed *editor.Editor) {
	if len(a.args) == 0 {
		ed.RestoreSession()
		return
	}
	path := a.args[0]
	err := ed.LoadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		ed.SetFilename(path)
		ed.SetStatusMessage("new file")
	default:
		ed.SetStatusMessage("Error opening file: " + err.Error())
	}
}

func reloadConfig(ed *editor.Editor) {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config reload", "error", err)
		ed.SetStatusMessage("config: " + err.Error())
		return
	}
	ed.ApplyConfig(cfg)
	logger.Info("config reloaded")
}

func loop(s tcell.Screen, ed *editor.Editor) error {
	ed.Render(s)
	for {
		ev := s.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				return nil
			}
		case *tcell.EventMouse:
			ed.HandleMouse(ev)
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
			if f, ok := ev.Data().(func()); ok {
				f()
			}
		}
		ed.Render(s)
	}
}
