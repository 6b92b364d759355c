// Package editor is the note editor model: one buffer, its undo history, the
// keymap and the command line. It draws itself onto a tcell.Screen.
package editor

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qnote/internal/ai"
	"github.com/kobzarvs/qnote/internal/buffer"
	"github.com/kobzarvs/qnote/internal/config"
	"github.com/kobzarvs/qnote/internal/highlight"
	"github.com/kobzarvs/qnote/internal/history"
	"github.com/kobzarvs/qnote/internal/session"
)

type Mode int

const (
	ModeEdit Mode = iota
	ModeCommand
	ModePrompt
)

func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "COMMAND"
	case ModePrompt:
		return "PROMPT"
	default:
		return "EDIT"
	}
}

const (
	actionUndo            = "undo"
	actionRedo            = "redo"
	actionNewFile         = "new_file"
	actionOpenFile        = "open_file"
	actionSave            = "save"
	actionAskAI           = "ask_ai"
	actionRewrite         = "rewrite_selection"
	actionSelectAll       = "select_all"
	actionQuit            = "quit"
	actionEnterCommand    = "enter_command"
	actionDeleteWordLeft  = "delete_word_left"
	actionMoveLeft        = "move_left"
	actionMoveRight       = "move_right"
	actionMoveUp          = "move_up"
	actionMoveDown        = "move_down"
	actionLineStart       = "line_start"
	actionLineEnd         = "line_end"
	actionFileStart       = "file_start"
	actionFileEnd         = "file_end"
	actionWordLeft        = "word_left"
	actionWordRight       = "word_right"
	actionPageUp          = "page_up"
	actionPageDown        = "page_down"
	actionBackspace       = "backspace"
	actionDeleteChar      = "delete_char"
	actionNewline         = "newline"
	actionInsertTab       = "insert_tab"
	actionSelectLeft      = "select_left"
	actionSelectRight     = "select_right"
	actionSelectUp        = "select_up"
	actionSelectDown      = "select_down"
	actionSelectLineStart = "select_line_start"
	actionSelectLineEnd   = "select_line_end"
)

const (
	aiTimeout = 60 * time.Second

	msgEmptyNote = "Please type something in the editor first."
)

var ErrNoFileName = errors.New("no file name")

// Highlighter produces per-line markup spans for the note.
type Highlighter interface {
	Spans(ctx context.Context, text string) (map[int][]highlight.Span, error)
}

// Options wires the editor to its surroundings. Post must run f on the
// goroutine that calls HandleKey and Render; history timers and AI results
// are delivered through it.
type Options struct {
	Post         func(f func())
	Scheduler    history.Scheduler
	NewGenerator func(config.AIOptions) ai.Generator
	Highlighter  Highlighter
	Session      *session.Manager
	SaveConfig   func(config.Config) error
}

type Editor struct {
	cfg  config.Config
	opts Options

	buf  *buffer.Buffer
	hist *history.Manager
	gen  ai.Generator

	mode      Mode
	keymap    map[string]string
	cmd       []rune
	cmdCursor int
	prompt    string
	onPrompt  func(string) bool

	filename      string
	savedText     string
	statusMessage string

	scroll     int
	scrollX    int
	viewHeight int
	tabWidth   int

	aiBusy   bool
	aiCancel context.CancelFunc

	highlights       map[int][]highlight.Span
	highlightVersion uint64
	highlightValid   bool

	styleMain      tcell.Style
	styleStatus    tcell.Style
	styleCommand   tcell.Style
	styleSelection tcell.Style
	styleMarkup    map[string]tcell.Style
}

func New(cfg config.Config, opts Options) *Editor {
	if opts.Post == nil {
		opts.Post = func(f func()) { f() }
	}
	if opts.Scheduler == nil {
		opts.Scheduler = history.NewPostScheduler(opts.Post)
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = func(o config.AIOptions) ai.Generator {
			return ai.NewGemini(ai.Options{APIKey: o.APIKey, Model: o.Model, MaxTokens: o.MaxTokens})
		}
	}
	if opts.SaveConfig == nil {
		opts.SaveConfig = config.Save
	}
	e := &Editor{
		opts: opts,
		buf:  buffer.New(""),
	}
	e.hist = history.New(historyBuffer{e}, opts.Scheduler, history.Options{
		Limit:           cfg.Editor.HistoryLimit,
		CheckpointDelay: time.Duration(cfg.Editor.CheckpointDelayMs) * time.Millisecond,
		SuppressDelay:   time.Duration(cfg.Editor.SuppressMs) * time.Millisecond,
	})
	e.buf.OnEdit(e.hist.ScheduleCheckpoint)
	e.ApplyConfig(cfg)
	return e
}

// historyBuffer exposes the editor's buffer to the history manager. Focus
// returns keyboard input to the text.
type historyBuffer struct{ e *Editor }

func (h historyBuffer) State() history.Snapshot     { return h.e.buf.State() }
func (h historyBuffer) SetState(s history.Snapshot) { h.e.buf.SetState(s) }
func (h historyBuffer) Focus()                      { h.e.focus() }

// ApplyConfig installs cfg: theme, keymap, tab width and the AI client.
// History limits only take effect for a new editor.
func (e *Editor) ApplyConfig(cfg config.Config) {
	e.cfg = cfg
	e.keymap = make(map[string]string, len(cfg.Keymap))
	for k, v := range cfg.Keymap {
		e.keymap[k] = v
	}
	e.tabWidth = cfg.Editor.TabWidth
	if e.tabWidth < 1 {
		e.tabWidth = 1
	}
	e.applyTheme(cfg.Theme)
	e.gen = e.opts.NewGenerator(cfg.AI)
}

func (e *Editor) Config() config.Config     { return e.cfg }
func (e *Editor) Buffer() *buffer.Buffer    { return e.buf }
func (e *Editor) History() *history.Manager { return e.hist }
func (e *Editor) Mode() Mode                { return e.mode }
func (e *Editor) Text() string              { return e.buf.Text() }
func (e *Editor) Filename() string          { return e.filename }
func (e *Editor) StatusMessage() string     { return e.statusMessage }
func (e *Editor) AIBusy() bool              { return e.aiBusy }

// Dirty reports whether the text differs from what was last loaded or saved.
func (e *Editor) Dirty() bool { return e.buf.Text() != e.savedText }

func (e *Editor) SetStatusMessage(msg string) {
	e.setStatus(msg)
}

func (e *Editor) setStatus(msg string) {
	e.statusMessage = msg
}

func (e *Editor) focus() {
	e.mode = ModeEdit
	e.cmd = e.cmd[:0]
	e.cmdCursor = 0
	e.prompt = ""
	e.onPrompt = nil
}

// Undo and Redo are silent when there is nothing to step to.
func (e *Editor) Undo() { e.hist.Undo() }
func (e *Editor) Redo() { e.hist.Redo() }

// HandleKey processes one key event. It reports true when the editor
// should quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	switch e.mode {
	case ModeCommand, ModePrompt:
		return e.handleLine(ev)
	}
	return e.handleEdit(ev)
}

func (e *Editor) handleEdit(ev *tcell.EventKey) bool {
	key := keyString(ev)
	if action, ok := e.keymap[key]; ok {
		e.statusMessage = ""
		return e.runAction(action)
	}
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		e.statusMessage = ""
		e.buf.Insert(string(ev.Rune()))
	}
	return false
}

func (e *Editor) runAction(action string) bool {
	b := e.buf
	switch action {
	case actionUndo:
		e.Undo()
	case actionRedo:
		e.Redo()
	case actionNewFile:
		if e.Dirty() {
			e.setStatus("unsaved changes (use :new!)")
			return false
		}
		e.NewFile()
	case actionOpenFile:
		e.startPrompt("Open: ", func(path string) bool {
			if err := e.OpenFile(path); err != nil {
				e.setStatus("Error opening file: " + err.Error())
			}
			return false
		})
	case actionSave:
		if e.filename == "" {
			e.startPrompt("Save as: ", func(path string) bool {
				e.saveWithStatus(path)
				return false
			})
			return false
		}
		e.saveWithStatus("")
	case actionAskAI:
		e.Ask()
	case actionRewrite:
		e.startPrompt("Rewrite: ", func(instruction string) bool {
			e.Rewrite(instruction)
			return false
		})
	case actionSelectAll:
		b.SelectAll()
	case actionQuit:
		if e.Dirty() {
			e.setStatus("unsaved changes (use :q!)")
			return false
		}
		return true
	case actionEnterCommand:
		e.mode = ModeCommand
		e.cmd = e.cmd[:0]
		e.cmdCursor = 0
	case actionDeleteWordLeft:
		b.DeleteWordLeft()
	case actionMoveLeft:
		b.MoveLeft(false)
	case actionMoveRight:
		b.MoveRight(false)
	case actionMoveUp:
		b.MoveUp(false)
	case actionMoveDown:
		b.MoveDown(false)
	case actionLineStart:
		b.MoveLineStart(false)
	case actionLineEnd:
		b.MoveLineEnd(false)
	case actionFileStart:
		b.MoveFileStart(false)
	case actionFileEnd:
		b.MoveFileEnd(false)
	case actionWordLeft:
		b.MoveWordLeft(false)
	case actionWordRight:
		b.MoveWordRight(false)
	case actionPageUp:
		e.page(-1)
	case actionPageDown:
		e.page(1)
	case actionBackspace:
		b.Backspace()
	case actionDeleteChar:
		b.Delete()
	case actionNewline:
		b.Newline()
	case actionInsertTab:
		b.Insert("\t")
	case actionSelectLeft:
		b.MoveLeft(true)
	case actionSelectRight:
		b.MoveRight(true)
	case actionSelectUp:
		b.MoveUp(true)
	case actionSelectDown:
		b.MoveDown(true)
	case actionSelectLineStart:
		b.MoveLineStart(true)
	case actionSelectLineEnd:
		b.MoveLineEnd(true)
	default:
		e.setStatus("unknown action: " + action)
	}
	return false
}

func (e *Editor) page(dir int) {
	n := e.viewHeight - 1
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if dir < 0 {
			e.buf.MoveUp(false)
		} else {
			e.buf.MoveDown(false)
		}
	}
	e.scroll += dir * n
	if e.scroll < 0 {
		e.scroll = 0
	}
}

func (e *Editor) startPrompt(label string, submit func(string) bool) {
	e.mode = ModePrompt
	e.prompt = label
	e.onPrompt = submit
	e.cmd = e.cmd[:0]
	e.cmdCursor = 0
}

// handleLine edits the command or prompt line.
func (e *Editor) handleLine(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		e.focus()
		return false
	case tcell.KeyEnter:
		line := string(e.cmd)
		mode := e.mode
		submit := e.onPrompt
		e.focus()
		if mode == ModePrompt {
			if submit == nil {
				return false
			}
			return submit(line)
		}
		return e.execCommand(line)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if e.cmdCursor > 0 && len(e.cmd) > 0 {
			e.cmd = append(e.cmd[:e.cmdCursor-1], e.cmd[e.cmdCursor:]...)
			e.cmdCursor--
		} else if len(e.cmd) == 0 {
			e.focus()
		}
		return false
	case tcell.KeyDelete:
		if e.cmdCursor < len(e.cmd) {
			e.cmd = append(e.cmd[:e.cmdCursor], e.cmd[e.cmdCursor+1:]...)
		}
		return false
	case tcell.KeyLeft, tcell.KeyCtrlB:
		if e.cmdCursor > 0 {
			e.cmdCursor--
		}
		return false
	case tcell.KeyRight, tcell.KeyCtrlF:
		if e.cmdCursor < len(e.cmd) {
			e.cmdCursor++
		}
		return false
	case tcell.KeyHome, tcell.KeyCtrlA:
		e.cmdCursor = 0
		return false
	case tcell.KeyEnd, tcell.KeyCtrlE:
		e.cmdCursor = len(e.cmd)
		return false
	case tcell.KeyCtrlU:
		e.cmd = e.cmd[:0]
		e.cmdCursor = 0
		return false
	case tcell.KeyCtrlK:
		e.cmd = e.cmd[:e.cmdCursor]
		return false
	case tcell.KeyCtrlW:
		if e.cmdCursor > 0 {
			i := e.cmdCursor - 1
			for i > 0 && e.cmd[i-1] == ' ' {
				i--
			}
			for i > 0 && e.cmd[i-1] != ' ' {
				i--
			}
			e.cmd = append(e.cmd[:i], e.cmd[e.cmdCursor:]...)
			e.cmdCursor = i
		}
		return false
	case tcell.KeyRune:
		e.cmd = append(e.cmd[:e.cmdCursor], append([]rune{ev.Rune()}, e.cmd[e.cmdCursor:]...)...)
		e.cmdCursor++
		return false
	}
	return false
}

// HandleMouse places the caret on click and scrolls on wheel.
func (e *Editor) HandleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		e.scroll -= 3
		if e.scroll < 0 {
			e.scroll = 0
		}
	case ev.Buttons()&tcell.WheelDown != 0:
		e.scroll += 3
		if last := e.buf.LineCount() - 1; e.scroll > last {
			e.scroll = last
		}
	case ev.Buttons()&tcell.Button1 != 0:
		if e.mode != ModeEdit || y >= e.viewHeight {
			return
		}
		row := e.scroll + y
		lines := e.buf.Lines()
		if row >= len(lines) {
			e.buf.MoveFileEnd(false)
			return
		}
		col := colForX(lines[row], x+e.scrollX, e.tabWidth)
		off := e.buf.OffsetForRowCol(row, col)
		e.buf.Select(off, off)
	}
}

// Shutdown cancels a running AI request, stops history timers and stores
// the caret position of the open note.
func (e *Editor) Shutdown() {
	if e.aiCancel != nil {
		e.aiCancel()
		e.aiCancel = nil
	}
	e.hist.Stop()
	e.rememberFileState()
}
