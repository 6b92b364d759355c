package history

import "time"

const (
	// MaxHistory is the default number of undo checkpoints kept.
	MaxHistory = 100
	// DefaultCheckpointDelay is the idle time after the last edit before a
	// checkpoint is recorded.
	DefaultCheckpointDelay = 500 * time.Millisecond
	// DefaultSuppressDelay is how long recording stays off after a restore.
	DefaultSuppressDelay = 10 * time.Millisecond
)

// State reports whether the Manager is currently recording.
type State int

const (
	Idle State = iota
	Suppressed
)

func (s State) String() string {
	if s == Suppressed {
		return "suppressed"
	}
	return "idle"
}

type Options struct {
	Limit           int
	CheckpointDelay time.Duration
	SuppressDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = MaxHistory
	}
	if o.CheckpointDelay <= 0 {
		o.CheckpointDelay = DefaultCheckpointDelay
	}
	if o.SuppressDelay <= 0 {
		o.SuppressDelay = DefaultSuppressDelay
	}
	return o
}

// Manager records checkpoints of a Buffer and walks them back and forth.
type Manager struct {
	buf   Buffer
	sched Scheduler
	opt   Options

	undo  []Snapshot
	redo  []Snapshot
	state State
	// Recording resumes at this instant even if the release callback is
	// late or lost.
	suppressUntil time.Time

	// At most one of each is pending. A callback whose handle has been
	// replaced is stale and does nothing, even if it was already queued.
	checkpoint Timer
	release    Timer
}

func New(buf Buffer, sched Scheduler, opt Options) *Manager {
	return &Manager{
		buf:   buf,
		sched: sched,
		opt:   opt.withDefaults(),
	}
}

func (m *Manager) UndoDepth() int { return len(m.undo) }
func (m *Manager) RedoDepth() int { return len(m.redo) }
func (m *Manager) Limit() int     { return m.opt.Limit }

func (m *Manager) State() State {
	if m.suppressed() {
		return Suppressed
	}
	return Idle
}

// CanUndo reports whether Undo would change the buffer.
func (m *Manager) CanUndo() bool {
	return lastDiffering(m.undo, m.buf.State().Content) >= 0
}

// CanRedo reports whether Redo would change the buffer.
func (m *Manager) CanRedo() bool {
	return lastDiffering(m.redo, m.buf.State().Content) >= 0
}

// RecordCheckpoint pushes the current buffer state onto the undo stack and
// drops the redo stack. It does nothing while suppressed.
func (m *Manager) RecordCheckpoint() {
	if m.suppressed() {
		return
	}
	m.pushUndo(m.buf.State())
	m.redo = nil
}

// ScheduleCheckpoint restarts the debounce timer. The checkpoint is taken
// once no further call arrives within the checkpoint delay.
func (m *Manager) ScheduleCheckpoint() {
	if m.suppressed() {
		return
	}
	m.cancelCheckpoint()
	var t Timer
	t = m.sched.AfterFunc(m.opt.CheckpointDelay, func() {
		if m.checkpoint != t {
			return
		}
		m.checkpoint = nil
		m.RecordCheckpoint()
	})
	m.checkpoint = t
}

// ReplaceExternally applies a programmatic change (file load, generated
// text) so that the states before and after it are separate undo steps.
// It ends a suppression window left by a recent undo or redo; otherwise the
// text on screen before the change could not be recorded.
func (m *Manager) ReplaceExternally(apply func()) {
	m.endSuppression()
	m.cancelCheckpoint()
	m.RecordCheckpoint()
	apply()
	m.RecordCheckpoint()
}

// Undo steps back once. It reports false, leaving everything untouched,
// when no earlier state differs from the buffer.
func (m *Manager) Undo() bool {
	cur := m.buf.State()
	i := lastDiffering(m.undo, cur.Content)
	if i < 0 {
		return false
	}
	prev := m.undo[i]
	m.undo = m.undo[:i]

	m.suppress()
	m.redo = append(m.redo, cur)
	m.restore(prev)
	return true
}

// Redo steps forward once over states removed by Undo.
func (m *Manager) Redo() bool {
	cur := m.buf.State()
	i := lastDiffering(m.redo, cur.Content)
	if i < 0 {
		return false
	}
	next := m.redo[i]
	m.redo = m.redo[:i]

	m.suppress()
	m.pushUndo(cur)
	m.restore(next)
	return true
}

// Reset drops both stacks and pending timers. The next checkpoint becomes
// the oldest reachable state.
func (m *Manager) Reset() {
	m.Stop()
	m.undo = nil
	m.redo = nil
}

// Stop cancels pending timers and returns to Idle.
func (m *Manager) Stop() {
	m.cancelCheckpoint()
	m.endSuppression()
}

func (m *Manager) restore(s Snapshot) {
	m.buf.SetState(s)
	m.buf.Focus()
}

func (m *Manager) pushUndo(s Snapshot) {
	m.undo = append(m.undo, s)
	if n := len(m.undo) - m.opt.Limit; n > 0 {
		copy(m.undo, m.undo[n:])
		for i := m.opt.Limit; i < len(m.undo); i++ {
			m.undo[i] = Snapshot{}
		}
		m.undo = m.undo[:m.opt.Limit]
	}
}

// suppress turns recording off until the grace window after the most
// recent restore has elapsed.
func (m *Manager) suppress() {
	m.cancelCheckpoint()
	m.state = Suppressed
	m.suppressUntil = m.sched.Now().Add(m.opt.SuppressDelay)
	if m.release != nil {
		m.release.Stop()
	}
	var t Timer
	t = m.sched.AfterFunc(m.opt.SuppressDelay, func() {
		if m.release != t {
			return
		}
		m.release = nil
		m.state = Idle
	})
	m.release = t
}

// suppressed reports whether recording is off, ending a window whose
// deadline has passed.
func (m *Manager) suppressed() bool {
	if m.state == Suppressed && !m.sched.Now().Before(m.suppressUntil) {
		m.endSuppression()
	}
	return m.state == Suppressed
}

func (m *Manager) endSuppression() {
	if m.release != nil {
		m.release.Stop()
		m.release = nil
	}
	m.state = Idle
}

func (m *Manager) cancelCheckpoint() {
	if m.checkpoint != nil {
		m.checkpoint.Stop()
		m.checkpoint = nil
	}
}

// lastDiffering returns the index of the newest snapshot whose content is
// not content, or -1. Newer snapshots equal to content are skipped: they
// would restore nothing visible.
func lastDiffering(stack []Snapshot, content string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Content != content {
			return i
		}
	}
	return -1
}
