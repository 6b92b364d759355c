// Package history keeps a linear, bounded undo/redo history for a single
// text buffer.
//
// Checkpoints are whole-buffer snapshots. User typing is coalesced through a
// trailing-edge debounce so a burst of keystrokes becomes one checkpoint, and
// recording is suppressed while an undo or redo restores the buffer so the
// restoration is never captured as new input.
//
// A Manager is not safe for concurrent use. It expects to be driven from a
// single event loop; timer callbacks reach that loop through a Scheduler.
package history
