package buffer

import (
	"testing"

	"github.com/kobzarvs/qnote/internal/history"
)

func TestInsertReplacesSelection(t *testing.T) {
	b := New("hello world")
	b.Select(6, 11)
	b.Insert("there")
	if got := b.Text(); got != "hello there" {
		t.Fatalf("text = %q, want %q", got, "hello there")
	}
	if b.Head() != 11 || b.HasSelection() {
		t.Fatalf("head = %d selection = %v, want 11 false", b.Head(), b.HasSelection())
	}
}

func TestOnEditFiresForUserEditsOnly(t *testing.T) {
	b := New("")
	edits := 0
	b.OnEdit(func() { edits++ })

	b.Insert("ab")
	b.Backspace()
	b.Newline()
	if edits != 3 {
		t.Fatalf("edits = %d, want 3", edits)
	}

	b.SetText("loaded")
	b.SetState(history.Snapshot{Content: "restored", SelectionStart: 1, SelectionEnd: 2})
	b.ReplaceSelection("E")
	if edits != 3 {
		t.Fatalf("edits after programmatic changes = %d, want 3", edits)
	}
}

func TestBackspaceRemovesWholeGrapheme(t *testing.T) {
	// "e" followed by a combining acute accent is one cluster.
	b := New("cafe\u0301!")
	b.Select(6, 6)
	b.Backspace()
	b.Backspace()
	if got := b.Text(); got != "caf" {
		t.Fatalf("text = %q, want %q", got, "caf")
	}
}

func TestMoveLeftRightByGrapheme(t *testing.T) {
	b := New("a\U0001F44D\U0001F3FDb")
	b.Select(0, 0)
	b.MoveRight(false)
	b.MoveRight(false)
	if b.Head() != 3 {
		t.Fatalf("head = %d, want 3", b.Head())
	}
	b.MoveLeft(false)
	if b.Head() != 1 {
		t.Fatalf("head = %d, want 1", b.Head())
	}
}

func TestMoveAcrossLineBreak(t *testing.T) {
	b := New("ab\ncd")
	b.Select(3, 3)
	b.MoveLeft(false)
	if b.Head() != 2 {
		t.Fatalf("head = %d, want 2", b.Head())
	}
	b.MoveRight(false)
	if b.Head() != 3 {
		t.Fatalf("head = %d, want 3", b.Head())
	}
}

func TestMoveVerticalKeepsGoalColumn(t *testing.T) {
	b := New("abcdef\nab\nabcdef")
	b.Select(5, 5)
	b.MoveDown(false)
	if row, col := b.CursorRowCol(); row != 1 || col != 2 {
		t.Fatalf("after down = %d:%d, want 1:2", row, col)
	}
	b.MoveDown(false)
	if row, col := b.CursorRowCol(); row != 2 || col != 5 {
		t.Fatalf("after second down = %d:%d, want 2:5", row, col)
	}
	b.MoveDown(false)
	if b.Head() != b.Len() {
		t.Fatalf("head = %d, want end %d", b.Head(), b.Len())
	}
}

func TestShiftMotionExtendsSelection(t *testing.T) {
	b := New("one two")
	b.Select(0, 0)
	b.MoveWordRight(true)
	start, end := b.Selection()
	if start != 0 || end != 4 {
		t.Fatalf("selection = %d..%d, want 0..4", start, end)
	}
	if got := b.SelectedText(); got != "one " {
		t.Fatalf("selected = %q, want %q", got, "one ")
	}
	b.MoveRight(false)
	if b.HasSelection() || b.Head() != 4 {
		t.Fatalf("collapse right: head = %d selection = %v", b.Head(), b.HasSelection())
	}
}

func TestStateOrdersSelection(t *testing.T) {
	b := New("abcdef")
	b.Select(5, 2)
	s := b.State()
	if s.SelectionStart != 2 || s.SelectionEnd != 5 {
		t.Fatalf("state selection = %d..%d, want 2..5", s.SelectionStart, s.SelectionEnd)
	}
}

func TestSetStateClamps(t *testing.T) {
	b := New("")
	b.SetState(history.Snapshot{Content: "abc", SelectionStart: -4, SelectionEnd: 99})
	start, end := b.Selection()
	if start != 0 || end != 3 {
		t.Fatalf("selection = %d..%d, want 0..3", start, end)
	}
}

func TestDeleteWordLeft(t *testing.T) {
	b := New("foo  bar_baz")
	b.Select(b.Len(), b.Len())
	b.DeleteWordLeft()
	if got := b.Text(); got != "foo  " {
		t.Fatalf("text = %q, want %q", got, "foo  ")
	}
}

func TestLinesAndOffsets(t *testing.T) {
	b := New("one\n\nthree")
	lines := b.Lines()
	if len(lines) != 3 || string(lines[2]) != "three" || len(lines[1]) != 0 {
		t.Fatalf("lines = %q", lines)
	}
	if got := b.OffsetForRowCol(2, 2); got != 7 {
		t.Fatalf("offset 2:2 = %d, want 7", got)
	}
	if got := b.OffsetForRowCol(0, 10); got != 3 {
		t.Fatalf("offset 0:10 = %d, want 3", got)
	}
	if row, col := b.RowColForOffset(7); row != 2 || col != 2 {
		t.Fatalf("rowcol 7 = %d:%d, want 2:2", row, col)
	}
	if got := b.OffsetForRowCol(9, 0); got != b.Len() {
		t.Fatalf("offset past end = %d, want %d", got, b.Len())
	}
}
