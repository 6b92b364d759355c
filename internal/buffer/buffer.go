// Package buffer holds the text being edited together with its selection.
//
// Offsets are rune indices into the text. The selection is an anchor and a
// head; the head is where the caret is drawn. Horizontal motion and deletion
// step over whole grapheme clusters.
package buffer

import (
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/kobzarvs/qnote/internal/history"
)

type Buffer struct {
	text    []rune
	anchor  int
	head    int
	goalCol int
	version uint64
	onEdit  func()
}

func New(text string) *Buffer {
	return &Buffer{text: []rune(text), goalCol: -1}
}

// OnEdit registers the callback fired after every user edit. Programmatic
// changes through SetText, SetState and ReplaceSelection do not fire it.
func (b *Buffer) OnEdit(f func()) { b.onEdit = f }

func (b *Buffer) Text() string    { return string(b.text) }
func (b *Buffer) Len() int        { return len(b.text) }
func (b *Buffer) Version() uint64 { return b.version }
func (b *Buffer) Head() int       { return b.head }
func (b *Buffer) Anchor() int     { return b.anchor }

// Selection returns the ordered selection range.
func (b *Buffer) Selection() (start, end int) {
	if b.anchor <= b.head {
		return b.anchor, b.head
	}
	return b.head, b.anchor
}

func (b *Buffer) HasSelection() bool { return b.anchor != b.head }

func (b *Buffer) SelectedText() string {
	start, end := b.Selection()
	return string(b.text[start:end])
}

func (b *Buffer) State() history.Snapshot {
	start, end := b.Selection()
	return history.Snapshot{
		Content:        string(b.text),
		SelectionStart: start,
		SelectionEnd:   end,
	}
}

// SetState replaces text and selection. Offsets are clamped to the text.
func (b *Buffer) SetState(s history.Snapshot) {
	b.text = []rune(s.Content)
	b.anchor = b.clamp(s.SelectionStart)
	b.head = b.clamp(s.SelectionEnd)
	if b.head < b.anchor {
		b.head = b.anchor
	}
	b.goalCol = -1
	b.version++
}

// SetText replaces the whole text and puts the caret at the start.
func (b *Buffer) SetText(text string) {
	b.SetState(history.Snapshot{Content: text})
}

// Select sets anchor and head, clamped.
func (b *Buffer) Select(anchor, head int) {
	b.anchor = b.clamp(anchor)
	b.head = b.clamp(head)
	b.goalCol = -1
}

func (b *Buffer) SelectAll() {
	b.Select(0, len(b.text))
}

// ReplaceSelection swaps the selected text for s and selects the result.
func (b *Buffer) ReplaceSelection(s string) {
	start, end := b.Selection()
	b.splice(start, end, []rune(s))
	b.anchor = start
	b.head = start + len([]rune(s))
}

// Insert types s over the selection.
func (b *Buffer) Insert(s string) {
	if s == "" {
		return
	}
	start, end := b.Selection()
	r := []rune(s)
	b.splice(start, end, r)
	b.anchor = start + len(r)
	b.head = b.anchor
	b.edited()
}

func (b *Buffer) Newline() { b.Insert("\n") }

// Backspace deletes the selection, or the grapheme before the caret.
func (b *Buffer) Backspace() {
	if b.deleteSelection() {
		return
	}
	if b.head == 0 {
		return
	}
	prev := b.prevBoundary(b.head)
	b.splice(prev, b.head, nil)
	b.head = prev
	b.anchor = prev
	b.edited()
}

// Delete deletes the selection, or the grapheme after the caret.
func (b *Buffer) Delete() {
	if b.deleteSelection() {
		return
	}
	if b.head >= len(b.text) {
		return
	}
	next := b.nextBoundary(b.head)
	b.splice(b.head, next, nil)
	b.edited()
}

// DeleteWordLeft deletes back to the previous word start.
func (b *Buffer) DeleteWordLeft() {
	if b.deleteSelection() {
		return
	}
	to := b.wordLeft(b.head)
	if to == b.head {
		return
	}
	b.splice(to, b.head, nil)
	b.head = to
	b.anchor = to
	b.edited()
}

func (b *Buffer) deleteSelection() bool {
	if !b.HasSelection() {
		return false
	}
	start, end := b.Selection()
	b.splice(start, end, nil)
	b.anchor = start
	b.head = start
	b.edited()
	return true
}

func (b *Buffer) splice(start, end int, with []rune) {
	out := make([]rune, 0, len(b.text)-(end-start)+len(with))
	out = append(out, b.text[:start]...)
	out = append(out, with...)
	out = append(out, b.text[end:]...)
	b.text = out
	b.goalCol = -1
	b.version++
}

func (b *Buffer) edited() {
	if b.onEdit != nil {
		b.onEdit()
	}
}

func (b *Buffer) clamp(off int) int {
	if off < 0 {
		return 0
	}
	if off > len(b.text) {
		return len(b.text)
	}
	return off
}

// moveTo places the head, dragging the anchor along unless extending.
func (b *Buffer) moveTo(off int, extend bool) {
	b.head = b.clamp(off)
	if !extend {
		b.anchor = b.head
	}
}

func (b *Buffer) MoveLeft(extend bool) {
	if !extend && b.HasSelection() {
		start, _ := b.Selection()
		b.moveTo(start, false)
	} else {
		b.moveTo(b.prevBoundary(b.head), extend)
	}
	b.goalCol = -1
}

func (b *Buffer) MoveRight(extend bool) {
	if !extend && b.HasSelection() {
		_, end := b.Selection()
		b.moveTo(end, false)
	} else {
		b.moveTo(b.nextBoundary(b.head), extend)
	}
	b.goalCol = -1
}

func (b *Buffer) MoveUp(extend bool)   { b.moveVertical(-1, extend) }
func (b *Buffer) MoveDown(extend bool) { b.moveVertical(1, extend) }

func (b *Buffer) moveVertical(delta int, extend bool) {
	row, col := b.CursorRowCol()
	if b.goalCol < 0 {
		b.goalCol = col
	}
	goal := b.goalCol
	target := row + delta
	switch {
	case target < 0:
		b.moveTo(0, extend)
	case target >= b.LineCount():
		b.moveTo(len(b.text), extend)
	default:
		b.moveTo(b.OffsetForRowCol(target, goal), extend)
	}
	b.goalCol = goal
}

func (b *Buffer) MoveLineStart(extend bool) {
	b.moveTo(b.lineStart(b.head), extend)
	b.goalCol = -1
}

func (b *Buffer) MoveLineEnd(extend bool) {
	b.moveTo(b.lineEnd(b.head), extend)
	b.goalCol = -1
}

func (b *Buffer) MoveFileStart(extend bool) {
	b.moveTo(0, extend)
	b.goalCol = -1
}

func (b *Buffer) MoveFileEnd(extend bool) {
	b.moveTo(len(b.text), extend)
	b.goalCol = -1
}

func (b *Buffer) MoveWordLeft(extend bool) {
	b.moveTo(b.wordLeft(b.head), extend)
	b.goalCol = -1
}

func (b *Buffer) MoveWordRight(extend bool) {
	b.moveTo(b.wordRight(b.head), extend)
	b.goalCol = -1
}

func (b *Buffer) wordLeft(off int) int {
	i := off
	for i > 0 && !isWordChar(b.text[i-1]) {
		i--
	}
	for i > 0 && isWordChar(b.text[i-1]) {
		i--
	}
	return i
}

func (b *Buffer) wordRight(off int) int {
	i := off
	n := len(b.text)
	for i < n && isWordChar(b.text[i]) {
		i++
	}
	for i < n && !isWordChar(b.text[i]) {
		i++
	}
	return i
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (b *Buffer) lineStart(off int) int {
	for off > 0 && b.text[off-1] != '\n' {
		off--
	}
	return off
}

func (b *Buffer) lineEnd(off int) int {
	for off < len(b.text) && b.text[off] != '\n' {
		off++
	}
	return off
}

// prevBoundary is the start of the grapheme cluster ending at off. A line
// break is its own cluster.
func (b *Buffer) prevBoundary(off int) int {
	if off <= 0 {
		return 0
	}
	start := b.lineStart(off)
	if start == off {
		return off - 1
	}
	prev := start
	for _, cut := range clusterEnds(b.text[start:off]) {
		if start+cut >= off {
			break
		}
		prev = start + cut
	}
	return prev
}

// nextBoundary is the end of the grapheme cluster starting at off.
func (b *Buffer) nextBoundary(off int) int {
	if off >= len(b.text) {
		return len(b.text)
	}
	end := b.lineEnd(off)
	if end == off {
		return off + 1
	}
	ends := clusterEnds(b.text[off:end])
	return off + ends[0]
}

// clusterEnds lists the rune offsets at which each grapheme cluster of line
// ends.
func clusterEnds(line []rune) []int {
	var ends []int
	rest := string(line)
	state := -1
	pos := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += len([]rune(cluster))
		ends = append(ends, pos)
	}
	return ends
}
