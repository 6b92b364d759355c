package buffer

// Lines splits the text at line breaks. The returned slices share storage
// with the buffer and must not be modified.
func (b *Buffer) Lines() [][]rune {
	lines := make([][]rune, 0, 16)
	start := 0
	for i, r := range b.text {
		if r == '\n' {
			lines = append(lines, b.text[start:i])
			start = i + 1
		}
	}
	return append(lines, b.text[start:])
}

func (b *Buffer) LineCount() int {
	n := 1
	for _, r := range b.text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// RowColForOffset converts a rune offset into a line and rune column.
func (b *Buffer) RowColForOffset(off int) (row, col int) {
	off = b.clamp(off)
	lineStart := 0
	for i := 0; i < off; i++ {
		if b.text[i] == '\n' {
			row++
			lineStart = i + 1
		}
	}
	return row, off - lineStart
}

// CursorRowCol is the line and column of the head.
func (b *Buffer) CursorRowCol() (row, col int) {
	return b.RowColForOffset(b.head)
}

// OffsetForRowCol converts a line and column into an offset, clamping both
// to existing text.
func (b *Buffer) OffsetForRowCol(row, col int) int {
	if row < 0 {
		return 0
	}
	off := 0
	for r := 0; r < row; r++ {
		next := b.lineEnd(off)
		if next >= len(b.text) {
			return len(b.text)
		}
		off = next + 1
	}
	end := b.lineEnd(off)
	if col < 0 {
		col = 0
	}
	if off+col > end {
		return end
	}
	return off + col
}
