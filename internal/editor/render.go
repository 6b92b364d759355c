package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/kobzarvs/qnote/internal/config"
	"github.com/kobzarvs/qnote/internal/highlight"
	"github.com/kobzarvs/qnote/internal/logger"
)

func (e *Editor) applyTheme(t config.Theme) {
	mainFg := parseColor(t.Foreground, tcell.ColorWhite)
	mainBg := parseColor(t.Background, tcell.ColorBlack)
	statusFg := parseColor(t.StatuslineForeground, tcell.ColorBlack)
	statusBg := parseColor(t.StatuslineBackground, tcell.ColorGray)
	commandFg := parseColor(t.CommandlineForeground, statusFg)
	commandBg := parseColor(t.CommandlineBackground, statusBg)
	selectionFg := parseColor(t.SelectionForeground, mainFg)
	selectionBg := parseColor(t.SelectionBackground, tcell.ColorNavy)

	e.styleMain = tcell.StyleDefault.Foreground(mainFg).Background(mainBg)
	e.styleStatus = tcell.StyleDefault.Foreground(statusFg).Background(statusBg)
	e.styleCommand = tcell.StyleDefault.Foreground(commandFg).Background(commandBg)
	e.styleSelection = tcell.StyleDefault.Foreground(selectionFg).Background(selectionBg)
	e.styleMarkup = map[string]tcell.Style{
		highlight.KindHeading:  e.styleMain.Foreground(parseColor(t.MarkupHeading, mainFg)).Bold(true),
		highlight.KindList:     e.styleMain.Foreground(parseColor(t.MarkupList, mainFg)),
		highlight.KindQuote:    e.styleMain.Foreground(parseColor(t.MarkupQuote, mainFg)).Italic(true),
		highlight.KindCode:     e.styleMain.Foreground(parseColor(t.MarkupCode, mainFg)),
		highlight.KindRule:     e.styleMain.Foreground(parseColor(t.MarkupQuote, mainFg)),
		highlight.KindLink:     e.styleMain.Foreground(parseColor(t.MarkupLink, mainFg)).Underline(true),
		highlight.KindEmphasis: e.styleMain.Italic(true),
		highlight.KindStrong:   e.styleMain.Bold(true),
	}
}

func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}

	statusY := h - 2
	cmdY := h - 1
	viewHeight := h - 2
	if h < 2 {
		statusY = h - 1
		cmdY = h - 1
	}
	if viewHeight < 0 {
		viewHeight = 0
	}
	e.viewHeight = viewHeight
	e.refreshHighlights()

	lines := e.buf.Lines()
	e.ensureCursorVisible(lines, viewHeight, w)

	s.SetStyle(e.styleMain)
	s.Clear()

	selStart, selEnd := e.buf.Selection()
	offset := 0
	for i := 0; i < e.scroll && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	for y := 0; y < viewHeight; y++ {
		idx := e.scroll + y
		if idx >= len(lines) {
			clearLine(s, y, w, e.styleMain)
			continue
		}
		e.drawLine(s, y, w, lines[idx], offset, selStart, selEnd, e.highlights[idx], idx < len(lines)-1)
		offset += len(lines[idx]) + 1
	}

	var cx, cy int
	if statusY >= 0 {
		e.renderStatusline(s, w, statusY)
	}
	if cmdY >= 0 && cmdY != statusY {
		cmdX := e.renderCommandline(s, w, cmdY)
		if e.mode != ModeEdit {
			cx, cy = cmdX, cmdY
		}
	}
	if e.mode == ModeEdit {
		row, col := e.buf.CursorRowCol()
		cy = row - e.scroll
		cx = visualCol(lines[row], col, e.tabWidth) - e.scrollX
		if cy < 0 || cy >= viewHeight || cx < 0 || cx >= w {
			s.HideCursor()
			s.Show()
			return
		}
	}
	s.SetCursorStyle(tcell.CursorStyleSteadyBar)
	s.ShowCursor(cx, cy)
	s.Show()
}

// ensureCursorVisible scrolls so that the caret lies inside the text area.
func (e *Editor) ensureCursorVisible(lines [][]rune, viewHeight, w int) {
	row, col := e.buf.CursorRowCol()
	if viewHeight > 0 {
		if row < e.scroll {
			e.scroll = row
		} else if row >= e.scroll+viewHeight {
			e.scroll = row - viewHeight + 1
		}
	}
	if e.scroll > len(lines)-1 {
		e.scroll = len(lines) - 1
	}
	if e.scroll < 0 {
		e.scroll = 0
	}
	x := visualCol(lines[row], col, e.tabWidth)
	if x < e.scrollX {
		e.scrollX = x
	} else if w > 0 && x >= e.scrollX+w {
		e.scrollX = x - w + 1
	}
}

// refreshHighlights reparses the note when it changed since the last parse.
func (e *Editor) refreshHighlights() {
	if e.opts.Highlighter == nil {
		return
	}
	if e.highlightValid && e.highlightVersion == e.buf.Version() {
		return
	}
	spans, err := e.opts.Highlighter.Spans(context.Background(), e.buf.Text())
	if err != nil {
		logger.Warn("highlight failed", "error", err)
		spans = nil
	}
	e.highlights = spans
	e.highlightVersion = e.buf.Version()
	e.highlightValid = true
}

func (e *Editor) drawLine(s tcell.Screen, y, w int, line []rune, lineStart, selStart, selEnd int, spans []highlight.Span, hasBreak bool) {
	x := 0
	for _, g := range layout(line, e.tabWidth) {
		x = g.x + g.width - e.scrollX
		sx := g.x - e.scrollX
		if sx < 0 {
			continue
		}
		if sx >= w {
			break
		}
		style := e.styleMain
		if kind, ok := highlightKindAt(spans, g.col); ok {
			if st, ok := e.styleMarkup[kind]; ok {
				style = st
			}
		}
		off := lineStart + g.col
		if off >= selStart && off < selEnd {
			style = e.selectionStyle(style)
		}
		runes := []rune(g.text)
		if g.text == "\t" || sx+g.width > w || !isPrintable(runes[0]) {
			for i := 0; i < g.width && sx+i < w; i++ {
				s.SetContent(sx+i, y, ' ', nil, style)
			}
			continue
		}
		s.SetContent(sx, y, runes[0], runes[1:], style)
	}
	if x < 0 {
		x = 0
	}
	// A selected line break shows as one selected cell past the text.
	breakOff := lineStart + len(line)
	if hasBreak && breakOff >= selStart && breakOff < selEnd && x < w {
		s.SetContent(x, y, ' ', nil, e.selectionStyle(e.styleMain))
		x++
	}
	for ; x < w; x++ {
		s.SetContent(x, y, ' ', nil, e.styleMain)
	}
}

func (e *Editor) selectionStyle(base tcell.Style) tcell.Style {
	_, selBg, _ := e.styleSelection.Decompose()
	fg, _, _ := base.Decompose()
	return base.Foreground(fg).Background(selBg)
}

func highlightKindAt(spans []highlight.Span, col int) (string, bool) {
	kind := ""
	found := false
	for _, sp := range spans {
		if col >= sp.StartCol && col < sp.EndCol {
			// Later, narrower captures win over enclosing blocks.
			kind = sp.Kind
			found = true
		}
	}
	return kind, found
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y int) {
	name := e.filename
	if name == "" {
		name = "[No Name]"
	} else {
		name = filepath.Base(name)
	}
	dirty := ""
	if e.Dirty() {
		dirty = "*"
	}
	status := fmt.Sprintf(" %s | %s%s ", e.mode, name, dirty)
	if e.statusMessage != "" {
		status = fmt.Sprintf(" %s | %s%s | %s ", e.mode, name, dirty, e.statusMessage)
	}

	row, col := e.buf.CursorRowCol()
	lines := e.buf.Lines()
	right := fmt.Sprintf(" undo %d redo %d | Ln %d, Col %d ", e.hist.UndoDepth(), e.hist.RedoDepth(), row+1, visualCol(lines[row], col, e.tabWidth)+1)
	if e.aiBusy {
		right = " AI… |" + right
	}

	drawText(s, 0, y, w, composeStatusLine(status, right, w), e.styleStatus)
}

// renderCommandline draws the command or prompt line and returns the
// column of its cursor.
func (e *Editor) renderCommandline(s tcell.Screen, w, y int) int {
	clearLine(s, y, w, e.styleCommand)
	prefix := ""
	switch e.mode {
	case ModeCommand:
		prefix = ":"
	case ModePrompt:
		prefix = e.prompt
	default:
		return 0
	}
	text := prefix + string(e.cmd)
	drawText(s, 0, y, w, text, e.styleCommand)
	cx := runewidth.StringWidth(prefix + string(e.cmd[:e.cmdCursor]))
	if cx >= w {
		cx = w - 1
	}
	return cx
}

type glyph struct {
	text  string
	col   int // rune index of the first rune
	x     int
	width int
}

// layout splits a line into grapheme clusters with their screen columns.
// Tabs expand to the next tab stop.
func layout(line []rune, tabWidth int) []glyph {
	if tabWidth < 1 {
		tabWidth = 1
	}
	out := make([]glyph, 0, len(line))
	rest := string(line)
	state := -1
	x, col := 0, 0
	for len(rest) > 0 {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if cluster == "\t" {
			width = tabWidth - x%tabWidth
		} else if width < 1 {
			width = 1
		}
		out = append(out, glyph{text: cluster, col: col, x: x, width: width})
		x += width
		col += utf8.RuneCountInString(cluster)
	}
	return out
}

// visualCol is the screen column of rune index col.
func visualCol(line []rune, col, tabWidth int) int {
	x := 0
	for _, g := range layout(line, tabWidth) {
		if g.col >= col {
			return g.x
		}
		x = g.x + g.width
	}
	return x
}

// colForX is the rune index drawn at screen column x.
func colForX(line []rune, x, tabWidth int) int {
	for _, g := range layout(line, tabWidth) {
		if x < g.x+g.width {
			return g.col
		}
	}
	return len(line)
}

func isPrintable(r rune) bool {
	return r >= ' ' && r != 0x7f
}

func drawText(s tcell.Screen, x, y, w int, text string, style tcell.Style) int {
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > w {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// composeStatusLine lays out left and right in width cells, cutting left
// first when they do not fit.
func composeStatusLine(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(right) >= width {
		return runewidth.Truncate(right, width, "")
	}
	room := width - runewidth.StringWidth(right)
	left = runewidth.Truncate(left, room, "")
	return runewidth.FillRight(left, room) + right
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
