package editor

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qnote/internal/config"
	"github.com/kobzarvs/qnote/internal/highlight"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func screenRow(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteString(string(c.Runes))
	}
	return b.String()
}

type fakeHighlighter struct {
	calls int
	spans map[int][]highlight.Span
}

func (f *fakeHighlighter) Spans(ctx context.Context, text string) (map[int][]highlight.Span, error) {
	f.calls++
	return f.spans, nil
}

func TestRenderTextAndStatusline(t *testing.T) {
	h := newHarness(t)
	h.typeText("first")
	h.press(tcell.KeyEnter)
	h.typeText("second")
	h.idle()

	s := newSimScreen(t, 60, 5)
	h.e.Render(s)

	if got := screenRow(s, 0); !strings.HasPrefix(got, "first ") {
		t.Fatalf("row 0 = %q", got)
	}
	if got := screenRow(s, 1); !strings.HasPrefix(got, "second ") {
		t.Fatalf("row 1 = %q", got)
	}
	status := screenRow(s, 3)
	if !strings.Contains(status, "EDIT | [No Name]*") {
		t.Fatalf("status = %q", status)
	}
	if !strings.Contains(status, "undo 1 redo 0 | Ln 2, Col 7") {
		t.Fatalf("status = %q", status)
	}
	if x, y, visible := s.GetCursor(); !visible || x != 6 || y != 1 {
		t.Fatalf("cursor = %d,%d visible=%v, want 6,1", x, y, visible)
	}
}

func TestRenderCommandline(t *testing.T) {
	h := newHarness(t)
	h.press(tcell.KeyEscape)
	h.typeText("w")

	s := newSimScreen(t, 20, 5)
	h.e.Render(s)
	if got := screenRow(s, 4); !strings.HasPrefix(got, ":w ") {
		t.Fatalf("command line = %q", got)
	}
	if x, y, _ := s.GetCursor(); x != 2 || y != 4 {
		t.Fatalf("cursor = %d,%d, want 2,4", x, y)
	}
}

func TestRenderPromptLabel(t *testing.T) {
	h := newHarness(t)
	h.ctrl(tcell.KeyCtrlO)
	s := newSimScreen(t, 30, 4)
	h.e.Render(s)
	if got := screenRow(s, 3); !strings.HasPrefix(got, "Open: ") {
		t.Fatalf("prompt line = %q", got)
	}
}

func TestRenderAIBusyMarker(t *testing.T) {
	h := newHarness(t)
	h.typeText("hi")
	h.e.Ask()
	s := newSimScreen(t, 60, 4)
	h.e.Render(s)
	if got := screenRow(s, 2); !strings.Contains(got, "AI…") {
		t.Fatalf("status = %q", got)
	}
	h.drain(t)
	h.e.Render(s)
	if got := screenRow(s, 2); strings.Contains(got, "AI…") {
		t.Fatalf("status after result = %q", got)
	}
}

func TestRenderAppliesMarkupStyle(t *testing.T) {
	hl := &fakeHighlighter{spans: map[int][]highlight.Span{
		0: {{StartCol: 0, EndCol: 4, Kind: highlight.KindHeading}},
	}}
	e := New(config.Default(), Options{Highlighter: hl, SaveConfig: func(config.Config) error { return nil }})
	e.buf.SetText("# Hi\nplain")

	s := newSimScreen(t, 20, 5)
	e.Render(s)
	e.Render(s)
	if hl.calls != 1 {
		t.Fatalf("highlighter calls = %d, want 1 for an unchanged note", hl.calls)
	}

	cells, w, _ := s.GetContents()
	_, _, attr := cells[0].Style.Decompose()
	if attr&tcell.AttrBold == 0 {
		t.Fatalf("heading cell is not bold")
	}
	_, _, attr = cells[w].Style.Decompose()
	if attr&tcell.AttrBold != 0 {
		t.Fatalf("plain cell is bold")
	}
}

func TestRenderWideRunesAndTabs(t *testing.T) {
	e := New(config.Default(), Options{SaveConfig: func(config.Config) error { return nil }})
	e.buf.SetText("日本\tx")
	e.buf.MoveFileEnd(false)

	s := newSimScreen(t, 20, 4)
	e.Render(s)
	if x, y, _ := s.GetCursor(); x != 9 || y != 0 {
		t.Fatalf("cursor = %d,%d, want 9,0", x, y)
	}
}

func TestVisualColAndColForX(t *testing.T) {
	line := []rune("a\tb日c")
	cases := []struct{ col, x int }{
		{0, 0}, {1, 1}, {2, 4}, {3, 5}, {4, 7}, {5, 8},
	}
	for _, c := range cases {
		if got := visualCol(line, c.col, 4); got != c.x {
			t.Fatalf("visualCol(%d) = %d, want %d", c.col, got, c.x)
		}
	}
	if got := colForX(line, 2, 4); got != 1 {
		t.Fatalf("colForX(2) = %d, want 1 (inside the tab)", got)
	}
	if got := colForX(line, 6, 4); got != 3 {
		t.Fatalf("colForX(6) = %d, want 3 (right half of wide rune)", got)
	}
	if got := colForX(line, 40, 4); got != len(line) {
		t.Fatalf("colForX past end = %d, want %d", got, len(line))
	}
}

func TestComposeStatusLine(t *testing.T) {
	if got := composeStatusLine("left", "right", 12); got != "left   right" {
		t.Fatalf("compose = %q", got)
	}
	if got := composeStatusLine("a long left side", "right", 8); got != "a lright" {
		t.Fatalf("compose truncated = %q", got)
	}
	if got := composeStatusLine("left", "much too wide", 4); got != "much" {
		t.Fatalf("compose narrow = %q", got)
	}
}

func TestKeyString(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModCtrl), "ctrl+z"},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift), "shift+left"},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModAlt), "alt+left"},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "enter"},
		{tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), "tab"},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "esc"},
		{tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModCtrl), "ctrl+home"},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), "q"},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), "space"},
	}
	for _, c := range cases {
		if got := keyString(c.ev); got != c.want {
			t.Fatalf("keyString = %q, want %q", got, c.want)
		}
	}
}
