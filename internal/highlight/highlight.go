// Package highlight marks up Markdown structure in the note using the
// tree-sitter block and inline grammars.
package highlight

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	tree_sitter_markdown_inline "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown-inline"
)

// Span covers rune columns [StartCol, EndCol) of one line.
type Span struct {
	StartCol int
	EndCol   int
	Kind     string
}

const (
	KindHeading  = "heading"
	KindList     = "list"
	KindQuote    = "quote"
	KindCode     = "code"
	KindRule     = "rule"
	KindLink     = "link"
	KindEmphasis = "emphasis"
	KindStrong   = "strong"
)

// MaxSource is the largest text that is highlighted.
const MaxSource = 1 << 20

const blockQuery = `
(atx_heading) @heading
(setext_heading) @heading
(thematic_break) @rule
(block_quote_marker) @quote
(list_marker_plus) @list
(list_marker_minus) @list
(list_marker_star) @list
(list_marker_dot) @list
(list_marker_parenthesis) @list
(task_list_marker_checked) @list
(task_list_marker_unchecked) @list
(fenced_code_block) @code
(indented_code_block) @code
(link_reference_definition) @link
`

const inlineQuery = `
(code_span) @code
(emphasis) @emphasis
(strong_emphasis) @strong
(inline_link) @link
(full_reference_link) @link
(collapsed_reference_link) @link
(shortcut_link) @link
(image) @link
(uri_autolink) @link
(email_autolink) @link
`

// Highlighter is not safe for concurrent use.
type Highlighter struct {
	parser       *sitter.Parser
	query        *sitter.Query
	inlineParser *sitter.Parser
	inlineQuery  *sitter.Query

	// inline holds the spans of each line of the previous call, keyed by
	// line text.
	inline       map[string][]Span
	inlineParses int
}

func New() (*Highlighter, error) {
	lang := tree_sitter_markdown.GetLanguage()
	query, err := sitter.NewQuery([]byte(blockQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("markdown query: %w", err)
	}
	inlineLang := tree_sitter_markdown_inline.GetLanguage()
	inline, err := sitter.NewQuery([]byte(inlineQuery), inlineLang)
	if err != nil {
		query.Close()
		return nil, fmt.Errorf("markdown inline query: %w", err)
	}
	p := sitter.NewParser()
	p.SetLanguage(lang)
	ip := sitter.NewParser()
	ip.SetLanguage(inlineLang)
	return &Highlighter{parser: p, query: query, inlineParser: ip, inlineQuery: inline}, nil
}

func (h *Highlighter) Close() {
	h.query.Close()
	h.parser.Close()
	h.inlineQuery.Close()
	h.inlineParser.Close()
}

// Spans parses text and returns the spans of every line, keyed by line
// index. Texts above MaxSource yield nil. The block pass re-parses the
// whole text; the inline pass only parses lines not seen in the previous
// call.
func (h *Highlighter) Spans(ctx context.Context, text string) (map[int][]Span, error) {
	if len(text) > MaxSource {
		return nil, nil
	}
	src := []byte(text)
	tree, err := h.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := bytes.Split(src, []byte("\n"))
	out := make(map[int][]Span)
	collect(h.query, tree.RootNode(), lines, 0, out)

	// Inline markup is parsed line by line, outside code blocks.
	seen := make(map[string][]Span, len(h.inline))
	for row, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 || inCode(out[row]) {
			continue
		}
		key := string(line)
		spans, ok := seen[key]
		if !ok {
			spans, ok = h.inline[key]
		}
		if !ok {
			spans, err = h.inlineSpans(ctx, line)
			if err != nil {
				return nil, err
			}
		}
		seen[key] = spans
		out[row] = append(out[row], spans...)
	}
	h.inline = seen
	return out, nil
}

func (h *Highlighter) inlineSpans(ctx context.Context, line []byte) ([]Span, error) {
	tree, err := h.inlineParser.ParseCtx(ctx, nil, line)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	h.inlineParses++
	local := make(map[int][]Span)
	collect(h.inlineQuery, tree.RootNode(), [][]byte{line}, 0, local)
	return local[0], nil
}

// collect runs query over root and records its captures. Rows of root are
// relative to lines, which start at row base of the note.
func collect(query *sitter.Query, root *sitter.Node, lines [][]byte, base int, out map[int][]Span) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, root)

	local := make(map[int][]Span)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			kind := query.CaptureNameForId(c.Index)
			start := c.Node.StartPoint()
			end := c.Node.EndPoint()
			addSpans(local, lines, kind, int(start.Row), int(start.Column), int(end.Row), int(end.Column))
		}
	}
	for row, spans := range local {
		out[base+row] = append(out[base+row], spans...)
	}
}

func inCode(spans []Span) bool {
	for _, s := range spans {
		if s.Kind == KindCode {
			return true
		}
	}
	return false
}

func addSpans(out map[int][]Span, lines [][]byte, kind string, startRow, startByte, endRow, endByte int) {
	// A block that ends at column 0 does not touch its last row.
	if endRow > startRow && endByte == 0 {
		endRow--
		endByte = -1
	}
	for row := startRow; row <= endRow && row < len(lines); row++ {
		line := lines[row]
		from := 0
		if row == startRow {
			from = runeCol(line, startByte)
		}
		to := utf8.RuneCount(line)
		if row == endRow && endByte >= 0 {
			to = runeCol(line, endByte)
		}
		if to <= from {
			continue
		}
		out[row] = append(out[row], Span{StartCol: from, EndCol: to, Kind: kind})
	}
}

func runeCol(line []byte, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	return utf8.RuneCount(line[:byteCol])
}
