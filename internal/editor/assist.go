package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/kobzarvs/qnote/internal/ai"
	"github.com/kobzarvs/qnote/internal/logger"
)

// Ask sends the whole note to the model. The answer is appended after a
// blank line and the caret moves to the end.
func (e *Editor) Ask() {
	text := e.buf.Text()
	if strings.TrimSpace(text) == "" {
		e.setStatus(msgEmptyNote)
		return
	}
	gen := e.gen
	e.startAI("asking...", func(ctx context.Context) (string, error) {
		return ai.Continue(ctx, gen, text)
	}, func(out string) {
		e.hist.ReplaceExternally(func() {
			e.buf.SetText(out)
			end := e.buf.Len()
			e.buf.Select(end, end)
		})
		e.focus()
	})
}

// Rewrite replaces the selection, or the whole note when nothing is
// selected, with the model's rewrite of it.
func (e *Editor) Rewrite(instruction string) {
	start, end := e.buf.Selection()
	if start == end {
		start, end = 0, e.buf.Len()
	}
	e.buf.Select(start, end)
	text := e.buf.SelectedText()
	if strings.TrimSpace(text) == "" {
		e.setStatus(msgEmptyNote)
		return
	}
	gen := e.gen
	version := e.buf.Version()
	e.startAI("rewriting...", func(ctx context.Context) (string, error) {
		return ai.Rewrite(ctx, gen, instruction, text)
	}, func(out string) {
		if e.buf.Version() != version {
			e.setStatus("note changed while rewriting; result discarded")
			return
		}
		e.hist.ReplaceExternally(func() {
			e.buf.Select(start, end)
			e.buf.ReplaceSelection(out)
		})
		e.focus()
	})
}

// startAI runs request off the event goroutine and hands its result to
// apply through Post. Only one request runs at a time.
func (e *Editor) startAI(label string, request func(context.Context) (string, error), apply func(string)) {
	if e.aiBusy {
		e.setStatus("AI request already running")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	e.aiBusy = true
	e.aiCancel = cancel
	e.setStatus(label)

	go func() {
		out, err := request(ctx)
		cancel()
		e.opts.Post(func() {
			e.aiBusy = false
			e.aiCancel = nil
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Warn("ai request failed", "error", err)
				e.setStatus("Failed to get response: " + err.Error())
				return
			}
			apply(out)
			if e.statusMessage == label {
				e.setStatus("")
			}
		})
	}()
}
