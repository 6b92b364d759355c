package ai

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kobzarvs/qnote/internal/logger"
)

type stubGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestContinueAppendsAnswer(t *testing.T) {
	g := &stubGenerator{reply: "answer"}
	got, err := Continue(context.Background(), g, "  question?\n")
	if err != nil {
		t.Fatalf("Continue error: %v", err)
	}
	if got != "question?\n\nanswer" {
		t.Fatalf("Continue = %q, want %q", got, "question?\n\nanswer")
	}
	if len(g.prompts) != 1 || g.prompts[0] != "question?" {
		t.Fatalf("prompts = %q, want [question?]", g.prompts)
	}
}

func TestContinueRejectsBlankText(t *testing.T) {
	g := &stubGenerator{reply: "x"}
	if _, err := Continue(context.Background(), g, " \n\t"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
	if len(g.prompts) != 0 {
		t.Fatalf("generator called for blank text")
	}
}

func TestContinuePropagatesError(t *testing.T) {
	boom := errors.New("quota")
	g := &stubGenerator{err: boom}
	if _, err := Continue(context.Background(), g, "hi"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRewriteSendsInstructionAndText(t *testing.T) {
	g := &stubGenerator{reply: "Better words.\n"}
	got, err := Rewrite(context.Background(), g, "make it formal", "some words")
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if got != "Better words." {
		t.Fatalf("Rewrite = %q, want %q", got, "Better words.")
	}
	p := g.prompts[0]
	if !strings.HasPrefix(p, "make it formal") || !strings.HasSuffix(p, "some words") {
		t.Fatalf("prompt = %q", p)
	}
}

func TestRewritePromptDefaultInstruction(t *testing.T) {
	p := RewritePrompt("  ", "text")
	if !strings.HasPrefix(p, "Improve the writing.") {
		t.Fatalf("prompt = %q", p)
	}
}

func TestGeminiWithoutKey(t *testing.T) {
	g := NewGemini(Options{})
	if _, err := g.Generate(context.Background(), "hello"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
	if g.opt.Model != DefaultModel || g.opt.MaxTokens != DefaultMaxTokens {
		t.Fatalf("defaults = %+v", g.opt)
	}
}

func TestGeminiCapsMaxTokens(t *testing.T) {
	g := NewGemini(Options{MaxTokens: math.MaxInt32 + 1})
	if g.opt.MaxTokens != math.MaxInt32 {
		t.Fatalf("MaxTokens = %d, want %d", g.opt.MaxTokens, math.MaxInt32)
	}
}

func TestResponseTextJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("world")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	if got := responseText(resp); got != "Hello, world" {
		t.Fatalf("responseText = %q, want %q", got, "Hello, world")
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("responseText(nil) = %q", got)
	}
}

func TestPreviewTruncatesForLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	defer func() { logger.L, logger.S = nil, nil }()

	long := strings.Repeat("é", 150)
	logger.Info("gemini request", "prompt", preview(long))

	entries := logs.FilterMessage("gemini request").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0].ContextMap()["prompt"].(string)
	if n := len([]rune(got)); n != logPreview {
		t.Fatalf("preview runes = %d, want %d", n, logPreview)
	}
}
