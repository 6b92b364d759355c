// Package ai talks to the generative text service that continues or
// rewrites the note.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kobzarvs/qnote/internal/logger"
)

var (
	ErrNoAPIKey      = errors.New("api key not set (use :set api-key <key>)")
	ErrEmptyPrompt   = errors.New("nothing to send")
	ErrEmptyResponse = errors.New("model returned no text")
)

const (
	DefaultModel     = "gemini-2.5-flash-lite"
	DefaultMaxTokens = 2048

	logPreview = 100
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Gemini is a Generator backed by the Gemini API. A client is created per
// request so that a changed key or model takes effect immediately.
type Gemini struct {
	opt Options
}

func NewGemini(opt Options) *Gemini {
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = DefaultMaxTokens
	}
	if opt.MaxTokens > math.MaxInt32 {
		opt.MaxTokens = math.MaxInt32
	}
	return &Gemini{opt: opt}
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.opt.APIKey == "" {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.opt.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.opt.Model)
	model.SetMaxOutputTokens(int32(g.opt.MaxTokens))

	logger.Info("gemini request", "model", g.opt.Model, "prompt", preview(prompt))
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.Error("gemini request failed", "error", err)
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	logger.Info("gemini response", "text", preview(text))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= logPreview {
		return s
	}
	return string(r[:logPreview])
}
