package ai

import (
	"context"
	"strings"
)

// Continue sends the whole note and returns the note followed by the
// model's answer, separated by a blank line. Surrounding whitespace of the
// note is dropped.
func Continue(ctx context.Context, g Generator, text string) (string, error) {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	out, err := g.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return prompt + "\n\n" + out, nil
}

// Rewrite asks the model to apply instruction to text and returns only the
// rewritten text.
func Rewrite(ctx context.Context, g Generator, instruction, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	out, err := g.Generate(ctx, RewritePrompt(instruction, text))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// RewritePrompt frames text so the reply contains only the replacement.
func RewritePrompt(instruction, text string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = "Improve the writing. Keep the meaning and the language."
	}
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nReply with the rewritten text only, without commentary or quotes.\n\n---\n")
	b.WriteString(text)
	return b.String()
}
