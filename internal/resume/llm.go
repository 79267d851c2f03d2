package resume

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

// LLMCustomizer rewrites a résumé through an LLM and falls back to the
// template substitutions whenever the model call fails.
type LLMCustomizer struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewLLMCustomizer creates a customizer backed by provider.
func NewLLMCustomizer(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMCustomizer {
	return &LLMCustomizer{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Customize returns the model's rewrite. Errors from the model, and empty
// replies, produce the template output instead; only a cancelled context
// or a broken prompt template is returned as an error.
func (c *LLMCustomizer) Customize(ctx context.Context, document, jobDescription string) (string, error) {
	var promptBuf bytes.Buffer
	if err := c.tmpl.Execute(&promptBuf, struct {
		Document       string
		JobDescription string
	}{
		Document:       document,
		JobDescription: jobDescription,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	out, err := c.provider.Complete(ctx, systemPrompt, promptBuf.String())
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("llm complete: %w", ctx.Err())
		}
		c.logger.Warn("llm rewrite failed, using template", "error", err)
		return applyTemplate(document, jobDescription), nil
	}
	if strings.TrimSpace(out) == "" {
		c.logger.Warn("llm returned empty rewrite, using template")
		return applyTemplate(document, jobDescription), nil
	}
	return out, nil
}
