package resume

import (
	"context"
	"strings"
)

// Customizer rewrites a résumé document (LaTeX or plain text) against a job
// description.
type Customizer interface {
	Customize(ctx context.Context, document, jobDescription string) (string, error)
}

const (
	skillsSection       = `\section{Skills}`
	objectiveMarker     = "{{OBJECTIVE}}"
	skillsSuggestion    = "\n% AI Suggestion: Highlight skills relevant to this job.\n"
	headerPreviewLen    = 50
	objectivePreviewLen = 20
)

// TemplateCustomizer applies fixed substitutions without any external call:
// a header comment naming the job, a note under the Skills section and an
// objective line in place of {{OBJECTIVE}}.
type TemplateCustomizer struct{}

// NewTemplateCustomizer returns a TemplateCustomizer.
func NewTemplateCustomizer() *TemplateCustomizer {
	return &TemplateCustomizer{}
}

// Customize never fails. Only the first Skills section and the first
// objective marker are touched.
func (TemplateCustomizer) Customize(_ context.Context, document, jobDescription string) (string, error) {
	return applyTemplate(document, jobDescription), nil
}

func applyTemplate(document, jobDescription string) string {
	out := "% Customized for Job Description: " + preview(jobDescription, headerPreviewLen) + "...\n" + document

	if strings.Contains(out, skillsSection) {
		out = strings.Replace(out, skillsSection, skillsSection+skillsSuggestion, 1)
	}

	objective := "Passionate developer looking to contribute to " + preview(jobDescription, objectivePreviewLen) + "..."
	return strings.Replace(out, objectiveMarker, objective, 1)
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
