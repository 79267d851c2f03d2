package resume

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/resume_rewrite.md
var resumeRewritePromptRaw string

// RewriteTemplate is the parsed prompt for tailoring a résumé.
var RewriteTemplate = template.Must(template.New("resume_rewrite").Parse(resumeRewritePromptRaw))

const systemPrompt = "You are an expert résumé editor. You return only the edited document, in the same format you received it."
