package ai

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.md
var promptFS embed.FS

// Prompt templates are parsed once at package init and reused on every call.
var promptTemplates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.md"),
)

// Template names, one per file under prompts/.
const (
	promptJobDescription   = "job_description.md"
	promptResumeAnalysis   = "resume_analysis.md"
	promptJobAnalysis      = "job_analysis.md"
	promptAcceptanceEmail  = "acceptance_email.md"
	promptRejectionEmail   = "rejection_email.md"
	promptApplicationEmail = "application_email.md"
)

// promptData is the union of values the templates reference.
type promptData struct {
	JobSpec
	Counterpart   string
	Document      string
	CandidateName string
	MissingSkills []string
}

func renderPrompt(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
