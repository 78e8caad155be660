package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

var (
	ErrInvalidJobSpec = errors.New("invalid job specification")
	ErrEmailTooShort  = errors.New("generated email content is too short or empty")
)

// DefaultMinEmailLength is the shortest email body accepted from the model.
const DefaultMinEmailLength = 50

// maxDocumentBytes caps each document embedded in a prompt.
const maxDocumentBytes = 12000

// JobSpec holds the inputs of a job description generation request.
type JobSpec struct {
	Title           string   `json:"title"`
	YearsExperience int      `json:"years_experience"`
	MustHaveSkills  []string `json:"must_have_skills"`
	CompanyName     string   `json:"company_name"`
	EmploymentType  string   `json:"employment_type"`
	Industry        string   `json:"industry"`
	Location        string   `json:"location"`
}

// Validate checks the required fields.
func (j JobSpec) Validate() error {
	switch {
	case strings.TrimSpace(j.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidJobSpec)
	case strings.TrimSpace(j.CompanyName) == "":
		return fmt.Errorf("%w: company_name is required", ErrInvalidJobSpec)
	case len(j.MustHaveSkills) == 0:
		return fmt.Errorf("%w: must_have_skills is required", ErrInvalidJobSpec)
	case j.YearsExperience < 0:
		return fmt.Errorf("%w: years_experience must be >= 0", ErrInvalidJobSpec)
	}
	return nil
}

// RecruitmentService renders prompts, calls the Completer and parses the
// answers. It holds no per-request state.
type RecruitmentService struct {
	completer      Completer
	minEmailLength int
	logger         *slog.Logger
}

// NewRecruitmentService creates a RecruitmentService. A non-positive
// minEmailLength falls back to DefaultMinEmailLength.
func NewRecruitmentService(completer Completer, minEmailLength int, logger *slog.Logger) *RecruitmentService {
	if minEmailLength <= 0 {
		minEmailLength = DefaultMinEmailLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecruitmentService{completer: completer, minEmailLength: minEmailLength, logger: logger}
}

// GenerateJobDescription writes a job posting from spec.
func (s *RecruitmentService) GenerateJobDescription(ctx context.Context, spec JobSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	prompt, err := renderPrompt(promptJobDescription, promptData{JobSpec: spec})
	if err != nil {
		return "", err
	}
	return s.completer.Complete(ctx, prompt, TypeJobDescription, nil)
}

// AnalyzeResume scores a resume against a job description.
func (s *RecruitmentService) AnalyzeResume(ctx context.Context, resumeText, jobDescription string) (models.AnalysisResult, error) {
	return s.analyze(ctx, promptResumeAnalysis, TypeResumeAnalysis, promptData{
		Counterpart: truncateString(jobDescription, maxDocumentBytes),
		Document:    truncateString(resumeText, maxDocumentBytes),
	})
}

// AnalyzeJob scores a job posting against a candidate resume. companyName is an
// optional hint.
func (s *RecruitmentService) AnalyzeJob(ctx context.Context, jobText, resumeText, companyName string) (models.AnalysisResult, error) {
	return s.analyze(ctx, promptJobAnalysis, TypeJobAnalysis, promptData{
		JobSpec:     JobSpec{CompanyName: companyName},
		Counterpart: truncateString(resumeText, maxDocumentBytes),
		Document:    truncateString(jobText, maxDocumentBytes),
	})
}

func (s *RecruitmentService) analyze(ctx context.Context, tmpl, completionType string, data promptData) (models.AnalysisResult, error) {
	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	text, err := s.completer.Complete(ctx, prompt, completionType, nil)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return analysis.ParseAnalysis(text), nil
}

// AcceptanceEmail writes an interview invitation for the candidate behind identifier.
func (s *RecruitmentService) AcceptanceEmail(ctx context.Context, identifier, jobDescription string) (string, error) {
	return s.email(ctx, promptAcceptanceEmail, promptData{
		CandidateName: CandidateName(identifier),
		Counterpart:   truncateString(jobDescription, maxDocumentBytes),
	}, map[string]any{OverrideMaxTokens: 500})
}

// RejectionEmail writes a considerate rejection for the candidate behind identifier.
func (s *RecruitmentService) RejectionEmail(ctx context.Context, identifier string) (string, error) {
	return s.email(ctx, promptRejectionEmail, promptData{CandidateName: CandidateName(identifier)}, nil)
}

// ApplicationEmail writes a cover letter applying to jobText with resumeText.
func (s *RecruitmentService) ApplicationEmail(ctx context.Context, jobText, resumeText, companyName string, missingSkills []string) (string, error) {
	return s.email(ctx, promptApplicationEmail, promptData{
		JobSpec:       JobSpec{CompanyName: companyName},
		Counterpart:   truncateString(resumeText, maxDocumentBytes),
		Document:      truncateString(jobText, maxDocumentBytes),
		MissingSkills: missingSkills,
	}, nil)
}

func (s *RecruitmentService) email(ctx context.Context, tmpl string, data promptData, overrides map[string]any) (string, error) {
	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return "", err
	}
	text, err := s.completer.Complete(ctx, prompt, TypeEmail, overrides)
	if err != nil {
		s.logger.Error("email generation failed", "template", tmpl, "error", err)
		return "", fmt.Errorf("generating email: %w", err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.minEmailLength {
		return "", ErrEmailTooShort
	}
	return text, nil
}

// CandidateName derives a display name from a resume filename: the extension is
// dropped, underscores and hyphens become spaces and each word is capitalised.
func CandidateName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
