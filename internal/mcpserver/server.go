// Package mcpserver exposes the recruitment tools over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// Recruiter is the subset of ai.RecruitmentService the tools call directly.
type Recruiter interface {
	AnalyzeResume(ctx context.Context, resumeText, jobDescription string) (models.AnalysisResult, error)
	GenerateJobDescription(ctx context.Context, spec ai.JobSpec) (string, error)
}

// BatchRunner runs rank_candidates.
type BatchRunner interface {
	Run(ctx context.Context, req batch.Request, sink batch.Sink) (*models.Batch, error)
}

// Deps holds dependencies for the MCP server.
type Deps struct {
	Recruiter  Recruiter
	Runner     BatchRunner
	Thresholds analysis.Thresholds
	Version    string
	Logger     *slog.Logger
}

// New creates an MCP server with the recruitment tools registered.
func New(deps Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := server.NewMCPServer(
		"recruitai",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("recruitai scores resumes against job descriptions, ranks candidates and drafts job postings."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_resume",
			mcp.WithDescription("Score one resume against a job description and list the missing skills."),
			mcp.WithString("resume", mcp.Description("Plain text of the resume"), mcp.Required()),
			mcp.WithString("job_description", mcp.Description("Plain text of the job description"), mcp.Required()),
		),
		analyzeResume(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_job_description",
			mcp.WithDescription("Write a job posting from a title, required skills and company details."),
			mcp.WithString("title", mcp.Description("Job title"), mcp.Required()),
			mcp.WithString("company_name", mcp.Description("Hiring company"), mcp.Required()),
			mcp.WithString("must_have_skills", mcp.Description("Comma separated list of required skills"), mcp.Required()),
			mcp.WithNumber("years_experience", mcp.Description("Years of experience required (default 0)")),
			mcp.WithString("employment_type", mcp.Description("e.g. Full-time, Contract")),
			mcp.WithString("industry", mcp.Description("Industry of the company")),
			mcp.WithString("location", mcp.Description("Work location")),
		),
		generateJobDescription(deps),
	)

	s.AddTool(
		mcp.NewTool("rank_candidates",
			mcp.WithDescription("Analyze several resumes against one job description, flag acceptable candidates and the best match."),
			mcp.WithString("job_description", mcp.Description("Plain text of the job description"), mcp.Required()),
			mcp.WithArray("resumes", mcp.Description("Resume texts, in order"), mcp.Required()),
			mcp.WithArray("names", mcp.Description("Optional identifiers, one per resume")),
			mcp.WithNumber("minimum_score", mcp.Description("Lowest acceptable score (default 70)")),
			mcp.WithNumber("max_missing_skills", mcp.Description("Most missing skills an acceptable candidate may have (default 3)")),
			mcp.WithBoolean("generate_emails", mcp.Description("Draft acceptance and rejection emails (default false)")),
		),
		rankCandidates(deps),
	)

	return s
}

// ServeStdio runs the server on the given streams until ctx is cancelled.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

func analyzeResume(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resume, err := req.RequireString("resume")
		if err != nil {
			return toolError("resume is required"), nil
		}
		jd, err := req.RequireString("job_description")
		if err != nil {
			return toolError("job_description is required"), nil
		}

		res, err := deps.Recruiter.AnalyzeResume(ctx, resume, jd)
		if err != nil {
			return toolError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		return toolJSON(res)
	}
}

func generateJobDescription(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spec := ai.JobSpec{
			Title:           req.GetString("title", ""),
			CompanyName:     req.GetString("company_name", ""),
			MustHaveSkills:  analysis.SplitList(req.GetString("must_have_skills", "")),
			YearsExperience: req.GetInt("years_experience", 0),
			EmploymentType:  req.GetString("employment_type", ""),
			Industry:        req.GetString("industry", ""),
			Location:        req.GetString("location", ""),
		}
		if err := spec.Validate(); err != nil {
			return toolError(err.Error()), nil
		}

		text, err := deps.Recruiter.GenerateJobDescription(ctx, spec)
		if err != nil {
			return toolError(fmt.Sprintf("generation failed: %v", err)), nil
		}
		return toolText(text), nil
	}
}

func rankCandidates(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jd, err := req.RequireString("job_description")
		if err != nil {
			return toolError("job_description is required"), nil
		}
		resumes := req.GetStringSlice("resumes", nil)
		if len(resumes) == 0 {
			return toolError("resumes must contain at least one resume text"), nil
		}
		names := req.GetStringSlice("names", nil)

		th := deps.Thresholds
		th.MinimumScore = req.GetFloat("minimum_score", th.MinimumScore)
		th.MaxMissingSkills = req.GetInt("max_missing_skills", th.MaxMissingSkills)

		items := make([]batch.Item, len(resumes))
		for i, text := range resumes {
			name := fmt.Sprintf("candidate-%d", i+1)
			if i < len(names) && names[i] != "" {
				name = names[i]
			}
			items[i] = batch.TextItem(name, text)
		}

		logSink := batch.SinkFunc(func(_ context.Context, ev models.ProgressEvent) error {
			deps.Logger.Debug("rank progress", "status", ev.Status, "percentage", ev.Percentage, "index", ev.Index)
			return nil
		})
		b, err := deps.Runner.Run(ctx, batch.Request{
			BatchID:        uuid.New(),
			Direction:      models.DirectionResumes,
			Items:          items,
			Counterpart:    jd,
			Thresholds:     th,
			GenerateEmails: req.GetBool("generate_emails", false),
		}, logSink)
		if err != nil {
			return toolError(fmt.Sprintf("ranking failed: %v", err)), nil
		}
		return toolJSON(map[string]any{
			"batch_id": b.ID,
			"results":  b.Items,
		})
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return toolText(string(data)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
