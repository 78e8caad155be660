package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/internal/api/response"
	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// BatchRunner defines the interface the analysis handlers depend on.
type BatchRunner interface {
	Validate(req batch.Request) error
	Run(ctx context.Context, req batch.Request, sink batch.Sink) (*models.Batch, error)
	MaxItems() int
}

// AnalyzeHandler serves the resume and job analysis endpoints, both as a
// single JSON response and as an event stream.
type AnalyzeHandler struct {
	runner   BatchRunner
	defaults analysis.Thresholds
}

// NewAnalyzeHandler creates an AnalyzeHandler. defaults apply when a request
// omits minimum_score or max_missing_skills.
func NewAnalyzeHandler(runner BatchRunner, defaults analysis.Thresholds) *AnalyzeHandler {
	return &AnalyzeHandler{runner: runner, defaults: defaults}
}

type batchResponse struct {
	BatchID uuid.UUID          `json:"batch_id"`
	Status  string             `json:"status"`
	Results []models.BatchItem `json:"results"`
}

// Resumes handles POST /api/v1/resumes/analyze[/stream]: many resumes against
// one job_description.
func (h *AnalyzeHandler) Resumes(stream bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.resumesRequest(w, r)
		if !ok {
			return
		}
		h.serve(w, r, req, stream)
	}
}

// Jobs handles POST /api/v1/jobs/analyze[/stream]: one resume against many
// job postings uploaded as files under "jobs" or pasted under "job_texts".
func (h *AnalyzeHandler) Jobs(stream bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.jobsRequest(w, r)
		if !ok {
			return
		}
		h.serve(w, r, req, stream)
	}
}

func (h *AnalyzeHandler) resumesRequest(w http.ResponseWriter, r *http.Request) (batch.Request, bool) {
	if err := parseMultipart(w, r); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A multipart form is required", nil)
		return batch.Request{}, false
	}
	th, problems := parseThresholds(r, h.defaults)
	if problems != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid thresholds", problems)
		return batch.Request{}, false
	}

	files := formFiles(r, "resumes")
	if !h.checkFiles(w, files, "resume") {
		return batch.Request{}, false
	}

	return batch.Request{
		BatchID:        uuid.New(),
		Direction:      models.DirectionResumes,
		Items:          fileItems(files),
		Counterpart:    strings.TrimSpace(r.FormValue("job_description")),
		Thresholds:     th,
		GenerateEmails: true,
	}, true
}

func (h *AnalyzeHandler) jobsRequest(w http.ResponseWriter, r *http.Request) (batch.Request, bool) {
	if err := parseMultipart(w, r); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A multipart form is required", nil)
		return batch.Request{}, false
	}
	th, problems := parseThresholds(r, h.defaults)
	if problems != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid thresholds", problems)
		return batch.Request{}, false
	}

	resumes := formFiles(r, "resume")
	if len(resumes) != 1 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Exactly one resume file is required", nil)
		return batch.Request{}, false
	}
	if bad := unsupportedFiles(resumes); len(bad) > 0 {
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT",
			"Resume must be PDF, DOC, DOCX or TXT", map[string][]string{"files": bad})
		return batch.Request{}, false
	}
	resumeText, err := extractFile(resumes[0])
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", err.Error(), nil)
		return batch.Request{}, false
	}

	files := formFiles(r, "jobs")
	items := fileItems(files)
	for i, text := range r.MultipartForm.Value["job_texts"] {
		if strings.TrimSpace(text) != "" {
			items = append(items, batch.TextItem(fmt.Sprintf("job-%d", i+1), text))
		}
	}
	if bad := unsupportedFiles(files); len(bad) > 0 {
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT",
			"Job postings must be PDF, DOC, DOCX or TXT", map[string][]string{"files": bad})
		return batch.Request{}, false
	}
	if !h.checkCount(w, len(items), "job posting") {
		return batch.Request{}, false
	}

	return batch.Request{
		BatchID:        uuid.New(),
		Direction:      models.DirectionJobs,
		Items:          items,
		Counterpart:    resumeText,
		CompanyName:    strings.TrimSpace(r.FormValue("company_name")),
		Thresholds:     th,
		GenerateEmails: true,
	}, true
}

// checkFiles validates count and extensions before any work starts.
func (h *AnalyzeHandler) checkFiles(w http.ResponseWriter, files []*multipart.FileHeader, noun string) bool {
	if !h.checkCount(w, len(files), noun) {
		return false
	}
	if bad := unsupportedFiles(files); len(bad) > 0 {
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT",
			"Files must be PDF, DOC, DOCX or TXT", map[string][]string{"files": bad})
		return false
	}
	return true
}

func (h *AnalyzeHandler) checkCount(w http.ResponseWriter, n int, noun string) bool {
	switch {
	case n == 0:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("At least one %s is required", noun), nil)
		return false
	case n > h.runner.MaxItems():
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("At most %d %ss can be analyzed at once", h.runner.MaxItems(), noun), nil)
		return false
	}
	return true
}

func (h *AnalyzeHandler) serve(w http.ResponseWriter, r *http.Request, req batch.Request, stream bool) {
	if stream {
		h.stream(w, r, req)
		return
	}

	if err := h.runner.Validate(req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	discard := batch.SinkFunc(func(context.Context, models.ProgressEvent) error { return nil })
	b, err := h.runner.Run(r.Context(), req, discard)
	if err != nil {
		if errors.Is(err, batch.ErrInvalidBatch) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		writeAIError(w, r, err)
		return
	}
	response.JSON(w, batchResponse{BatchID: b.ID, Status: b.Status, Results: b.Items})
}

// stream runs the batch with the response as the event sink. Validation
// failures arrive as an error event inside the stream.
func (h *AnalyzeHandler) stream(w http.ResponseWriter, r *http.Request, req batch.Request) {
	sink := newEventStream(w)
	if _, err := h.runner.Run(r.Context(), req, sink); err != nil {
		slog.Warn("batch stream ended early",
			"batch_id", req.BatchID, "direction", req.Direction, "error", err)
	}
}

// fileItems defers extraction of each upload to its turn in the batch.
func fileItems(files []*multipart.FileHeader) []batch.Item {
	items := make([]batch.Item, 0, len(files))
	for _, fh := range files {
		items = append(items, batch.Item{
			Identifier: fh.Filename,
			Load: func(context.Context) (string, error) {
				return extractFile(fh)
			},
		})
	}
	return items
}
