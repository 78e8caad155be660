package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/internal/api/response"
	"github.com/kiranshivaraju/recruitai/internal/extract"
)

// JobDescriptionGenerator defines the interface the generate handler depends on.
type JobDescriptionGenerator interface {
	GenerateJobDescription(ctx context.Context, spec ai.JobSpec) (string, error)
}

type jobDescriptionRequest struct {
	Title           string `json:"title"`
	YearsExperience int    `json:"years_experience"`
	MustHaveSkills  string `json:"must_have_skills"`
	CompanyName     string `json:"company_name"`
	EmploymentType  string `json:"employment_type"`
	Industry        string `json:"industry"`
	Location        string `json:"location"`
}

type jobDescriptionResponse struct {
	JobDescription string `json:"job_description"`
	Filename       string `json:"filename,omitempty"`
}

// NewGenerateJobDescriptionHandler returns an http.HandlerFunc for
// POST /api/v1/job-descriptions/generate. It accepts JSON or form fields.
func NewGenerateJobDescriptionHandler(gen JobDescriptionGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJobDescriptionRequest(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		spec := ai.JobSpec{
			Title:           strings.TrimSpace(req.Title),
			YearsExperience: req.YearsExperience,
			MustHaveSkills:  analysis.SplitList(req.MustHaveSkills),
			CompanyName:     strings.TrimSpace(req.CompanyName),
			EmploymentType:  strings.TrimSpace(req.EmploymentType),
			Industry:        strings.TrimSpace(req.Industry),
			Location:        strings.TrimSpace(req.Location),
		}
		if err := spec.Validate(); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		text, err := gen.GenerateJobDescription(r.Context(), spec)
		if err != nil {
			if errors.Is(err, ai.ErrInvalidJobSpec) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
			writeAIError(w, r, err)
			return
		}
		response.JSON(w, jobDescriptionResponse{JobDescription: text})
	}
}

func decodeJobDescriptionRequest(r *http.Request) (jobDescriptionRequest, error) {
	var req jobDescriptionRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, errors.New("invalid form body")
		}
		req.Title = firstNonEmpty(r.FormValue("title"), r.FormValue("job_title"))
		req.MustHaveSkills = r.FormValue("must_have_skills")
		req.CompanyName = r.FormValue("company_name")
		req.EmploymentType = r.FormValue("employment_type")
		req.Industry = r.FormValue("industry")
		req.Location = r.FormValue("location")
		if v := strings.TrimSpace(r.FormValue("years_experience")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, errors.New("years_experience must be an integer")
			}
			req.YearsExperience = n
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid JSON body")
		}
	}
	return req, nil
}

// NewJobDescriptionFileHandler returns an http.HandlerFunc for
// POST /api/v1/job-descriptions/file. The upload arrives in the "file" field.
func NewJobDescriptionFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseMultipart(w, r); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A multipart form with a file is required", nil)
			return
		}
		files := formFiles(r, "file")
		if len(files) != 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Exactly one file is required", nil)
			return
		}
		fh := files[0]
		if !extract.Supported(fh.Filename) {
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT",
				"File must be PDF, DOC, DOCX or TXT", map[string]string{"file": fh.Filename})
			return
		}

		text, err := extractFile(fh)
		if err != nil {
			status, code := http.StatusBadRequest, "EXTRACTION_FAILED"
			if errors.Is(err, extract.ErrEmptyDocument) {
				status, code = http.StatusUnprocessableEntity, "EMPTY_DOCUMENT"
			}
			response.Error(w, status, code, err.Error(), nil)
			return
		}
		response.JSON(w, jobDescriptionResponse{JobDescription: text, Filename: fh.Filename})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
