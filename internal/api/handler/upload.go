package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/internal/extract"
)

// maxFormMemory is the part of a multipart body kept in memory; larger
// uploads spill to temporary files.
const maxFormMemory = 32 << 20

// maxRequestBytes bounds a whole multipart request.
const maxRequestBytes = 12 * extract.MaxFileSize

var errBadForm = errors.New("invalid form")

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return fmt.Errorf("%w: %v", errBadForm, err)
	}
	return nil
}

// formFiles returns the uploads under field, accepting the "field[]" spelling
// browsers use for multi-file inputs.
func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, r.MultipartForm.File[field]...)
	return append(files, r.MultipartForm.File[field+"[]"]...)
}

// unsupportedFiles lists uploads whose extension cannot be extracted.
func unsupportedFiles(files []*multipart.FileHeader) []string {
	var bad []string
	for _, fh := range files {
		if !extract.Supported(fh.Filename) {
			bad = append(bad, fh.Filename)
		}
	}
	return bad
}

func extractFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return extract.Text(fh.Filename, f)
}

// parseThresholds reads minimum_score and max_missing_skills, falling back to def.
func parseThresholds(r *http.Request, def analysis.Thresholds) (analysis.Thresholds, map[string]string) {
	th := def
	problems := map[string]string{}

	if v := strings.TrimSpace(r.FormValue("minimum_score")); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			problems["minimum_score"] = "must be a number"
		case score < 0 || score > 100:
			problems["minimum_score"] = "must be between 0 and 100"
		default:
			th.MinimumScore = score
		}
	}
	if v := strings.TrimSpace(r.FormValue("max_missing_skills")); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			problems["max_missing_skills"] = "must be an integer"
		case n < 0:
			problems["max_missing_skills"] = "must not be negative"
		default:
			th.MaxMissingSkills = n
		}
	}
	if len(problems) == 0 {
		return th, nil
	}
	return th, problems
}
