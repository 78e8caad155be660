package models

// AnalysisResult is the typed outcome of one resume/job comparison.
// MissingSkills is never nil so it always serializes as a JSON array.
type AnalysisResult struct {
	Score         float64  `json:"score"`
	MissingSkills []string `json:"missing_skills"`
	Remarks       string   `json:"remarks"`
}
