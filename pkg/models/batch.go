package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BatchStatusPending   = "pending"
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
)

// Direction says which side of a comparison supplies the many items.
type Direction string

const (
	// DirectionResumes evaluates many resumes against one job description.
	DirectionResumes Direction = "resumes"
	// DirectionJobs evaluates one resume against many job postings.
	DirectionJobs Direction = "jobs"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionResumes || d == DirectionJobs
}

// EmailType is the follow-up message class decided for a ranked item.
type EmailType string

const (
	EmailAcceptance  EmailType = "acceptance"
	EmailRejection   EmailType = "rejection"
	EmailApplication EmailType = "application"
	EmailNone        EmailType = "none"
)

// BatchItem is one resume or job posting inside a batch.
// A non-empty Error marks an item that could not be analyzed; its Analysis
// then holds the degraded record and ranking skips it.
type BatchItem struct {
	Identifier  string         `json:"identifier"`
	Analysis    AnalysisResult `json:"analysis"`
	Error       string         `json:"error,omitempty"`
	Acceptable  bool           `json:"acceptable"`
	IsBestMatch bool           `json:"is_best_match"`
	EmailType   EmailType      `json:"email_type,omitempty"`
	Email       string         `json:"email,omitempty"`
	EmailError  string         `json:"email_error,omitempty"`
}

// Failed reports whether the item could not be analyzed.
func (i BatchItem) Failed() bool {
	return i.Error != ""
}

// Batch tracks one ranking run. The streaming API returns its ID in every
// event; clients can fetch or export it after completion.
type Batch struct {
	ID               uuid.UUID   `db:"id"                 json:"id"`
	Direction        Direction   `db:"direction"          json:"direction"`
	Status           string      `db:"status"             json:"status"`
	Total            int         `db:"total"              json:"total"`
	MinimumScore     float64     `db:"minimum_score"      json:"minimum_score"`
	MaxMissingSkills int         `db:"max_missing_skills" json:"max_missing_skills"`
	Progress         int         `db:"-"                  json:"progress"`
	ErrorMessage     *string     `db:"error_message"      json:"error_message,omitempty"`
	Items            []BatchItem `db:"-"                  json:"items"`
	StartedAt        *time.Time  `db:"started_at"         json:"started_at,omitempty"`
	CompletedAt      *time.Time  `db:"completed_at"       json:"completed_at,omitempty"`
	CreatedAt        time.Time   `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"         json:"updated_at"`
}
