package models

import "github.com/google/uuid"

// Event types carried on the progress stream.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressEvent is one message of a batch progress stream.
type ProgressEvent struct {
	Type       string      `json:"type"`
	Percentage int         `json:"percentage"`
	Status     string      `json:"status"`
	BatchID    uuid.UUID   `json:"batch_id"`
	Index      int         `json:"index"`
	Total      int         `json:"total"`
	Item       *BatchItem  `json:"item,omitempty"`
	Message    string      `json:"message,omitempty"`
	Results    []BatchItem `json:"results,omitempty"`
}
