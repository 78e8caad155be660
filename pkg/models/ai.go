// Package models contains shared data models used across the RecruitAI codebase.
package models

import "context"

// CompletionBackend is the transport-level contract for one completion attempt.
// Implementations classify their failures into ai.ProviderError kinds at the boundary;
// callers never match on error text.
type CompletionBackend interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the backend identifier (e.g., "groq", "gemini").
	Name() string
}

// Message roles understood by every backend.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single (model, credential) attempt.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	APIKey      string
}

// CompletionProfile is the generation configuration for one completion type.
type CompletionProfile struct {
	Temperature   float64 `mapstructure:"temperature"    json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"     json:"max_tokens"`
	SystemMessage string  `mapstructure:"system_message" json:"system_message"`
}
