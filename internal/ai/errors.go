package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/recruitai/pkg/models"
)

var (
	ErrProviderUnavailable   = errors.New("ai provider unavailable")
	ErrInferenceTimeout      = errors.New("ai inference timeout")
	ErrInvalidResponse       = errors.New("ai provider returned invalid response")
	ErrUnknownCompletionType = errors.New("unknown completion type")
	ErrInvalidOverrides      = errors.New("invalid completion overrides")
)

// ExhaustionError is returned when every model and credential combination failed.
type ExhaustionError struct {
	CompletionType string
	Attempts       int
	Last           error
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("all models failed for %s after %d attempts: %v", e.CompletionType, e.Attempts, e.Last)
}

func (e *ExhaustionError) Unwrap() error { return e.Last }

// Is lets callers match exhaustion as ErrProviderUnavailable.
func (e *ExhaustionError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// KindOf returns the classification of a backend error. Errors that did not
// come through a backend are KindOther, except deadlines which are timeouts.
func KindOf(err error) models.ErrorKind {
	var pe *models.ProviderError
	switch {
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrInferenceTimeout):
		return models.KindTimeout
	default:
		return models.KindOther
	}
}
