// Package handler implements the HTTP endpoints of the recruitment API.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/api/response"
)

// writeAIError maps completion failures to API errors.
func writeAIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"No model or API key could complete the request", nil)
	case errors.Is(err, ai.ErrInferenceTimeout), errors.Is(err, context.DeadlineExceeded):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"The AI request took too long and was cancelled", nil)
	case errors.Is(err, context.Canceled):
		slog.Info("request cancelled by client", "path", r.URL.Path)
	default:
		slog.Error("unexpected handler error", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
