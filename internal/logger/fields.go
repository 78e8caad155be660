package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log key for the completion backend name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log key for the model identifier.
	FieldModel = "ai_model"
)

// ProviderAttrs returns slog key/value pairs for the backend and model,
// skipping empty values.
func ProviderAttrs(provider, model string) []any {
	attrs := make([]any, 0, 4)
	if p := strings.TrimSpace(provider); p != "" {
		attrs = append(attrs, FieldProvider, p)
	}
	if m := strings.TrimSpace(model); m != "" {
		attrs = append(attrs, FieldModel, m)
	}
	return attrs
}

// CommonFields is the zap form of ProviderAttrs.
func CommonFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if p := strings.TrimSpace(provider); p != "" {
		fields = append(fields, zap.String(FieldProvider, p))
	}
	if m := strings.TrimSpace(model); m != "" {
		fields = append(fields, zap.String(FieldModel, m))
	}
	return fields
}
