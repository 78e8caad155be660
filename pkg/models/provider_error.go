package models

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed completion attempt.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTimeout
	KindRateLimit
	KindAuth
	KindModelUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	case KindModelUnavailable:
		return "model_unavailable"
	default:
		return "other"
	}
}

// ProviderError is returned by every CompletionBackend when an attempt fails.
// The backend decides Kind once, from status codes or the provider's error payload.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Model      string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (%s, HTTP %d): %v", e.Provider, e.Model, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s (%s): %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyMessage maps a provider error description onto an ErrorKind.
// Backends call it only when no status code or structured error code decides.
func ClassifyMessage(msg string) ErrorKind {
	m := strings.ToLower(msg)
	switch {
	case containsAny(m, "quota exceeded", "rate limit", "rate_limit", "too many requests"):
		return KindRateLimit
	case containsAny(m, "invalid api key", "invalid_api_key", "api key not valid", "authorization", "authenticate", "unauthorized"):
		return KindAuth
	case containsAny(m, "timeout", "timed out", "deadline exceeded"):
		return KindTimeout
	case strings.Contains(m, "model"):
		return KindModelUnavailable
	default:
		return KindOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
