package handler

import (
	"net/http"

	"github.com/kiranshivaraju/recruitai/internal/api/response"
	"github.com/kiranshivaraju/recruitai/internal/keys"
)

// KeyPool is the part of the credential pool exposed over HTTP.
type KeyPool interface {
	Snapshot() []keys.CredentialStatus
	Reload() bool
}

// NewListKeysHandler returns an http.HandlerFunc for GET /api/v1/keys.
// Secrets are redacted.
func NewListKeysHandler(pool KeyPool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, pool.Snapshot())
	}
}

// NewReloadKeysHandler returns an http.HandlerFunc for POST /api/v1/keys/reload.
// A failed reload keeps the previous credentials.
func NewReloadKeysHandler(pool KeyPool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !pool.Reload() {
			response.Error(w, http.StatusServiceUnavailable, "KEYS_RELOAD_FAILED",
				"No credentials could be loaded; the previous set is still in use", nil)
			return
		}
		response.JSON(w, map[string]any{
			"reloaded": true,
			"keys":     pool.Snapshot(),
		})
	}
}
