// Package response writes the JSON envelopes shared by every endpoint.
package response

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type envelope struct {
	Data any `json:"data"`
}

type collectionEnvelope struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func Accepted(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusAccepted, envelope{Data: data})
}

func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, collectionEnvelope{Data: data, Meta: meta})
}

// NewPaginationMeta fills HasNext from the page position.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	return PaginationMeta{Page: page, Limit: limit, Total: total, HasNext: page*limit < total}
}

// Attachment streams a file download. write is called after the headers are sent.
func Attachment(w http.ResponseWriter, contentType, filename string, write func(io.Writer) error) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	return write(w)
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
