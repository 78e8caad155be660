package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/internal/api/response"
	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/kiranshivaraju/recruitai/internal/export"
	"github.com/kiranshivaraju/recruitai/internal/store"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// BatchesHandler serves batch history, live progress and report downloads.
type BatchesHandler struct {
	store store.Store
	cache cache.Cache
}

// NewBatchesHandler creates a BatchesHandler. A nil cache disables live progress.
func NewBatchesHandler(s store.Store, c cache.Cache) *BatchesHandler {
	if c == nil {
		c = cache.NopCache{}
	}
	return &BatchesHandler{store: s, cache: c}
}

// List handles GET /api/v1/batches?status=&direction=&page=&limit=.
func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "page must be a positive integer", nil)
		return
	}
	limit, err := queryInt(q.Get("limit"), defaultPageLimit)
	if err != nil || limit < 1 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := store.BatchFilter{Status: q.Get("status"), Page: page, Limit: limit}
	if d := q.Get("direction"); d != "" {
		filter.Direction = models.Direction(d)
		if !filter.Direction.Valid() {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "direction must be resumes or jobs", nil)
			return
		}
	}

	batches, total, err := h.store.ListBatches(r.Context(), filter)
	if err != nil {
		slog.Error("listing batches", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list batches", nil)
		return
	}
	if batches == nil {
		batches = []*models.Batch{}
	}
	response.Collection(w, batches, response.NewPaginationMeta(page, limit, total))
}

// Get handles GET /api/v1/batches/{batchID}. Running batches report the live
// percentage kept in the cache.
func (h *BatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	switch b.Status {
	case models.BatchStatusCompleted:
		b.Progress = 100
	case models.BatchStatusRunning, models.BatchStatusPending:
		if p, found, err := h.cache.GetBatchProgress(r.Context(), b.ID); err != nil {
			slog.Warn("reading batch progress", "batch_id", b.ID, "error", err)
		} else if found {
			b.Progress = p.Percentage
		}
	}
	response.JSON(w, b)
}

// Export handles GET /api/v1/batches/{batchID}/export as an xlsx download.
func (h *BatchesHandler) Export(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	if b.Status != models.BatchStatusCompleted {
		response.Error(w, http.StatusConflict, "BATCH_NOT_COMPLETE",
			"Only completed batches can be exported", map[string]string{"status": b.Status})
		return
	}
	err := response.Attachment(w, export.ContentType, export.Filename(b), func(out io.Writer) error {
		return export.WriteBatch(out, b)
	})
	if err != nil {
		slog.Error("exporting batch", "batch_id", b.ID, "error", err)
	}
}

func (h *BatchesHandler) load(w http.ResponseWriter, r *http.Request) (*models.Batch, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "batch ID must be a UUID", nil)
		return nil, false
	}
	b, err := h.store.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Batch not found", nil)
			return nil, false
		}
		slog.Error("loading batch", "batch_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load batch", nil)
		return nil, false
	}
	return b, true
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
