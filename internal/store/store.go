package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid batch status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateBatch(ctx context.Context, b *models.Batch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*models.Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]*models.Batch, int, error)
	UpdateBatchStatus(ctx context.Context, id uuid.UUID, status string, opts ...BatchUpdateOption) error
	SaveBatchItems(ctx context.Context, batchID uuid.UUID, items []models.BatchItem) error
}

type BatchFilter struct {
	Status    string
	Direction models.Direction
	Page      int
	Limit     int
}

// normalize applies the paging defaults: 20 per page, at most 100.
func (f BatchFilter) normalize() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

type batchUpdateParams struct {
	ErrorMessage *string
	CompletedAt  *time.Time
}

type BatchUpdateOption func(*batchUpdateParams)

func WithErrorMessage(msg string) BatchUpdateOption {
	return func(p *batchUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithCompletedAt(t time.Time) BatchUpdateOption {
	return func(p *batchUpdateParams) {
		p.CompletedAt = &t
	}
}

var validTransitions = map[string][]string{
	models.BatchStatusPending: {models.BatchStatusRunning, models.BatchStatusFailed},
	models.BatchStatusRunning: {models.BatchStatusCompleted, models.BatchStatusFailed},
}

func canTransition(from, to string) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}
