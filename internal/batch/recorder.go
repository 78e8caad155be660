package batch

import (
	"context"
	"errors"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/kiranshivaraju/recruitai/internal/store"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// Recorder observes a batch run. Failures are logged by the Runner and never
// stop the run.
type Recorder interface {
	Started(ctx context.Context, b *models.Batch) error
	Progressed(ctx context.Context, ev models.ProgressEvent) error
	Finished(ctx context.Context, b *models.Batch) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Started(context.Context, *models.Batch) error           { return nil }
func (NopRecorder) Progressed(context.Context, models.ProgressEvent) error { return nil }
func (NopRecorder) Finished(context.Context, *models.Batch) error          { return nil }

// progressTTL bounds how long live progress outlives an abandoned run.
const progressTTL = time.Hour

// StoreRecorder persists the batch lifecycle to a Store and mirrors live
// progress into the Cache.
type StoreRecorder struct {
	store store.Store
	cache cache.Cache
}

// NewStoreRecorder creates a StoreRecorder. A nil cache disables live progress.
func NewStoreRecorder(st store.Store, c cache.Cache) *StoreRecorder {
	if c == nil {
		c = cache.NopCache{}
	}
	return &StoreRecorder{store: st, cache: c}
}

func (r *StoreRecorder) Started(ctx context.Context, b *models.Batch) error {
	return r.store.CreateBatch(ctx, b)
}

func (r *StoreRecorder) Progressed(ctx context.Context, ev models.ProgressEvent) error {
	return r.cache.SetBatchProgress(ctx, ev.BatchID, cache.BatchProgress{
		Percentage: ev.Percentage,
		Status:     ev.Status,
		Index:      ev.Index,
		Total:      ev.Total,
	}, progressTTL)
}

func (r *StoreRecorder) Finished(ctx context.Context, b *models.Batch) error {
	var errs []error
	switch b.Status {
	case models.BatchStatusCompleted:
		if err := r.store.SaveBatchItems(ctx, b.ID, b.Items); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, r.store.UpdateBatchStatus(ctx, b.ID, b.Status, store.WithCompletedAt(completedAt(b))))
	default:
		opts := []store.BatchUpdateOption{}
		if b.ErrorMessage != nil {
			opts = append(opts, store.WithErrorMessage(*b.ErrorMessage))
		}
		errs = append(errs, r.store.UpdateBatchStatus(ctx, b.ID, b.Status, opts...))
	}
	errs = append(errs, r.cache.SetBatchProgress(ctx, b.ID, cache.BatchProgress{
		Percentage: b.Progress,
		Status:     b.Status,
		Index:      b.Total,
		Total:      b.Total,
	}, progressTTL))
	return errors.Join(errs...)
}

func completedAt(b *models.Batch) time.Time {
	if b.CompletedAt != nil {
		return *b.CompletedAt
	}
	return time.Now().UTC()
}
