// Package batch drives analysis, ranking and email generation over an ordered
// batch of items and reports progress as a stream of events.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// ErrInvalidBatch is returned, and reported as a batch-level error event, when
// a request fails validation.
var ErrInvalidBatch = errors.New("invalid batch")

// ErrDeadlineExceeded marks items and emails cut short by the batch deadline.
var ErrDeadlineExceeded = errors.New("batch deadline exceeded")

const (
	DefaultMaxItems = 10
	DefaultPace     = 100 * time.Millisecond
	DefaultDeadline = 10 * time.Minute
)

// Sink receives events in order. An error means the consumer is gone and
// stops the run.
type Sink interface {
	Emit(ctx context.Context, ev models.ProgressEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev models.ProgressEvent) error

func (f SinkFunc) Emit(ctx context.Context, ev models.ProgressEvent) error { return f(ctx, ev) }

// Evaluator produces the analysis and follow-up email for one item.
type Evaluator interface {
	Analyze(ctx context.Context, dir models.Direction, document, counterpart, companyName string) (models.AnalysisResult, error)
	Email(ctx context.Context, item models.BatchItem, document, counterpart, companyName string) (string, error)
}

// Item is one input of a batch. Load returns the item's text and is called
// when the item's turn comes, so extraction failures stay per-item.
type Item struct {
	Identifier string
	Load       func(ctx context.Context) (string, error)
}

// TextItem wraps already extracted text.
func TextItem(identifier, text string) Item {
	return Item{Identifier: identifier, Load: func(context.Context) (string, error) { return text, nil }}
}

// Request describes one batch run. Counterpart is the job description for
// DirectionResumes and the candidate resume for DirectionJobs.
type Request struct {
	BatchID        uuid.UUID
	Direction      models.Direction
	Items          []Item
	Counterpart    string
	CompanyName    string
	Thresholds     analysis.Thresholds
	GenerateEmails bool
}

// Runner processes batches sequentially, one item at a time.
type Runner struct {
	eval     Evaluator
	recorder Recorder
	maxItems int
	pace     time.Duration
	deadline time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithPace sets the delay after each progress event. Zero disables pacing.
func WithPace(d time.Duration) Option { return func(r *Runner) { r.pace = d } }

// WithDeadline bounds a whole run. Zero disables the deadline.
func WithDeadline(d time.Duration) Option { return func(r *Runner) { r.deadline = d } }

// WithMaxItems sets the largest accepted batch.
func WithMaxItems(n int) Option { return func(r *Runner) { r.maxItems = n } }

// WithRecorder persists batch lifecycle and live progress.
func WithRecorder(rec Recorder) Option { return func(r *Runner) { r.recorder = rec } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// NewRunner creates a Runner with the default limits.
func NewRunner(eval Evaluator, opts ...Option) *Runner {
	r := &Runner{
		eval:     eval,
		recorder: NopRecorder{},
		maxItems: DefaultMaxItems,
		pace:     DefaultPace,
		deadline: DefaultDeadline,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxItems returns the configured batch size limit.
func (r *Runner) MaxItems() int { return r.maxItems }

// Validate checks a request without running it.
func (r *Runner) Validate(req Request) error {
	switch {
	case !req.Direction.Valid():
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidBatch, req.Direction)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: no items", ErrInvalidBatch)
	case len(req.Items) > r.maxItems:
		return fmt.Errorf("%w: %d items exceeds the limit of %d", ErrInvalidBatch, len(req.Items), r.maxItems)
	case strings.TrimSpace(req.Counterpart) == "":
		return fmt.Errorf("%w: %s text is required", ErrInvalidBatch, counterpartName(req.Direction))
	}
	return nil
}

// Run processes req and streams events to sink. It always ends with exactly
// one complete event unless validation fails, ctx is cancelled or the sink
// fails; in those cases the error is returned and no complete event is sent.
// The batch deadline only bounds evaluator calls: items and emails it cuts
// short are degraded with ErrDeadlineExceeded and the batch still completes.
func (r *Runner) Run(ctx context.Context, req Request, sink Sink) (*models.Batch, error) {
	if req.BatchID == uuid.Nil {
		req.BatchID = uuid.New()
	}
	if err := r.Validate(req); err != nil {
		_ = sink.Emit(ctx, models.ProgressEvent{
			Type:    models.EventError,
			Status:  StatusError,
			BatchID: req.BatchID,
			Total:   len(req.Items),
			Message: err.Error(),
		})
		return nil, err
	}

	work := ctx
	if r.deadline > 0 {
		var cancel context.CancelFunc
		work, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	now := r.now()
	b := &models.Batch{
		ID:               req.BatchID,
		Direction:        req.Direction,
		Status:           models.BatchStatusRunning,
		Total:            len(req.Items),
		MinimumScore:     req.Thresholds.MinimumScore,
		MaxMissingSkills: req.Thresholds.MaxMissingSkills,
		StartedAt:        &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.record("started", r.recorder.Started(ctx, b))

	run := &run{Runner: r, req: req, batch: b, sink: sink, work: work, progress: NewProgress(len(req.Items))}
	if err := run.execute(ctx); err != nil {
		if run.finished {
			r.logger.Warn("batch completed but the complete event was not delivered", "batch_id", b.ID, "error", err)
			return b, err
		}
		r.fail(ctx, b, err)
		return b, err
	}
	return b, nil
}

func (r *Runner) fail(ctx context.Context, b *models.Batch, err error) {
	msg := err.Error()
	b.Status = models.BatchStatusFailed
	b.ErrorMessage = &msg
	r.logger.Warn("batch stopped", "batch_id", b.ID, "error", err)
	r.record("failed", r.recorder.Finished(context.WithoutCancel(ctx), b))
}

func (r *Runner) record(stage string, err error) {
	if err != nil {
		r.logger.Warn("batch recorder failed", "stage", stage, "error", err)
	}
}

// run is the state of one Run call. Events go out on the caller's context;
// work bounds the evaluator calls with the batch deadline.
type run struct {
	*Runner
	req      Request
	batch    *models.Batch
	sink     Sink
	work     context.Context
	progress Progress
	items    []models.BatchItem
	texts    []string
	finished bool
}

// expired reports whether the batch deadline, not the caller, ended work.
func (x *run) expired(ctx context.Context) bool {
	return x.work.Err() != nil && ctx.Err() == nil
}

func (x *run) execute(ctx context.Context) error {
	n := len(x.req.Items)
	x.items = make([]models.BatchItem, n)
	x.texts = make([]string, n)

	for i, in := range x.req.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := x.analyzeItem(ctx, i, in); err != nil {
			return err
		}
	}

	analysis.Rank(x.items, x.req.Thresholds, x.req.Direction)

	if x.req.GenerateEmails {
		if err := x.generateEmails(ctx); err != nil {
			return err
		}
	}

	done := x.now()
	x.batch.Items = x.items
	x.batch.Status = models.BatchStatusCompleted
	x.batch.Progress = 100
	x.batch.CompletedAt = &done
	x.batch.UpdatedAt = done
	x.record("finished", x.recorder.Finished(ctx, x.batch))
	x.finished = true

	return x.sink.Emit(ctx, models.ProgressEvent{
		Type:       models.EventComplete,
		Percentage: 100,
		Status:     StatusComplete,
		BatchID:    x.batch.ID,
		Index:      n,
		Total:      n,
		Results:    x.items,
	})
}

func (x *run) analyzeItem(ctx context.Context, i int, in Item) error {
	x.items[i] = models.BatchItem{Identifier: in.Identifier}

	if err := x.emit(ctx, StatusProcessing, x.progress.Processing(i), i); err != nil {
		return err
	}

	if x.expired(ctx) {
		return x.degrade(ctx, i, ErrDeadlineExceeded)
	}

	text, err := in.Load(x.work)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("no text could be extracted")
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if x.expired(ctx) {
			err = ErrDeadlineExceeded
		}
		return x.degrade(ctx, i, fmt.Errorf("extracting %s: %w", in.Identifier, err))
	}
	x.texts[i] = text

	if err := x.emit(ctx, StatusAnalyzing, x.progress.Analyzing(i), i); err != nil {
		return err
	}

	res, err := x.eval.Analyze(x.work, x.req.Direction, text, x.req.Counterpart, x.req.CompanyName)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if x.expired(ctx) {
			err = ErrDeadlineExceeded
		}
		return x.degrade(ctx, i, err)
	}
	if res.MissingSkills == nil {
		res.MissingSkills = []string{}
	}
	x.items[i].Analysis = res
	return x.emit(ctx, StatusAnalyzed, x.progress.Analyzed(i), i)
}

// degrade records a per-item failure and reports it at the end of the item's span.
func (x *run) degrade(ctx context.Context, i int, cause error) error {
	x.logger.Warn("batch item failed", "batch_id", x.batch.ID, "index", i, "error", cause)
	x.items[i].Error = cause.Error()
	x.items[i].Analysis = models.AnalysisResult{
		Score:         0,
		MissingSkills: []string{},
		Remarks:       "Analysis failed: " + cause.Error(),
	}
	item := x.items[i]
	return x.send(ctx, models.ProgressEvent{
		Type:       models.EventError,
		Percentage: x.progress.Analyzed(i),
		Status:     StatusError,
		BatchID:    x.batch.ID,
		Index:      i,
		Total:      len(x.items),
		Item:       &item,
		Message:    cause.Error(),
	})
}

func (x *run) generateEmails(ctx context.Context) error {
	var pending []int
	for i, it := range x.items {
		if !it.Failed() {
			pending = append(pending, i)
		}
	}

	for k, i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		it := &x.items[i]
		if it.EmailType != models.EmailNone {
			var (
				email string
				err   = ErrDeadlineExceeded
			)
			if !x.expired(ctx) {
				email, err = x.eval.Email(x.work, *it, x.texts[i], x.req.Counterpart, x.req.CompanyName)
			}
			if err != nil && x.expired(ctx) {
				err = ErrDeadlineExceeded
			}
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				x.logger.Warn("email generation failed", "batch_id", x.batch.ID, "index", i, "error", err)
				it.EmailError = err.Error()
			default:
				it.Email = email
			}
		}
		if err := x.emit(ctx, StatusGeneratingEmail, x.progress.Email(k+1, len(pending)), i); err != nil {
			return err
		}
	}
	return nil
}

// emit sends a progress event carrying a snapshot of item i.
func (x *run) emit(ctx context.Context, status string, pct, i int) error {
	item := x.items[i]
	return x.send(ctx, models.ProgressEvent{
		Type:       models.EventProgress,
		Percentage: pct,
		Status:     status,
		BatchID:    x.batch.ID,
		Index:      i,
		Total:      len(x.items),
		Item:       &item,
	})
}

func (x *run) send(ctx context.Context, ev models.ProgressEvent) error {
	if err := x.sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emitting %s event: %w", ev.Status, err)
	}
	x.batch.Progress = ev.Percentage
	x.record("progress", x.recorder.Progressed(ctx, ev))
	return pause(ctx, x.pace)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func counterpartName(dir models.Direction) string {
	if dir == models.DirectionJobs {
		return "resume"
	}
	return "job description"
}
