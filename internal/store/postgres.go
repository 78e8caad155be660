package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Batches ---

const batchColumns = `id, direction, status, total, minimum_score, max_missing_skills,
	error_message, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) CreateBatch(ctx context.Context, b *models.Batch) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, string(b.Direction), b.Status, b.Total, b.MinimumScore, b.MaxMissingSkills,
		b.ErrorMessage, b.StartedAt, b.CompletedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	b, err := scanBatch(s.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT identifier, score, missing_skills, remarks, error, acceptable, is_best_match,
		        email_type, email, email_error
		 FROM batch_items WHERE batch_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get batch items: %w", err)
	}
	defer rows.Close()

	b.Items = []models.BatchItem{}
	for rows.Next() {
		var it models.BatchItem
		var emailType string
		if err := rows.Scan(&it.Identifier, &it.Analysis.Score, &it.Analysis.MissingSkills, &it.Analysis.Remarks,
			&it.Error, &it.Acceptable, &it.IsBestMatch, &emailType, &it.Email, &it.EmailError); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		it.EmailType = models.EmailType(emailType)
		if it.Analysis.MissingSkills == nil {
			it.Analysis.MissingSkills = []string{}
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}

func (s *PostgresStore) ListBatches(ctx context.Context, filter BatchFilter) ([]*models.Batch, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Direction != "" {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argIdx))
		args = append(args, string(filter.Direction))
		argIdx++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM batches WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	limit, offset := filter.normalize()
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM batches WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		batchColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := []*models.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, total, rows.Err()
}

func (s *PostgresStore) UpdateBatchStatus(ctx context.Context, id uuid.UUID, status string, opts ...BatchUpdateOption) error {
	params := &batchUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM batches WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get batch status: %w", err)
	}
	if !canTransition(currentStatus, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE batches SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.BatchStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.BatchStatusCompleted || status == models.BatchStatusFailed {
		completed := now
		if params.CompletedAt != nil {
			completed = *params.CompletedAt
		}
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, completed)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
	}
	query += " WHERE id = $1"

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	return nil
}

// SaveBatchItems replaces the stored items of a batch in one transaction.
func (s *PostgresStore) SaveBatchItems(ctx context.Context, batchID uuid.UUID, items []models.BatchItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save batch items: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM batch_items WHERE batch_id = $1`, batchID); err != nil {
		return fmt.Errorf("clear batch items: %w", err)
	}

	b := &pgx.Batch{}
	for i, it := range items {
		skills := it.Analysis.MissingSkills
		if skills == nil {
			skills = []string{}
		}
		b.Queue(
			`INSERT INTO batch_items (batch_id, position, identifier, score, missing_skills, remarks, error,
			                          acceptable, is_best_match, email_type, email, email_error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			batchID, i, it.Identifier, it.Analysis.Score, skills, it.Analysis.Remarks, it.Error,
			it.Acceptable, it.IsBestMatch, string(it.EmailType), it.Email, it.EmailError)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert batch items: %w", err)
	}
	return tx.Commit(ctx)
}

func scanBatch(row pgx.Row) (*models.Batch, error) {
	var b models.Batch
	var direction string
	if err := row.Scan(&b.ID, &direction, &b.Status, &b.Total, &b.MinimumScore, &b.MaxMissingSkills,
		&b.ErrorMessage, &b.StartedAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Direction = models.Direction(direction)
	return &b, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
