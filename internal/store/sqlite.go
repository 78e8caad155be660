package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements the Store interface on a local SQLite file. It backs
// the CLI and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies pragmas.
// Pass ":memory:" for an in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection avoids "database is locked" under concurrent batches.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// NewSQLiteStore wraps an open database. Run RunSQLiteMigrations first.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, b *models.Batch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (`+batchColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), string(b.Direction), b.Status, b.Total, b.MinimumScore, b.MaxMissingSkills,
		b.ErrorMessage, b.StartedAt, b.CompletedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	b, err := scanSQLiteBatch(s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, score, missing_skills, remarks, error, acceptable, is_best_match,
		        email_type, email, email_error
		 FROM batch_items WHERE batch_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("get batch items: %w", err)
	}
	defer rows.Close()

	b.Items = []models.BatchItem{}
	for rows.Next() {
		var it models.BatchItem
		var skills, emailType string
		if err := rows.Scan(&it.Identifier, &it.Analysis.Score, &skills, &it.Analysis.Remarks,
			&it.Error, &it.Acceptable, &it.IsBestMatch, &emailType, &it.Email, &it.EmailError); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		it.Analysis.MissingSkills = []string{}
		if err := json.Unmarshal([]byte(skills), &it.Analysis.MissingSkills); err != nil {
			return nil, fmt.Errorf("decode missing skills: %w", err)
		}
		it.EmailType = models.EmailType(emailType)
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]*models.Batch, int, error) {
	conditions := []string{"1 = 1"}
	args := []any{}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Direction != "" {
		conditions = append(conditions, "direction = ?")
		args = append(args, string(filter.Direction))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM batches WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	limit, offset := filter.normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := []*models.Batch{}
	for rows.Next() {
		b, err := scanSQLiteBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, total, rows.Err()
}

func (s *SQLiteStore) UpdateBatchStatus(ctx context.Context, id uuid.UUID, status string, opts ...BatchUpdateOption) error {
	params := &batchUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM batches WHERE id = ?`, id.String()).Scan(&currentStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get batch status: %w", err)
	}
	if !canTransition(currentStatus, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE batches SET status = ?, updated_at = ?`
	args := []any{status, now}
	if status == models.BatchStatusRunning {
		query += ", started_at = ?"
		args = append(args, now)
	}
	if status == models.BatchStatusCompleted || status == models.BatchStatusFailed {
		completed := now
		if params.CompletedAt != nil {
			completed = *params.CompletedAt
		}
		query += ", completed_at = ?"
		args = append(args, completed)
	}
	if params.ErrorMessage != nil {
		query += ", error_message = ?"
		args = append(args, *params.ErrorMessage)
	}
	query += " WHERE id = ?"
	args = append(args, id.String())

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveBatchItems(ctx context.Context, batchID uuid.UUID, items []models.BatchItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save batch items: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_items WHERE batch_id = ?`, batchID.String()); err != nil {
		return fmt.Errorf("clear batch items: %w", err)
	}
	for i, it := range items {
		skills := it.Analysis.MissingSkills
		if skills == nil {
			skills = []string{}
		}
		raw, err := json.Marshal(skills)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_items (batch_id, position, identifier, score, missing_skills, remarks, error,
			                          acceptable, is_best_match, email_type, email, email_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID.String(), i, it.Identifier, it.Analysis.Score, string(raw), it.Analysis.Remarks, it.Error,
			it.Acceptable, it.IsBestMatch, string(it.EmailType), it.Email, it.EmailError); err != nil {
			return fmt.Errorf("insert batch item %d: %w", i, err)
		}
	}
	return tx.Commit()
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBatch(row sqlScanner) (*models.Batch, error) {
	var b models.Batch
	var id, direction string
	var errMsg sql.NullString
	var started, completed sql.NullTime
	if err := row.Scan(&id, &direction, &b.Status, &b.Total, &b.MinimumScore, &b.MaxMissingSkills,
		&errMsg, &started, &completed, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse batch id: %w", err)
	}
	b.ID = parsed
	b.Direction = models.Direction(direction)
	if errMsg.Valid {
		b.ErrorMessage = &errMsg.String
	}
	if started.Valid {
		t := started.Time
		b.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

func isSQLiteConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

var _ Store = (*SQLiteStore)(nil)
