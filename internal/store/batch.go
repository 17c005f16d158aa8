package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/luminancehdr/hdr-batch/internal/models"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

// BatchStore persists one row per finished batch.
type BatchStore struct {
	db QueryInterceptor
}

func NewBatchStore(db QueryInterceptor) *BatchStore {
	return &BatchStore{db: db}
}

func (s *BatchStore) Insert(ctx context.Context, b models.BatchRecord) error {
	_, err := s.db.ExecContext(ctx, queryInsertBatch,
		b.ID, string(b.Kind), b.Total, b.Succeeded, b.Failed, b.Cancelled, b.NotStarted, b.StartedAt, b.FinishedAt)
	return err
}

func (s *BatchStore) Get(ctx context.Context, id string) (*models.BatchRecord, error) {
	row := s.db.QueryRowContext(ctx, queryGetBatch, id)

	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewBatchNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns batches, most recent first unless an option sorts otherwise.
func (s *BatchStore) List(ctx context.Context, opts ...ListOption) ([]models.BatchRecord, error) {
	builder := sq.Select(
		"id", "kind", "total", "succeeded", "failed", "cancelled", "not_started", "started_at", "finished_at",
	).From("batches").OrderBy("started_at DESC", "id")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []models.BatchRecord
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*models.BatchRecord, error) {
	var (
		b    models.BatchRecord
		kind string
	)
	err := row.Scan(&b.ID, &kind, &b.Total, &b.Succeeded, &b.Failed, &b.Cancelled, &b.NotStarted, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		return nil, err
	}
	b.Kind = models.BatchKind(kind)
	return &b, nil
}
