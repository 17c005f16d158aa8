package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/luminancehdr/hdr-batch/internal/models"
)

// ItemStore persists the result of every dispatched item.
type ItemStore struct {
	db QueryInterceptor
}

func NewItemStore(db QueryInterceptor) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Insert(ctx context.Context, items ...models.ItemResult) error {
	for _, it := range items {
		_, err := s.db.ExecContext(ctx, queryInsertItem,
			it.BatchID, it.Index, it.InputPath, it.Settings, it.OutputPath,
			it.Outcome.Value(), it.Error, it.Duration.Milliseconds(), it.FinishedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *ItemStore) List(ctx context.Context, opts ...ListOption) ([]models.ItemResult, error) {
	builder := sq.Select(
		"batch_id", "idx", "input_path", "settings", "output_path", "outcome", "error", "duration_ms", "finished_at",
	).From("batch_items")

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

	var items []models.ItemResult
	for rows.Next() {
		var (
			it         models.ItemResult
			outcome    string
			durationMS int64
		)
		err := rows.Scan(&it.BatchID, &it.Index, &it.InputPath, &it.Settings, &it.OutputPath,
			&outcome, &it.Error, &durationMS, &it.FinishedAt)
		if err != nil {
			return nil, err
		}
		it.Outcome = models.Outcome(outcome)
		it.Duration = time.Duration(durationMS) * time.Millisecond
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *ItemStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From("batch_items")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
