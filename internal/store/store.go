package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/luminancehdr/hdr-batch/internal/models"
)

// Store provides access to all storage repositories.
type Store struct {
	db      *sql.DB
	batches *BatchStore
	items   *ItemStore
}

func NewStore(db *sql.DB) *Store {
	qi := newLoggingInterceptor(db)
	return &Store{
		db:      db,
		batches: NewBatchStore(qi),
		items:   NewItemStore(qi),
	}
}

func (s *Store) Batches() *BatchStore {
	return s.batches
}

func (s *Store) Items() *ItemStore {
	return s.items
}

// SaveBatch writes a finished batch and its item results in one transaction.
func (s *Store) SaveBatch(ctx context.Context, rec models.BatchRecord, items []models.ItemResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qi := newLoggingInterceptor(tx)
	if err := NewBatchStore(qi).Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert batch %s: %w", rec.ID, err)
	}
	if err := NewItemStore(qi).Insert(ctx, items...); err != nil {
		return fmt.Errorf("insert items of batch %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
