package services

import (
	"context"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/store"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

type HistoryService struct {
	store *store.Store
}

func NewHistoryService(st *store.Store) *HistoryService {
	return &HistoryService{store: st}
}

type HistoryListParams struct {
	BatchIDs []string
	Outcomes []string
	Input    string
	Limit    uint64
	Offset   uint64
}

type HistoryListResult struct {
	Items []models.ItemResult
	Total int
}

func (s *HistoryService) List(ctx context.Context, params HistoryListParams) (*HistoryListResult, error) {
	for _, o := range params.Outcomes {
		switch models.Outcome(o) {
		case models.OutcomeSucceeded, models.OutcomeFailed, models.OutcomeCancelled:
		default:
			return nil, srvErrors.NewConfigurationError("invalid outcome %q", o)
		}
	}

	opts := s.buildListOptions(params)
	opts = append(opts, store.WithDefaultSort())
	if params.Limit > 0 {
		opts = append(opts, store.WithLimit(params.Limit))
	}
	if params.Offset > 0 {
		opts = append(opts, store.WithOffset(params.Offset))
	}

	items, err := s.store.Items().List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// Get total count without pagination
	total, err := s.store.Items().Count(ctx, s.buildListOptions(params)...)
	if err != nil {
		return nil, err
	}

	return &HistoryListResult{
		Items: items,
		Total: total,
	}, nil
}

func (s *HistoryService) Batches(ctx context.Context, limit uint64) ([]models.BatchRecord, error) {
	var opts []store.ListOption
	if limit > 0 {
		opts = append(opts, store.WithLimit(limit))
	}
	return s.store.Batches().List(ctx, opts...)
}

func (s *HistoryService) Batch(ctx context.Context, id string) (*models.BatchRecord, error) {
	return s.store.Batches().Get(ctx, id)
}

func (s *HistoryService) buildListOptions(params HistoryListParams) []store.ListOption {
	var opts []store.ListOption

	if len(params.BatchIDs) > 0 {
		opts = append(opts, store.ByBatch(params.BatchIDs...))
	}
	if len(params.Outcomes) > 0 {
		opts = append(opts, store.ByOutcome(params.Outcomes...))
	}
	if params.Input != "" {
		opts = append(opts, store.ByInput(params.Input))
	}

	return opts
}
