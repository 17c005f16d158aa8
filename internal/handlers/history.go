package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/luminancehdr/hdr-batch/api/v1"
	"github.com/luminancehdr/hdr-batch/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetHistory returns recorded item results with filtering and pagination
// (GET /history)
func (h *Handler) GetHistory(c *gin.Context, params v1.GetHistoryParams) {
	page := 1
	if params.Page != nil && *params.Page > 0 {
		page = *params.Page
	}
	pageSize := defaultPageSize
	if params.PageSize != nil && *params.PageSize > 0 {
		pageSize = *params.PageSize
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}

	svcParams := services.HistoryListParams{
		Limit:  uint64(pageSize),
		Offset: uint64((page - 1) * pageSize),
	}
	if params.Batch != nil {
		svcParams.BatchIDs = []string{*params.Batch}
	}
	svcParams.Outcomes = params.Outcome
	if params.Input != nil {
		svcParams.Input = *params.Input
	}

	result, err := h.historySrv.List(c.Request.Context(), svcParams)
	if err != nil {
		zap.S().Named("history_handler").Errorw("failed to list history", "error", err)
		abort(c, err)
		return
	}

	pageCount := (result.Total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	items := make([]v1.HistoryItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, v1.NewHistoryItemFromModel(it))
	}

	c.JSON(http.StatusOK, v1.HistoryResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     result.Total,
		Items:     items,
	})
}

// GetBatches returns the most recent batches
// (GET /batches)
func (h *Handler) GetBatches(c *gin.Context) {
	batches, err := h.historySrv.Batches(c.Request.Context(), maxPageSize)
	if err != nil {
		zap.S().Named("history_handler").Errorw("failed to list batches", "error", err)
		abort(c, err)
		return
	}

	out := make([]v1.BatchRecord, 0, len(batches))
	for _, b := range batches {
		out = append(out, v1.NewBatchRecordFromModel(b))
	}
	c.JSON(http.StatusOK, out)
}

// GetBatch returns one recorded batch
// (GET /batches/{id})
func (h *Handler) GetBatch(c *gin.Context, id string) {
	b, err := h.historySrv.Batch(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.NewBatchRecordFromModel(*b))
}
