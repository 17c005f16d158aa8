package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/luminancehdr/hdr-batch/api/v1"
)

// StartBatch starts a tone-mapping batch
// (POST /tonemap)
func (h *Handler) StartBatch(c *gin.Context) {
	var body v1.StartBatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "invalid request body: " + err.Error()})
		return
	}

	id, err := h.batchSrv.Start(c.Request.Context(), body.ToModel(h.defaults))
	if err != nil {
		zap.S().Named("batch_handler").Warnw("failed to start batch", "error", err)
		abort(c, err)
		return
	}

	c.JSON(http.StatusAccepted, v1.StartBatchResponse{Id: id})
}

// GetBatchStatus returns the status of the current or last batch
// (GET /tonemap)
func (h *Handler) GetBatchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewBatchStatusFromModel(h.batchSrv.Status()))
}

// CancelBatch stops dispatching and lets running items finish
// (DELETE /tonemap)
func (h *Handler) CancelBatch(c *gin.Context) {
	h.batchSrv.Cancel()
	c.JSON(http.StatusAccepted, v1.NewBatchStatusFromModel(h.batchSrv.Status()))
}

// GetLog returns the batch log filtered by a regular expression
// (GET /log)
func (h *Handler) GetLog(c *gin.Context, filter string) {
	entries, err := h.batchSrv.Log(filter)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.NewLogResponse(filter, entries))
}
