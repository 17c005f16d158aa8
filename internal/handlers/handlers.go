package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/luminancehdr/hdr-batch/api/v1"
	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/services"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

type Handler struct {
	batchSrv   *services.BatchService
	historySrv *services.HistoryService
	defaults   models.BatchRequest
}

var _ v1.ServerInterface = (*Handler)(nil)

// New creates the handler. defaults supplies the batch settings a request
// leaves out.
func New(batchSrv *services.BatchService, historySrv *services.HistoryService, defaults models.BatchRequest) *Handler {
	return &Handler{
		batchSrv:   batchSrv,
		historySrv: historySrv,
		defaults:   defaults,
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case srvErrors.IsConfigurationError(err), srvErrors.IsMalformedSettingsError(err):
		return http.StatusBadRequest
	case srvErrors.IsBatchInProgressError(err):
		return http.StatusConflict
	case srvErrors.IsResourceNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), v1.Error{Error: err.Error()})
}
