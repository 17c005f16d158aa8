package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// (POST /tonemap)
	StartBatch(c *gin.Context)
	// (GET /tonemap)
	GetBatchStatus(c *gin.Context)
	// (DELETE /tonemap)
	CancelBatch(c *gin.Context)
	// (GET /log)
	GetLog(c *gin.Context, filter string)
	// (GET /history)
	GetHistory(c *gin.Context, params GetHistoryParams)
	// (GET /batches)
	GetBatches(c *gin.Context)
	// (GET /batches/{id})
	GetBatch(c *gin.Context, id string)
}

// RegisterHandlers binds the API routes onto router.
func RegisterHandlers(router gin.IRoutes, si ServerInterface) {
	router.POST("/tonemap", si.StartBatch)
	router.GET("/tonemap", si.GetBatchStatus)
	router.DELETE("/tonemap", si.CancelBatch)
	router.GET("/log", func(c *gin.Context) {
		si.GetLog(c, c.DefaultQuery("filter", ".*"))
	})
	router.GET("/history", func(c *gin.Context) {
		var params GetHistoryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, Error{Error: "invalid query parameters: " + err.Error()})
			return
		}
		si.GetHistory(c, params)
	})
	router.GET("/batches", si.GetBatches)
	router.GET("/batches/:id", func(c *gin.Context) {
		si.GetBatch(c, c.Param("id"))
	})
}
