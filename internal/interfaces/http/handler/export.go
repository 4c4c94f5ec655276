package handler

import (
	"github.com/gin-gonic/gin"

	appesl "github.com/erp/esl-addon/internal/application/esl"
)

// ExportHandler exposes the catalog upload endpoint
type ExportHandler struct {
	BaseHandler
	exports *appesl.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exports *appesl.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RegisterRoutes registers the export routes
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/esl/export", h.Export)
}

// Export pushes the whole catalog to the vendor
// POST /api/v1/esl/export
func (h *ExportHandler) Export(c *gin.Context) {
	summary, err := h.exports.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"summary":      summary,
		"notification": h.exports.Notification(summary),
	})
}
