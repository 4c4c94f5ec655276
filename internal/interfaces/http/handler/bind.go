package handler

import (
	"github.com/gin-gonic/gin"

	appesl "github.com/erp/esl-addon/internal/application/esl"
)

// BindHandler exposes the scan-driven bind and unbind endpoints
type BindHandler struct {
	BaseHandler
	binds *appesl.BindService
}

// NewBindHandler creates a new BindHandler
func NewBindHandler(binds *appesl.BindService) *BindHandler {
	return &BindHandler{binds: binds}
}

// RegisterRoutes registers the bind and unbind routes
func (h *BindHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bind := rg.Group("/esl/bind")
	{
		bind.POST("/scan", h.Scan)
		bind.POST("/reset", h.ResetScan)
		bind.POST("/multi", h.MultiScan)
	}
	rg.POST("/esl/unbind", h.Unbind)
}

// Scan feeds one barcode into the single-bind state machine
// POST /api/v1/esl/bind/scan
func (h *BindHandler) Scan(c *gin.Context) {
	var req appesl.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.binds.Scan(c.Request.Context(), req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ResetScan abandons the scan in progress
// POST /api/v1/esl/bind/reset
func (h *BindHandler) ResetScan(c *gin.Context) {
	h.Success(c, h.binds.ResetScan())
}

// MultiScan handles one step of the multi-product flow
// POST /api/v1/esl/bind/multi
func (h *BindHandler) MultiScan(c *gin.Context) {
	var req appesl.MultiBindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.binds.MultiBindScan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Unbind detaches one label
// POST /api/v1/esl/unbind
func (h *BindHandler) Unbind(c *gin.Context) {
	var req appesl.UnbindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	notification, err := h.binds.Unbind(c.Request.Context(), req.LabelCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"notification": notification})
}
