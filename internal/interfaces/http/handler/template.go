package handler

import (
	"github.com/gin-gonic/gin"

	appesl "github.com/erp/esl-addon/internal/application/esl"
)

// TemplateHandler exposes the store and template mirror endpoints
type TemplateHandler struct {
	BaseHandler
	templates *appesl.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templates *appesl.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// RegisterRoutes registers the store and template routes
func (h *TemplateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/esl/stores/fetch", h.FetchStores)
	templates := rg.Group("/esl/templates")
	{
		templates.GET("", h.List)
		templates.POST("/sync", h.Sync)
		templates.DELETE("", h.Reset)
	}
}

// FetchStores refreshes the selectable-store list from the vendor
// POST /api/v1/esl/stores/fetch
func (h *TemplateHandler) FetchStores(c *gin.Context) {
	stores, err := h.templates.FetchStores(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stores)
}

// Sync reconciles the local template mirror with the vendor
// POST /api/v1/esl/templates/sync
func (h *TemplateHandler) Sync(c *gin.Context) {
	summary, err := h.templates.Sync(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"summary":      summary,
		"notification": h.templates.Notification(summary),
	})
}

// Reset clears the local template mirror
// DELETE /api/v1/esl/templates
func (h *TemplateHandler) Reset(c *gin.Context) {
	if err := h.templates.Reset(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"cleared": true})
}

// List returns the mirrored templates
// GET /api/v1/esl/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}
