package handler

import (
	"github.com/gin-gonic/gin"

	appesl "github.com/erp/esl-addon/internal/application/esl"
)

// SessionHandler exposes the connection session endpoints
type SessionHandler struct {
	BaseHandler
	sessions  *appesl.SessionService
	workflows *appesl.WorkflowService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *appesl.SessionService, workflows *appesl.WorkflowService) *SessionHandler {
	return &SessionHandler{sessions: sessions, workflows: workflows}
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	session := rg.Group("/esl/session")
	{
		session.POST("", h.Create)
		session.GET("", h.Get)
		session.POST("/connect", h.Connect)
		session.POST("/first-connection", h.FirstConnection)
		session.PUT("/schedule", h.UpdateSchedule)
		session.PUT("/store", h.SetStore)
	}
}

// Create stores the connection settings
// POST /api/v1/esl/session
func (h *SessionHandler) Create(c *gin.Context) {
	var req appesl.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns the stored session state
// GET /api/v1/esl/session
func (h *SessionHandler) Get(c *gin.Context) {
	resp, err := h.sessions.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Connect runs the vendor handshake
// POST /api/v1/esl/session/connect
func (h *SessionHandler) Connect(c *gin.Context) {
	resp, err := h.sessions.Connect(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// FirstConnection runs the full setup sequence: handshake, store list,
// template sync.
// POST /api/v1/esl/session/first-connection
func (h *SessionHandler) FirstConnection(c *gin.Context) {
	resp, err := h.workflows.FirstConnection(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateSchedule changes the automatic sync settings
// PUT /api/v1/esl/session/schedule
func (h *SessionHandler) UpdateSchedule(c *gin.Context) {
	var req appesl.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.sessions.UpdateSchedule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetStore selects one of the fetched stores
// PUT /api/v1/esl/session/store
func (h *SessionHandler) SetStore(c *gin.Context) {
	var req struct {
		StoreID string `json:"storeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.sessions.SetStore(c.Request.Context(), req.StoreID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
