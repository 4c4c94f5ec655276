package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/esl-addon/internal/domain/esl"
	"github.com/erp/esl-addon/internal/domain/shared"
	"github.com/erp/esl-addon/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// sentinelCode maps the connector's sentinel errors to API error codes
func sentinelCode(err error) (string, bool) {
	switch {
	case errors.Is(err, esl.ErrKeyFetch):
		return dto.ErrCodeKeyFetch, true
	case errors.Is(err, esl.ErrAuth):
		return dto.ErrCodeAuth, true
	case errors.Is(err, esl.ErrTransport):
		return dto.ErrCodeTransport, true
	case errors.Is(err, esl.ErrVendorAPI):
		return dto.ErrCodeVendorAPI, true
	case errors.Is(err, esl.ErrEmptyResult):
		return dto.ErrCodeEmptyResult, true
	case errors.Is(err, esl.ErrValidation):
		return dto.ErrCodeValidation, true
	case errors.Is(err, esl.ErrSessionNotFound):
		return dto.ErrCodeNoSession, true
	case errors.Is(err, esl.ErrSessionExists):
		return dto.ErrCodeSessionExists, true
	}
	return "", false
}

// HandleError converts sentinel and domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if code, ok := sentinelCode(err); ok {
		h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := domainErr.Code
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
