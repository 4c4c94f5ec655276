package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/esl-addon/internal/domain/esl"
	"github.com/erp/esl-addon/internal/domain/shared"
	"github.com/erp/esl-addon/internal/interfaces/http/dto"
)

func performError(t *testing.T, err error) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h := &BaseHandler{}
	h.HandleError(c, err)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandleError_SentinelMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{esl.ErrKeyFetch, http.StatusBadGateway, dto.ErrCodeKeyFetch},
		{esl.ErrAuth, http.StatusBadGateway, dto.ErrCodeAuth},
		{esl.ErrTransport, http.StatusBadGateway, dto.ErrCodeTransport},
		{esl.ErrVendorAPI, http.StatusBadGateway, dto.ErrCodeVendorAPI},
		{esl.ErrEmptyResult, http.StatusNotFound, dto.ErrCodeEmptyResult},
		{esl.ErrValidation, http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{esl.ErrSessionNotFound, http.StatusNotFound, dto.ErrCodeNoSession},
		{esl.ErrSessionExists, http.StatusConflict, dto.ErrCodeSessionExists},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			w, resp := performError(t, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestHandleError_WrappedSentinel(t *testing.T) {
	w, resp := performError(t, fmt.Errorf("store list: %w", esl.ErrEmptyResult))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeEmptyResult, resp.Error.Code)
}

func TestHandleError_DomainError(t *testing.T) {
	w, resp := performError(t, shared.NewDomainError("INVALID_INPUT", "Interval number must be positive"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Equal(t, "Interval number must be positive", resp.Error.Message)
}

func TestHandleError_Unknown(t *testing.T) {
	w, resp := performError(t, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
}
