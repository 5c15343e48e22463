package dto

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/backupgw/pkg/errors"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    errors.Code
		message string
	}{
		{"unauthorized", errors.ErrAuthentication("Token has expired"), 401, errors.CodeUnauthorized, "Token has expired"},
		{"forbidden", errors.ErrAuthorization("Insufficient permissions"), 403, errors.CodeForbidden, "Insufficient permissions"},
		{"not found", errors.ErrRouteNotFound("GET", "/nope"), 404, errors.CodeNotFound, "No route found for GET /nope"},
		{"bad request", errors.ErrBadRequest("Invalid JSON body"), 400, errors.CodeError, "Invalid JSON body"},
		{"wrapped app error", fmt.Errorf("ctx: %w", errors.ErrAuthentication("Invalid token")), 401, errors.CodeUnauthorized, "Invalid token"},
		{"internal keeps generic message", errors.ErrInternal("db password wrong"), 500, errors.CodeInternalError, "Internal server error"},
		{"crypto message kept", errors.ErrCryptoOperation("failed to generate key pair"), 500, errors.CodeInternalError, "failed to generate key pair"},
		{"unknown error", fmt.Errorf("boom"), 500, errors.CodeInternalError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ErrorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestSendError_WireFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	SendError(c, errors.ErrAuthorization("Insufficient permissions"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, c.IsAborted())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, false, raw["success"])
	assert.Equal(t, map[string]interface{}{"code": "FORBIDDEN", "message": "Insufficient permissions"}, raw["error"])
	assert.NotContains(t, raw, "data")
	assert.Contains(t, raw, "timestamp")
}

func TestSendSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	SendSuccess(c, ServerResponse{ID: "7"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"7"}`, string(mustField(t, rec.Body.Bytes(), "data")))
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	return raw[field]
}
