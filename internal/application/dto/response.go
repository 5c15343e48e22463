// Package dto holds the request and response shapes of the gateway's HTTP API.
package dto

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO 错误信息 DTO
type ErrorDTO struct {
	Code    errors.Code       `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse 创建错误响应。非 AppError 一律视为内部错误，不向客户端泄露细节。
func ErrorResponse(err error) (int, *APIResponse) {
	status := http.StatusInternalServerError
	errorDTO := &ErrorDTO{
		Code:    errors.CodeInternalError,
		Message: "Internal server error",
	}

	if appErr, ok := errors.AsAppError(err); ok {
		status = appErr.HTTPStatus
		errorDTO.Code = appErr.Code
		if status < http.StatusInternalServerError || appErr.Kind != errors.KindInternal {
			errorDTO.Message = appErr.Message
		}
		if status < http.StatusInternalServerError {
			errorDTO.Details = appErr.Details
		}
	}

	return status, &APIResponse{
		Success:   false,
		Error:     errorDTO,
		Timestamp: time.Now().Unix(),
	}
}

// SendSuccess writes a 200 envelope.
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse(data))
}

// SendError writes the error envelope and aborts the gin chain.
func SendError(c *gin.Context, err error) {
	status, body := ErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
