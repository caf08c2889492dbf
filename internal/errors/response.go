package errors

import (
	"donation-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrAccountSuspended:   http.StatusForbidden,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusBadRequest,

	// 业务错误 (4000-4999)
	ErrInvalidState:  http.StatusBadRequest,
	ErrPaymentFailed: http.StatusBadRequest,
}

// StatusOf 错误对应的 HTTP 状态码
func StatusOf(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := errorStatusMap[appErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应：{success:false, message, code}
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := StatusOf(err)
	appErr, ok := As(err)
	if !ok || status == http.StatusInternalServerError {
		util.Logger.Error("请求处理失败",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server Error",
			"code":    ErrInternal,
		})
		return
	}

	// 500 不向客户端暴露内部信息
	message := appErr.Message
	if status == http.StatusInternalServerError {
		message = "Server Error"
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"code":    appErr.Code,
	})
}

// HandleSuccess 统一处理成功响应：{success:true, message, ...payload}
func HandleSuccess(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}
