package middleware

import (
	"donation-backend/internal/errors"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorMonitorMiddleware 把处理过程中挂到 gin.Context 上的错误记入统计
func ErrorMonitorMiddleware(analytics *errors.ErrorAnalytics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			traced := errors.NewTracedError(e.Err, errors.ErrorContext{
				RequestID: c.GetString(ContextRequestID),
				UserID:    c.GetInt64(ContextUserID),
				Path:      c.FullPath(),
				Method:    c.Request.Method,
				Status:    c.Writer.Status(),
			})
			if traced.Context.Path == "" {
				traced.Context.Path = c.Request.URL.Path
			}
			analytics.Record(traced)

			util.Logger.Debug("请求处理错误",
				zap.String("request_id", traced.Context.RequestID),
				zap.Int("error_code", int(traced.Code)),
				zap.String("error_message", traced.Message),
				zap.Int("status", traced.Context.Status),
				zap.String("path", traced.Context.Path),
				zap.String("method", traced.Context.Method))
		}
	}
}
