package errors

import (
	"time"
)

// TracedError 带请求上下文的错误，供错误监控统计使用
type TracedError struct {
	*AppError
	Timestamp time.Time
	Context   ErrorContext
}

// ErrorContext 错误发生时的请求信息
type ErrorContext struct {
	RequestID string
	UserID    int64
	Path      string
	Method    string
	Status    int
}

// NewTracedError 非 AppError 按内部错误统计
func NewTracedError(err error, ctx ErrorContext) *TracedError {
	appErr, ok := As(err)
	if !ok {
		appErr = Wrap(ErrInternal, err.Error(), err)
	}
	return &TracedError{
		AppError:  appErr,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}
