package errors

import (
	"sync"
	"time"
)

const recentErrorLimit = 20

// ErrorAnalytics 错误分析
type ErrorAnalytics struct {
	mu            sync.RWMutex
	TotalErrors   int
	ErrorsByCode  map[ErrorCode]int
	ErrorsByPath  map[string]int
	LastErrorTime time.Time
	recent        []RecentError
}

// RecentError 最近的错误，按时间倒序返回
type RecentError struct {
	RequestID string    `json:"requestId"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	UserID    int64     `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorAnalytics 创建错误分析器
func NewErrorAnalytics() *ErrorAnalytics {
	return &ErrorAnalytics{
		ErrorsByCode: make(map[ErrorCode]int),
		ErrorsByPath: make(map[string]int),
	}
}

// Record 记录错误
func (a *ErrorAnalytics) Record(err *TracedError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.TotalErrors++
	a.ErrorsByCode[err.Code]++
	a.ErrorsByPath[err.Context.Method+" "+err.Context.Path]++
	a.LastErrorTime = err.Timestamp

	a.recent = append(a.recent, RecentError{
		RequestID: err.Context.RequestID,
		Code:      err.Code,
		Message:   err.Message,
		Path:      err.Context.Path,
		Method:    err.Context.Method,
		UserID:    err.Context.UserID,
		Timestamp: err.Timestamp,
	})
	if len(a.recent) > recentErrorLimit {
		a.recent = a.recent[len(a.recent)-recentErrorLimit:]
	}
}

// GetStats 获取统计信息
func (a *ErrorAnalytics) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byCode := make(map[ErrorCode]int, len(a.ErrorsByCode))
	for code, count := range a.ErrorsByCode {
		byCode[code] = count
	}
	byPath := make(map[string]int, len(a.ErrorsByPath))
	for path, count := range a.ErrorsByPath {
		byPath[path] = count
	}
	recent := make([]RecentError, 0, len(a.recent))
	for i := len(a.recent) - 1; i >= 0; i-- {
		recent = append(recent, a.recent[i])
	}

	stats := map[string]interface{}{
		"totalErrors":  a.TotalErrors,
		"errorsByCode": byCode,
		"errorsByPath": byPath,
		"recentErrors": recent,
	}
	if !a.LastErrorTime.IsZero() {
		stats["lastError"] = a.LastErrorTime
	}
	return stats
}
