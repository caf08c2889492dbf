package common

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-sql-driver/mysql"
)

// RetryBackoff 第 i 次失败后的等待时间，测试中可以缩短
var RetryBackoff = func(attempt int) time.Duration {
	return time.Second * time.Duration(attempt+1)
}

// IsTemporary 判断是否为临时性错误
func IsTemporary(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}

// IsRetryable 判断是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsTemporary(err) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sarama.ErrOutOfBrokers) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// WithRetry 通用重试机制，ctx 取消时立即返回
func WithRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if !IsRetryable(err) || i == maxRetries-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(RetryBackoff(i)):
		}
	}
	return err
}
