package interfaces

import (
	"context"
	"errors"
)

// ErrDuplicate 唯一键冲突
var ErrDuplicate = errors.New("duplicate entry")

// Transactor 在同一个数据库事务中执行 fn，fn 返回错误时回滚
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SequenceRepository 原子递增的命名序列
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
