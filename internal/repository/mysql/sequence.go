package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/util"
	"fmt"

	"go.uber.org/zap"
)

// SequenceRepository 基于 id_sequences 表的原子计数器。
// LAST_INSERT_ID(expr) 让本次语句的 insert id 等于新值，读写在同一条语句里完成。
type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

const nextSequenceSQL = `INSERT INTO id_sequences (name, value) VALUES (?, LAST_INSERT_ID(1))
ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)`

func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, nextSequenceSQL, name)
	if err != nil {
		util.Logger.Error("递增序列失败", zap.String("sequence", name), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	value, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return value, nil
}
