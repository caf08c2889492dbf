package redis

import (
	"context"
	"donation-backend/internal/util"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sequenceKeyPrefix = "seq:"

// SequenceRepository 使用 INCR 实现的原子计数器
type SequenceRepository struct {
	client redis.Cmdable
}

func NewSequenceRepository(client redis.Cmdable) *SequenceRepository {
	return &SequenceRepository{client: client}
}

func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	value, err := r.client.Incr(ctx, sequenceKeyPrefix+name).Result()
	if err != nil {
		util.Logger.Error("递增 Redis 序列失败", zap.String("sequence", name), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}
