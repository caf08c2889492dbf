// Package cache 基于 Redis 的读缓存和令牌黑名单
package cache

import (
	"context"
	"donation-backend/internal/model"
	"donation-backend/internal/util"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const trackingKeyPrefix = "track:"

// TrackingCache 缓存公开追踪接口的结果，状态变化提交后由服务层写入新记录
type TrackingCache interface {
	Get(ctx context.Context, donationID string) (*model.Donation, bool)
	Set(ctx context.Context, donation *model.Donation)
}

type RedisTrackingCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisTrackingCache(client redis.Cmdable, ttl time.Duration) *RedisTrackingCache {
	return &RedisTrackingCache{client: client, ttl: ttl}
}

// Get 缓存故障只记录日志，按未命中处理
func (c *RedisTrackingCache) Get(ctx context.Context, donationID string) (*model.Donation, bool) {
	data, err := c.client.Get(ctx, trackingKeyPrefix+donationID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			util.Logger.Warn("读取追踪缓存失败", zap.String("donation_id", donationID), zap.Error(err))
		}
		return nil, false
	}
	var d model.Donation
	if err := sonic.Unmarshal(data, &d); err != nil {
		util.Logger.Warn("追踪缓存数据损坏", zap.String("donation_id", donationID), zap.Error(err))
		return nil, false
	}
	return &d, true
}

func (c *RedisTrackingCache) Set(ctx context.Context, d *model.Donation) {
	data, err := sonic.Marshal(d)
	if err != nil {
		util.Logger.Warn("序列化追踪缓存失败", zap.String("donation_id", d.DonationID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, trackingKeyPrefix+d.DonationID, data, c.ttl).Err(); err != nil {
		util.Logger.Warn("写入追踪缓存失败", zap.String("donation_id", d.DonationID), zap.Error(err))
	}
}

// NopTrackingCache 未配置 Redis 时使用
type NopTrackingCache struct{}

func (NopTrackingCache) Get(context.Context, string) (*model.Donation, bool) { return nil, false }
func (NopTrackingCache) Set(context.Context, *model.Donation)                {}
