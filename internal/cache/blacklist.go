package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:revoked:"

// TokenBlacklist 保存登出后的令牌，直到令牌本身过期
type TokenBlacklist interface {
	Add(ctx context.Context, token string, until time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

type RedisTokenBlacklist struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisTokenBlacklist(client redis.Cmdable) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, now: time.Now}
}

func (b *RedisTokenBlacklist) Add(ctx context.Context, token string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKeyPrefix+token, 1, ttl).Err()
}

func (b *RedisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryTokenBlacklist 单实例部署时的进程内实现
type MemoryTokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{tokens: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryTokenBlacklist) Add(_ context.Context, token string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	// 顺便清理已经过期的令牌
	for t, exp := range b.tokens {
		if now.After(exp) {
			delete(b.tokens, t)
		}
	}
	if until.After(now) {
		b.tokens[token] = until
	}
	return nil
}

func (b *MemoryTokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	exp, ok := b.tokens[token]
	return ok && b.now().Before(exp), nil
}
