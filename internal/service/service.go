package service

import (
	"context"
	"donation-backend/internal/events"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

// Requester 当前请求的调用者
type Requester struct {
	UserID  int64
	IsAdmin bool
}

// CanAccess 本人或管理员
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsAdmin || r.UserID == ownerID
}

// Page 分页查询结果
type Page[T any] struct {
	Items []T
	Total int
}

// publish 事件发布失败只记录日志
func publish(ctx context.Context, publisher events.Publisher, topic, key string, payload interface{}) {
	if err := publisher.Publish(ctx, topic, key, payload); err != nil {
		util.Logger.Warn("发布事件失败",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
	}
}
