// Package events 发布领域事件。事件是尽力而为的通知，发布失败不会影响业务请求。
package events

import (
	"context"
	"time"
)

const (
	TopicDonationCreated       = "donation.created"
	TopicDonationStatusChanged = "donation.status_changed"
	TopicDonationCancelled     = "donation.cancelled"
	TopicPaymentCompleted      = "payment.completed"
	TopicPaymentFailed         = "payment.failed"
	TopicContactCreated        = "contact.created"
)

// Event 消息体的统一外壳
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	// Publish key 决定分区，同一个业务编号的事件保持顺序
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// NopPublisher 未配置 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
