package events

import (
	"context"
	"donation-backend/internal/common"
	"donation-backend/internal/util"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

// NewKafkaPublisher 连接 Kafka，broker 暂时不可用时重试
func NewKafkaPublisher(ctx context.Context, brokers []string, maxRetries int) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	var producer sarama.SyncProducer
	err := common.WithRetry(ctx, func() error {
		var err error
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err != nil {
			util.Logger.Warn("等待 Kafka 可用", zap.Strings("brokers", brokers), zap.Error(err))
		}
		return err
	}, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}

	util.Logger.Info("Kafka producer 初始化完成", zap.Strings("brokers", brokers))
	return NewKafkaPublisherWithProducer(producer), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := sonic.Marshal(Event{
		Type:       topic,
		Key:        key,
		OccurredAt: p.now(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s message: %w", topic, err)
	}

	util.Logger.Debug("事件已发布",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
