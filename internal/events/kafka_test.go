package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherSendsEnvelope(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)

	var captured []byte
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		captured = val
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), TopicPaymentCompleted, "ORD-1", map[string]interface{}{"amount": 500})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	var event struct {
		Type       string                 `json:"type"`
		Key        string                 `json:"key"`
		OccurredAt time.Time              `json:"occurredAt"`
		Payload    map[string]interface{} `json:"payload"`
	}
	require.NoError(t, sonic.Unmarshal(captured, &event))
	assert.Equal(t, TopicPaymentCompleted, event.Type)
	assert.Equal(t, "ORD-1", event.Key)
	assert.Equal(t, float64(500), event.Payload["amount"])
}

func TestKafkaPublisherReturnsSendError(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherWithProducer(producer)
	err := p.Publish(context.Background(), TopicDonationCreated, "DON-2024-00001", nil)
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	require.NoError(t, p.Close())
}

func TestKafkaPublisherHonoursCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	p := NewKafkaPublisherWithProducer(producer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, TopicContactCreated, "TKT-2024-00001", nil), context.Canceled)
	require.NoError(t, p.Close())
}
