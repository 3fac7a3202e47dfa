package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event to one topic keyed by account id, so
// events of the same account keep their order within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg models.OutboxMessage) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.AggregateID),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.ID)},
			{Key: "event_type", Value: []byte(msg.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
