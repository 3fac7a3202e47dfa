// Package events delivers ledger events recorded in the outbox to a message
// broker.
package events

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bankledger/internal/logging"
	"github.com/dmitrijs2005/bankledger/internal/server/config"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

// Publisher sends one outbox message to a broker. A nil error means the
// broker accepted the message.
type Publisher interface {
	Publish(ctx context.Context, msg models.OutboxMessage) error
	Close() error
}

// NewPublisher picks the publisher named by cfg.EventsBroker.
func NewPublisher(cfg *config.Config, log logging.Logger) (Publisher, error) {
	switch cfg.EventsBroker {
	case config.BrokerKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.BrokerRabbitMQ:
		p, err := DialRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.BrokerNone, "":
		return NewLogPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.EventsBroker)
	}
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	log logging.Logger
}

func NewLogPublisher(log logging.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, msg models.OutboxMessage) error {
	p.log.Info(ctx, "ledger event", "id", msg.ID, "type", msg.EventType, "account", msg.AggregateID, "payload", string(msg.Payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
