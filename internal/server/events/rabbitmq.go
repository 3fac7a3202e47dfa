package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes to a durable topic exchange with routing key
// "ledger.<event type>".
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

func DialRabbitMQ(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func RoutingKey(eventType string) string {
	return "ledger." + eventType
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, msg models.OutboxMessage) error {
	err := p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(msg.EventType), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.EventType,
		Timestamp:    msg.CreatedAt,
		Body:         msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
