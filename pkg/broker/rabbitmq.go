package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConnection interface {
	IsClosed() bool
	Close() error
}

// RabbitPublisher publishes to a durable topic exchange using the topic as routing key.
type RabbitPublisher struct {
	exchange string
	conn     amqpConnection
	channel  amqpChannel
}

// NewRabbitPublisher dials RabbitMQ and declares the events exchange.
func NewRabbitPublisher(ctx context.Context, cfg config.RabbitMQConfig, logg *logger.Logger) (*RabbitPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("open rabbitmq channel: %w", err), conn.Close())
	}
	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, multierr.Combine(fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err), ch.Close(), conn.Close())
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "exchange", cfg.Exchange), "rabbitmq publisher initialized")
	}
	return &RabbitPublisher{exchange: cfg.Exchange, conn: conn, channel: ch}, nil
}

// Publish sends msg as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return errors.New("routing key is required")
	}
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	err := p.channel.PublishWithContext(ctx, p.exchange, msg.Topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
		ContentType:  "application/json",
		MessageId:    msg.Key,
		Headers:      headers,
		Body:         msg.Body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping reports whether the connection is still open.
func (p *RabbitPublisher) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitPublisher) Close() error {
	var errs error
	if p.channel != nil {
		errs = multierr.Append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = multierr.Append(errs, p.conn.Close())
	}
	return errs
}
