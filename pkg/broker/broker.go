package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

// Message is a broker-agnostic event published by the outbox relay.
type Message struct {
	Topic   string
	Key     string
	Body    []byte
	Headers map[string]string
	Time    time.Time
}

// Publisher delivers messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the publisher selected by cfg.Eventing.Broker.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Eventing.Broker)) {
	case "", config.BrokerKafka:
		return NewKafkaPublisher(ctx, cfg.Kafka, logg)
	case config.BrokerRabbitMQ:
		return NewRabbitPublisher(ctx, cfg.RabbitMQ, logg)
	default:
		return nil, fmt.Errorf("unsupported events broker %q", cfg.Eventing.Broker)
	}
}
