package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type writerFactory func(topic string) messageWriter

// KafkaPublisher writes each message to its topic, keeping one writer per topic.
type KafkaPublisher struct {
	brokers   []string
	newWriter writerFactory
	dial      func(ctx context.Context, network, address string) (*kafka.Conn, error)

	mu      sync.Mutex
	writers map[string]messageWriter
}

// NewKafkaPublisher builds a publisher for the configured brokers.
func NewKafkaPublisher(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	brokers := append([]string(nil), cfg.Brokers...)
	p := newKafkaPublisher(brokers, func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		}
	})
	if logg != nil {
		logg.Info(logg.WithField(ctx, "brokers", brokers), "kafka publisher initialized")
	}
	return p, nil
}

func newKafkaPublisher(brokers []string, factory writerFactory) *KafkaPublisher {
	return &KafkaPublisher{
		brokers:   brokers,
		newWriter: factory,
		dial:      kafka.DialContext,
		writers:   make(map[string]messageWriter),
	}
}

func (p *KafkaPublisher) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish writes msg keyed by its aggregate id so per-aggregate ordering is kept.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return errors.New("kafka topic is required")
	}
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if err := p.writer(msg.Topic).WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Body,
		Headers: headers,
		Time:    ts,
	}); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var errs error
	for _, addr := range p.brokers {
		conn, err := p.dial(ctx, "tcp", addr)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka unreachable: %w", errs)
}

// Close flushes and closes every writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs error
	for topic, w := range p.writers {
		errs = multierr.Append(errs, w.Close())
		delete(p.writers, topic)
	}
	return errs
}
