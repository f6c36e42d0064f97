package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/rugstore-backend/pkg/broker"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxBackoff         = 10 * time.Second
	maxJitter          = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, maxAttempts int, err error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Broker     broker.Publisher
	Repository outboxRepository
	Registry   registryResolver
}

func (p ServiceParams) validate() error {
	var missing []string
	for _, dep := range []struct {
		name string
		set  bool
	}{
		{"config", p.Config != nil},
		{"logger", p.Logger != nil},
		{"database client", p.DB != nil},
		{"broker publisher", p.Broker != nil},
		{"outbox repository", p.Repository != nil},
		{"event registry", p.Registry != nil},
	} {
		if !dep.set {
			missing = append(missing, dep.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("outbox publisher: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Service relays committed outbox rows to the broker. Each batch is claimed
// and marked inside one transaction, so a crash mid-batch re-publishes rather
// than drops.
type Service struct {
	logg        *logger.Logger
	db          dbClient
	repo        outboxRepository
	broker      broker.Publisher
	registry    registryResolver
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	cfg := params.Config.Outbox
	return &Service{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		broker:      params.Broker,
		registry:    params.Registry,
		batchSize:   positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		poll:        time.Duration(positiveOr(cfg.PollIntervalMS, int(defaultPoll/time.Millisecond))) * time.Millisecond,
	}, nil
}

// Run drains the outbox until ctx is cancelled. Full batches are followed
// immediately by the next one; an empty batch waits one poll interval and a
// failed batch waits an exponentially growing delay.
func (s *Service) Run(ctx context.Context) error {
	if err := multierr.Combine(
		pingErr("database", s.db.Ping(ctx)),
		pingErr("broker", s.broker.Ping(ctx)),
	); err != nil {
		return err
	}

	delay := newBackoff(s.poll, maxBackoff)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		busy, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox.batch.failed", err)
			wait = delay.fail()
		case busy:
			delay.reset()
			continue
		default:
			wait = delay.reset()
		}

		if err := sleep(ctx, wait+jitter()); err != nil {
			return err
		}
	}
}

// processBatch reports whether any row was claimed. Publish failures do not
// abort the batch; they are returned combined once every row is marked.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var (
		claimed  int
		failures error
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		failures = nil
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox batch: %w", err)
		}
		claimed = len(events)
		for _, event := range events {
			failure, err := s.handle(ctx, tx, event)
			if err != nil {
				return err
			}
			failures = multierr.Append(failures, failure)
		}
		return nil
	})
	if err != nil {
		return claimed > 0, err
	}
	if failures != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"claimed": claimed,
			"failed":  len(multierr.Errors(failures)),
		}), "outbox.batch.partial")
	}
	return claimed > 0, failures
}

// handle publishes one row and records the outcome. failure is a publish
// error worth surfacing; err means the row could not be marked and the
// transaction must roll back.
func (s *Service) handle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (failure, err error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return nil, s.terminate(ctx, tx, event, nil, "unresolvable", err)
	}

	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return nil, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, s.eventFields(event, resolved)), "outbox.event.published")
		return nil, nil
	}
	if registry.IsNonRetryable(pubErr) {
		return nil, s.terminate(ctx, tx, event, resolved, "non_retryable", pubErr)
	}

	failure = fmt.Errorf("publish %s: %w", event.ID, pubErr)
	if event.AttemptCount+1 >= s.maxAttempts {
		return failure, s.terminate(ctx, tx, event, resolved, "max_attempts", fmt.Errorf("max publish attempts reached: %w", pubErr))
	}

	fields := s.eventFields(event, resolved)
	fields["attempt_count"] = event.AttemptCount + 1
	fields["error"] = pubErr.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox.event.retry")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return failure, fmt.Errorf("mark failed %s: %w", event.ID, err)
	}
	return failure, nil
}

func (s *Service) terminate(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent, reason string, cause error) error {
	fields := s.eventFields(event, resolved)
	fields["terminal_reason"] = reason
	fields["error"] = cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox.event.terminal")

	if err := s.repo.MarkTerminalTx(tx, event.ID, s.maxAttempts, cause); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

// publish sends the stored envelope bytes unchanged. The aggregate id is the
// partition key so events of one order stay in order.
func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	if topic == "" {
		return registry.NewNonRetryableError(fmt.Errorf("no topic for event type %s", event.EventType))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return s.broker.Publish(ctx, broker.Message{
		Topic: topic,
		Key:   event.AggregateID.String(),
		Body:  event.Payload,
		Time:  resolved.Envelope.OccurredAt,
		Headers: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"schema_version": strconv.Itoa(resolved.Envelope.Version),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Envelope.EventID != "" {
			fields["event_id"] = resolved.Envelope.EventID
		}
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

// backoff doubles the wait after each failure, from base up to max.
type backoff struct {
	base, max, current time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = defaultPoll
	}
	return &backoff{base: base, max: max, current: base}
}

func (b *backoff) reset() time.Duration {
	b.current = b.base
	return b.current
}

func (b *backoff) fail() time.Duration {
	b.current = min(b.current*2, b.max)
	return b.current
}

func jitter() time.Duration {
	return rand.N(maxJitter)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pingErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s ping: %w", name, err)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
