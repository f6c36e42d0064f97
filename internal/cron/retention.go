package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	staleCartDays       = 60
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedEventPurger interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type emptyCartPurger interface {
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// retentionJob deletes rows older than a fixed number of days.
type retentionJob struct {
	name  string
	days  int
	logg  *logger.Logger
	purge func(ctx context.Context, cutoff time.Time) (int64, error)
	now   func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.days)
}

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"job":            j.name,
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}), "cron.retention.complete")
	return nil
}

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    publishedEventPurger
	RetentionDays int
}

// NewOutboxRetentionJob purges outbox rows that were published more than
// RetentionDays ago. Unpublished rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("outbox retention: logger required")
	case params.DB == nil:
		return nil, errors.New("outbox retention: db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox retention: repository required")
	}
	return &retentionJob{
		name: "outbox-retention",
		days: positiveOr(params.RetentionDays, outboxRetentionDays),
		logg: params.Logger,
		now:  time.Now,
		purge: func(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
			err = params.DB.WithTx(ctx, func(tx *gorm.DB) error {
				deleted, err = params.Repository.DeletePublishedBefore(tx, cutoff)
				return err
			})
			return deleted, err
		},
	}, nil
}

type StaleCartJobParams struct {
	Logger     *logger.Logger
	Repository emptyCartPurger
	AfterDays  int
}

// NewStaleCartJob removes carts with no lines that have not been touched for
// AfterDays.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("stale carts: logger required")
	case params.Repository == nil:
		return nil, errors.New("stale carts: cart repository required")
	}
	return &retentionJob{
		name:  "stale-cart-cleanup",
		days:  positiveOr(params.AfterDays, staleCartDays),
		logg:  params.Logger,
		now:   time.Now,
		purge: params.Repository.DeleteEmptyBefore,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
