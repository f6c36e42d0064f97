package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	reg, err := NewRegistry(namedJob("outbox-retention"), nil, namedJob("stale-cart-cleanup"))
	require.NoError(t, err)

	jobs := reg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "outbox-retention", jobs[0].Name())
	assert.Equal(t, "stale-cart-cleanup", jobs[1].Name())

	jobs[0] = nil
	assert.NotNil(t, reg.Jobs()[0], "Jobs must return a copy")
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(namedJob("outbox-retention"), namedJob("outbox-retention"))
	assert.ErrorContains(t, err, "already registered")

	var reg Registry
	require.NoError(t, reg.Register(namedJob("a")))
	require.NoError(t, reg.Register(nil))
	assert.Error(t, reg.Register(namedJob("a")))
}
