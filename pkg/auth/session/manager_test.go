package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) GetDel(ctx context.Context, key string) (string, error) {
	v, err := m.Get(ctx, key)
	if err == nil {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
	}
	return v, err
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string {
	return "session:" + accessID
}

func (m *memoryStore) record(t *testing.T, accessID string) record {
	t.Helper()
	var rec record
	require.NoError(t, json.Unmarshal([]byte(m.data[m.AccessSessionKey(accessID)]), &rec))
	return rec
}

func TestGenerateStoresDigestNotToken(t *testing.T) {
	store := newMemoryStore()
	manager := newManager(store, time.Hour)
	userID := uuid.New()

	token, err := manager.Generate(context.Background(), userID, "access-1")
	require.NoError(t, err)

	raw := store.data[store.AccessSessionKey("access-1")]
	assert.NotContains(t, raw, token)
	rec := store.record(t, "access-1")
	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, digest(token), rec.TokenHash)
	assert.Equal(t, time.Hour, store.ttls[store.AccessSessionKey("access-1")])
}

func TestRotateIssuesNewSessionAndConsumesOld(t *testing.T) {
	store := newMemoryStore()
	manager := newManager(store, time.Hour)
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, userID, "access-1")
	require.NoError(t, err)

	rotated, err := manager.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	assert.Equal(t, userID, rotated.UserID)
	assert.NotEqual(t, "access-1", rotated.AccessID)
	assert.NotEqual(t, token, rotated.RefreshToken)
	assert.NotContains(t, store.data, store.AccessSessionKey("access-1"))
	assert.Equal(t, digest(rotated.RefreshToken), store.record(t, rotated.AccessID).TokenHash)

	_, err = manager.Rotate(ctx, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a refresh token works once")
}

func TestRotateWithWrongTokenEndsSession(t *testing.T) {
	store := newMemoryStore()
	manager := newManager(store, time.Hour)
	ctx := context.Background()

	token, err := manager.Generate(ctx, uuid.New(), "access-1")
	require.NoError(t, err)

	_, err = manager.Rotate(ctx, "access-1", "guess")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = manager.Rotate(ctx, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateRejectsCorruptRecord(t *testing.T) {
	store := newMemoryStore()
	store.data[store.AccessSessionKey("access-2")] = "user.token"

	_, err := newManager(store, time.Hour).Rotate(context.Background(), "access-2", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateSurfacesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection reset")

	_, err := newManager(store, time.Hour).Rotate(context.Background(), "access-3", "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeAndHasSession(t *testing.T) {
	manager := newManager(newMemoryStore(), time.Hour)
	ctx := context.Background()

	_, err := manager.Generate(ctx, uuid.New(), "access-1")
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "access-1"))
	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = manager.HasSession(ctx, " ")
	assert.Error(t, err)
}
