package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
)

func TestFixedWindowAllowCountsUntilLimit(t *testing.T) {
	ctx := context.Background()
	mock := newFakeCommands()
	client := &Client{store: mock}

	var results []bool
	for i := 0; i < 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if count != int64(i+1) {
			t.Fatalf("call %d: expected count %d, got %d", i, i+1, count)
		}
		results = append(results, allowed)
	}
	if !results[0] || !results[1] || results[2] {
		t.Fatalf("expected [true true false], got %v", results)
	}

	key := "rug:rate_limit:login:ip:1.2.3.4"
	if mock.ttls[key] != time.Minute {
		t.Fatalf("expected window ttl on %s, got %v", key, mock.ttls[key])
	}
	if mock.ttlWrites != 1 {
		t.Fatalf("ttl should only be attached once, got %d writes", mock.ttlWrites)
	}
}

func TestIncrWithTTLReattachesMissingExpiry(t *testing.T) {
	ctx := context.Background()
	mock := newFakeCommands()
	client := &Client{store: mock}

	mock.counters["orphan"] = 5
	count, err := client.IncrWithTTL(ctx, "orphan", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6, got %d", count)
	}
	if mock.ttls["orphan"] != time.Hour {
		t.Fatalf("expected ttl to be attached to counter without expiry")
	}
}

func TestIncrWithTTLSurfacesExpireFailure(t *testing.T) {
	mock := newFakeCommands()
	mock.expireErr = errors.New("readonly replica")
	client := &Client{store: mock}

	count, err := client.IncrWithTTL(context.Background(), "k", time.Second)
	if err == nil {
		t.Fatalf("expected expire error")
	}
	if count != 1 {
		t.Fatalf("count should still be reported, got %d", count)
	}
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCommands()}

	key := client.AccessSessionKey("access-1")
	if err := client.Set(ctx, key, "user.token", 10*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != "user.token" {
		t.Fatalf("expected stored value, got %q err=%v", got, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after del, got %v", err)
	}
}

func TestGetDelConsumesOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCommands()}
	key := client.AccessSessionKey("access-2")
	if err := client.Set(ctx, key, "record", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := client.GetDel(ctx, key)
	if err != nil || got != "record" {
		t.Fatalf("expected record, got %q err=%v", got, err)
	}
	if _, err := client.GetDel(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("second GetDel should miss, got %v", err)
	}
}

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCommands()}

	ok, err := client.SetNX(ctx, client.LockKey("cron"), "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, client.LockKey("cron"), "b", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetNX should lose, ok=%v err=%v", ok, err)
	}
}

func TestUnconnectedClientReturnsError(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); !errors.Is(err, errNotConnected) {
		t.Fatalf("expected errNotConnected, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("closing a nil client should be a no-op, got %v", err)
	}
	if _, _, err := (&Client{}).FixedWindowAllow(context.Background(), "s", 1, time.Second); !errors.Is(err, errNotConnected) {
		t.Fatalf("expected errNotConnected, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"): "rug:idempotency:scope:id",
		client.RateLimitKey("scope"):         "rug:rate_limit:scope",
		client.AccessSessionKey("jti"):       "rug:session:access:jti",
		client.LockKey(""):                   "rug:lock",
		client.LockKey(" cron "):             "rug:lock:cron",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestClientOptions(t *testing.T) {
	if _, err := clientOptions(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := clientOptions(config.RedisConfig{
		URL:         "redis://:secret@cache.internal:6380/2",
		DB:          5,
		PoolSize:    20,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.Password != "secret" {
		t.Fatalf("url values not applied: %+v", opts)
	}
	if opts.DB != 2 {
		t.Fatalf("db from url should win, got %d", opts.DB)
	}
	if opts.PoolSize != 20 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("config should fill unset pool settings: %+v", opts)
	}

	opts, err = clientOptions(config.RedisConfig{Address: "localhost:6379", DB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 1 {
		t.Fatalf("address options not applied: %+v", opts)
	}
}

type fakeCommands struct {
	values    map[string]string
	counters  map[string]int64
	ttls      map[string]time.Duration
	ttlWrites int
	expireErr error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) GetDel(ctx context.Context, key string) *redis.StringCmd {
	cmd := f.Get(ctx, key)
	delete(f.values, key)
	return cmd
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := f.values[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if f.expireErr != nil {
		return redis.NewBoolResult(false, f.expireErr)
	}
	if _, ok := f.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = ttl
	f.ttlWrites++
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
		delete(f.counters, key)
		delete(f.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
