package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Requires a reachable Redis; set REDIS_TEST_ADDR to run.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockerExclusive(t *testing.T) {
	client := newTestClient(t)
	locker := NewLocker(client, "test:lock:")
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "booking-1", time.Second)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := locker.Acquire(ctx, "booking-1", time.Second); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second acquire err = %v, want ErrLockHeld", err)
	}

	release()

	again, err := locker.Acquire(ctx, "booking-1", time.Second)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	client := newTestClient(t)
	locker := NewLocker(client, "test:lock:")
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "booking-2", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	other, err := locker.Acquire(ctx, "booking-2", time.Second)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	defer other()

	release()
	if n, _ := client.Exists(ctx, "test:lock:booking-2").Result(); n != 1 {
		t.Error("stale release removed another holder's lock")
	}
}

func TestNoopLocker(t *testing.T) {
	release, err := NoopLocker().Acquire(context.Background(), "x", time.Second)
	if err != nil || release == nil {
		t.Fatalf("NoopLocker.Acquire() release nil = %t, err = %v", release == nil, err)
	}
	release()
}
