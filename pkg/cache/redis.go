// Package cache owns the shared Redis client and the locks built on it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errNotInitialized = errors.New("redis client is not initialized")

// Config holds Redis connection configuration
type Config struct {
	Address  string // host:port
	Password string
	DB       int
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:     c.Address,
		Password: c.Password,
		DB:       c.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		// Short timeouts: every caller treats Redis as optional
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

var client *redis.Client

// Init connects and verifies the shared client.
func Init(cfg Config) error {
	if cfg.Address == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	c := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	client = c
	return nil
}

// Client returns the shared client, or nil before a successful Init.
func Client() *redis.Client {
	return client
}

func IsInitialized() bool {
	return client != nil
}

func Close() error {
	if client == nil {
		return errNotInitialized
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	client = nil
	return nil
}

// Ping checks the connection with a bounded wait.
func Ping(ctx context.Context) error {
	if client == nil {
		return errNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
