// Package redis holds the Redis-backed pieces of the API: the replay
// deduplication index and the client shared with the broadcast relay.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes one Redis endpoint.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize of zero keeps go-redis' default (10 per CPU).
	PoolSize int
	// Timeout bounds dialing and the startup ping. Defaults to 5s.
	Timeout time.Duration
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &redis.Options{
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: timeout,
		// Pub/Sub receives block far longer than this; go-redis lifts the
		// read deadline for those connections.
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Connect opens a client and refuses to return it until Redis answers a PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Pinger exposes the client to the readiness check.
type Pinger struct {
	Client *redis.Client
}

func (p Pinger) Name() string { return "redis" }

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
