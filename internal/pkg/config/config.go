package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// RecencyWindow bounds how old a sample may be to count in proximity queries.
	RecencyWindow time.Duration `env:"RECENCY_WINDOW, default=24h"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Broadcast BroadcastConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=location_tracker"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=20"`
	// DedupTTL is how long a capture stays recognisable as a redelivery.
	DedupTTL time.Duration `env:"DEDUP_TTL, default=24h"`
}

type BroadcastConfig struct {
	Workers int `env:"BROADCAST_WORKERS, default=4"`
	// Buffer is the per-observer frame buffer.
	Buffer int `env:"BROADCAST_BUFFER, default=64"`
	// Channel is the Redis Pub/Sub channel; empty disables cross-instance relay.
	Channel string `env:"BROADCAST_CHANNEL, default=location-tracker:position_updated"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.RecencyWindow <= 0 {
		return fmt.Errorf("RECENCY_WINDOW must be positive, got %s", c.RecencyWindow)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
