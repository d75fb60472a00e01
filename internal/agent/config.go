package agent

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fieldforce/location-tracker/internal/agent/offlinequeue"
)

// Config holds the sampling agent settings.
type Config struct {
	// Endpoint is the API base URL, e.g. http://localhost:8080.
	Endpoint string `koanf:"endpoint"`
	Token    string `koanf:"token"`
	// Identity, when set, is sent as userId (privileged write path).
	Identity string `koanf:"identity"`

	Interval        time.Duration `koanf:"interval"`
	Heartbeat       time.Duration `koanf:"heartbeat"`
	MinDisplacement float64       `koanf:"min_displacement"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`

	QueuePath     string `koanf:"queue_path"`
	QueueCapacity int    `koanf:"queue_capacity"`
	// DrainRate caps redeliveries per second while draining the queue.
	DrainRate    int           `koanf:"drain_rate"`
	RetryInitial time.Duration `koanf:"retry_initial"`
	RetryMax     time.Duration `koanf:"retry_max"`
	AttemptWarn  int           `koanf:"attempt_warn"`

	DeviceModel string `koanf:"device_model"`
	AppVersion  string `koanf:"app_version"`
	NetworkType string `koanf:"network_type"`
	LogLevel    string `koanf:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:        "http://localhost:8080",
		Interval:        5 * time.Minute,
		Heartbeat:       15 * time.Minute,
		MinDisplacement: 100,
		RequestTimeout:  10 * time.Second,
		QueuePath:       "data/agent-queue.db",
		QueueCapacity:   offlinequeue.DefaultCapacity,
		DrainRate:       5,
		RetryInitial:    5 * time.Second,
		RetryMax:        5 * time.Minute,
		AttemptWarn:     50,
		DeviceModel:     "simulated",
		AppVersion:      "1.0.0",
		NetworkType:     "unknown",
		LogLevel:        "info",
	}
}

// LoadConfig layers defaults, the YAML file named by AGENT_CONFIG (if any) and
// AGENT_* environment variables, lowest precedence first.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("AGENT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// AGENT_QUEUE_PATH -> queue_path
	envProvider := env.Provider("AGENT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "agent_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint must not be empty")
	case c.Token == "":
		return errors.New("token must not be empty")
	case c.Interval <= 0:
		return errors.New("interval must be positive")
	case c.MinDisplacement < 0:
		return errors.New("min_displacement must not be negative")
	case c.QueueCapacity <= 0:
		return errors.New("queue_capacity must be positive")
	case c.DrainRate <= 0:
		return errors.New("drain_rate must be positive")
	case c.RetryInitial <= 0 || c.RetryMax < c.RetryInitial:
		return errors.New("retry bounds must satisfy 0 < retry_initial <= retry_max")
	}
	return nil
}
