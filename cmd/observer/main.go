package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/observer"
	"github.com/fieldforce/location-tracker/pkg/logger"
)

type config struct {
	APIURL   string `env:"OBSERVER_API_URL, default=http://localhost:8080"`
	WSURL    string `env:"OBSERVER_WS_URL,  default=ws://localhost:8080/ws"`
	Token    string `env:"OBSERVER_TOKEN,   required"`
	LogLevel string `env:"LOG_LEVEL,        default=info"`
	// Resync re-reads latest positions after each connect; needs a manager token.
	Resync  bool          `env:"OBSERVER_RESYNC,  default=true"`
	Timeout time.Duration `env:"OBSERVER_TIMEOUT, default=10s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log := logger.Init(logger.Options{Service: "observer"})
		log.Fatal().Err(err).Msg("invalid observer configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "observer",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("observer stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log zerolog.Logger) error {
	client := observer.NewClient(observer.Config{
		URL:              cfg.WSURL,
		Token:            cfg.Token,
		Policy:           observer.DefaultPolicy(),
		HandshakeTimeout: cfg.Timeout,
	}, log)

	if cfg.Resync {
		snapshots := observer.NewSnapshotFetcher(cfg.APIURL, cfg.Token, cfg.Timeout)
		client.OnConnect = func(ctx context.Context) error {
			positions, err := snapshots.Fetch(ctx)
			if err != nil {
				return err
			}
			for _, p := range positions {
				logPosition(log, "snapshot", p)
			}
			log.Info().Int("identities", len(positions)).Msg("resynchronised latest positions")
			return nil
		}
	}
	client.OnEvent = func(p domain.PositionUpdated) {
		logPosition(log, domain.EventPositionUpdated, p)
	}

	return client.Run(ctx)
}

func logPosition(log zerolog.Logger, source string, p domain.PositionUpdated) {
	log.Info().
		Str("source", source).
		Str("user_id", p.UserID).
		Str("name", p.Name).
		Float64("lon", p.Coordinates.Lon).
		Float64("lat", p.Coordinates.Lat).
		Time("timestamp", p.Timestamp).
		Msg("position")
}
