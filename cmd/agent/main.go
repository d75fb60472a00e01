package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/agent"
	"github.com/fieldforce/location-tracker/internal/agent/offlinequeue"
	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/pkg/logger"
)

func main() {
	cfg, err := agent.LoadConfig()
	if err != nil {
		log := logger.Init(logger.Options{Service: "agent"})
		log.Fatal().Err(err).Msg("invalid agent configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "agent",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("agent stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *agent.Config, log zerolog.Logger) error {
	queue, err := offlinequeue.Open(ctx, cfg.QueuePath, cfg.QueueCapacity)
	if err != nil {
		return err
	}
	defer queue.Close()

	if n, err := queue.Len(ctx); err == nil && n > 0 {
		log.Info().Int("queued", n).Msg("resuming with undelivered samples")
	}

	// No GPS receiver on a workstation: walk around central Paris.
	locator := &agent.SimulatedLocator{
		Origin:     domain.Point{Lon: 2.3522, Lat: 48.8566},
		StepMeters: 250,
	}
	sender := agent.NewHTTPSender(cfg.Endpoint, cfg.Token, cfg.RequestTimeout)

	a := agent.New(*cfg, locator, sender, queue, log)
	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return a.Stop()
}
