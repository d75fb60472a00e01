// @title                       Location Tracker API
// @version                     1.0
// @description                 Field representative location ingestion, proximity queries and live position broadcast.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/api"
	"github.com/fieldforce/location-tracker/internal/core/service"
	"github.com/fieldforce/location-tracker/internal/infrastructure/broadcast"
	mongostore "github.com/fieldforce/location-tracker/internal/infrastructure/db/mongo"
	redisstore "github.com/fieldforce/location-tracker/internal/infrastructure/db/redis"
	"github.com/fieldforce/location-tracker/internal/infrastructure/http/handlers"
	"github.com/fieldforce/location-tracker/internal/infrastructure/queue"
	"github.com/fieldforce/location-tracker/internal/pkg/config"
	"github.com/fieldforce/location-tracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Broadcast path: service -> dispatcher -> (redis relay ->) hub -> observers ---
	hub := broadcast.NewHub(cfg.Broadcast.Buffer, logger.Component("hub"))
	defer hub.Close()

	var broadcaster broadcast.Broadcaster = hub
	if cfg.Broadcast.Channel != "" {
		relay := broadcast.NewRedisRelay(rdb, cfg.Broadcast.Channel, hub, logger.Component("relay"))
		broadcaster = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("broadcast relay stopped")
			}
		}()
	}

	dispatcher := queue.NewDispatcher(cfg.Broadcast.Workers, 0, broadcaster, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Services ---
	identities := mongostore.NewIdentityRepository(db)
	locationService := service.NewLocationService(
		mongostore.NewSampleRepository(db),
		mongostore.NewLatestPositionRepository(db),
		identities,
		dispatcher,
		log,
		service.WithRecencyWindow(cfg.RecencyWindow),
		service.WithDedup(redisstore.NewDedupChecker(rdb, cfg.Redis.DedupTTL)),
	)
	authService := service.NewAuthService(identities, cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.RouterConfig{
		JWTSecret:       cfg.JWTSecret,
		Logger:          log,
		AuthService:     authService,
		LocationService: locationService,
		Hub:             hub,
		Health: handlers.NewHealthDependenciesHandler(hub,
			mongostore.Pinger{Client: mongoClient},
			redisstore.Pinger{Client: rdb},
		),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
