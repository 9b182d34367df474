// Package main is the entry point for the roulette table server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"roulette-table/internal/config"
	"roulette-table/internal/game"
	"roulette-table/internal/game/roulette"
	"roulette-table/internal/handler"
	"roulette-table/internal/pkg/db"
	"roulette-table/internal/pkg/lock"
	"roulette-table/internal/repository"
	"roulette-table/internal/server"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Logging.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The round journal is optional; without it the server needs no database.
	var (
		journal roulette.Journal
		rounds  *handler.RoundsHandler
		health  server.HealthChecker
	)
	if cfg.Journal.Enabled {
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		if err := db.Migrate(ctx, dbPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		roundRepo := repository.NewRoundRepository(dbPool.Pool)
		journal = roundRepo
		rounds = handler.NewRoundsHandler(roundRepo)
		health = dbPool
		log.Info().Msg("Round journal enabled")
	}

	registry := game.NewRegistry()
	tableLock := lock.NewTableLock()

	tables := handler.NewTableHandler(
		cfg.Table,
		cfg.Server.AllowedOrigins,
		registry,
		tableLock,
		roulette.RandomWheel{},
		journal,
	)
	srv := server.New(cfg.Server, tables, rounds, health)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Int("open_tables", registry.Count()).Msg("Server stopped")
}
