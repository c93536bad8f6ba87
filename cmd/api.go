package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/govevents/config"
	"example.com/govevents/internal/api"
	"example.com/govevents/internal/database"
	"example.com/govevents/internal/messaging"
	"example.com/govevents/internal/notifications"
	"example.com/govevents/internal/search"
	"example.com/govevents/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for managing government structures, events and subscriptions`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Initialize database connection
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}()

	// Initialize the deferred task queue used by the edit triggers
	queue, err := messaging.NewServiceBusQueue(cfg.Azure)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Service Bus queue")
		}
	}()

	// Initialize Elasticsearch indexer
	var indexer *search.EventIndexer
	if cfg.Elastic.Enabled {
		indexer, err = search.NewEventIndexer(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
			indexer = nil
		}
	}

	// Initialize services
	triggers := notifications.NewTriggers(queue)
	eventService := services.NewEventService(db, triggers, indexer)
	structureService := services.NewGovStructureService(db)
	userService := services.NewUserService(db)

	server := api.NewServer(cfg, eventService, structureService, userService)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("Starting API server")
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Allow in-flight requests to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down API server gracefully")
		return err
	}

	log.Info().Msg("API server shutting down gracefully")
	return nil
}
