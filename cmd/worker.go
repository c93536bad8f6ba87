package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/govevents/config"
	"example.com/govevents/internal/cache"
	"example.com/govevents/internal/database"
	"example.com/govevents/internal/i18n"
	"example.com/govevents/internal/mailer"
	"example.com/govevents/internal/messaging"
	"example.com/govevents/internal/notifications"
	"example.com/govevents/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that sweeps upcoming events, consumes deferred reminder tasks from Azure Service Bus and sends reminder emails`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

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

	// Initialize cache used to guard the daily sweep against duplicate
	// scheduling across worker replicas
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without sweep de-duplication")
		redisCache = cache.Disabled()
	}

	// Initialize Azure Service Bus queue
	queue, err := messaging.NewServiceBusQueue(cfg.Azure)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Service Bus queue")
		}
	}()

	// Initialize the outbound mailer
	smtpMailer, err := mailer.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Notifications.Timezone)
	if err != nil {
		return errors.Wrapf(err, "invalid timezone %q", cfg.Notifications.Timezone)
	}

	events := repositories.NewEventRepository(db)
	subscriptions := repositories.NewSubscriptionRepository(db)

	renderer := notifications.NewRenderer(
		i18n.NewTranslator(cfg.Notifications.DefaultLocale),
		cfg.Notifications.DefaultLocale,
	)
	notifier := notifications.NewNotifier(subscriptions, smtpMailer, renderer,
		cfg.Notifications.BatchSize, cfg.Notifications.SendTimeout)
	job := notifications.NewReminderJob(events, notifier)
	scheduler := notifications.NewScheduler(events, queue, redisCache, loc)

	// Catch up reminders that would have been scheduled while the worker
	// was down, then hand over to the daily sweep
	if err := scheduler.RunStartupCatchUp(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("Startup catch-up failed")
	}

	// Start the service bus processor
	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting Azure Service Bus processor")
		return queue.ProcessMessages(ctx, job.Handle)
	})

	// Start the daily sweep cron job
	g.Go(func() error {
		log.Info().Str("timezone", cfg.Notifications.Timezone).Msg("Starting daily reminder sweep")

		cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
		if err != nil {
			return err
		}

		// Runs at local midnight so date-equality matching sees the
		// whole calendar day
		_, err = cron.NewJob(
			gocron.CronJob("0 0 * * *", false),
			gocron.NewTask(func() {
				if err := scheduler.RunDailySweep(ctx, time.Now()); err != nil {
					log.Error().Err(err).Msg("Daily reminder sweep failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		cron.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return cron.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
