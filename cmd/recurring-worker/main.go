package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/notify"
	"ledger/internal/scheduler"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single generation pass and exit")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentRecurring,
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker", "once", *once)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it the journal is not mirrored and skipped
	// recurrences are only logged.
	var (
		journal  services.JournalPublisher
		notifier services.Notifier = notify.LogNotifier{}
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(amqp.Config{
			URL:          cfg.AMQPURL,
			Exchange:     cfg.AMQPExchange,
			JournalQueue: cfg.AMQPJournalQueue,
			NotifyQueue:  cfg.AMQPNotifyQueue,
		})
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without journal and notifications", applog.FieldError, err)
		} else {
			defer client.Close()
			journal = client
			notifier = notify.NewAMQPNotifier(client)
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - journal events and notifications will not be published")
	}

	transactions := services.NewTransactionService(repo, journal).WithLocation(loc)
	processor := services.NewRecurringProcessor(repo, transactions, notifier)

	run := func(ctx context.Context, now time.Time) error {
		_, err := processor.ProcessDueTransactions(ctx, now)
		if errors.Is(err, services.ErrRunInProgress) {
			logger.WarnContext(ctx, "Previous pass still running, skipping")
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(cfg.RecurringSchedule, loc, run, logger)
	if err != nil {
		logger.Error("Failed to create scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	if *once {
		if err := sched.RunNow(ctx); err != nil {
			logger.Error("Generation pass failed", applog.FieldError, err)
			os.Exit(1)
		}
		return
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Catch up on anything missed while the worker was down; the pass is idempotent.
		if err := sched.RunNow(ctx); err != nil {
			logger.ErrorContext(ctx, "Startup pass failed", applog.FieldError, err)
		}
		if ctx.Err() == nil {
			sched.Start(ctx)
		}
		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down recurring-worker...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		select {
		case <-sched.Stop().Done():
			logger.Info("Recurring-worker shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Recurring-worker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
}
