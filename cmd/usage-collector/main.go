package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	rabbit "github.com/magabrotheeeer/subscription-tracker/internal/rabbitmq"
	trackerservice "github.com/magabrotheeeer/subscription-tracker/internal/services/tracker"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil // готово
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting usage-collector", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbit.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to connect to RabbitMQ:", slog.String("URL", cfg.RabbitMQURL))
	defer func() {
		_ = conn.Close()
	}()

	ch, err := rabbit.SetupChannel(conn, rabbit.GetNotificationQueues())
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to setup RabbitMQ channel")
	defer func() {
		_ = ch.Close()
	}()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()
	if err = waitForDB(db); err != nil {
		logger.Error("Database is not ready:", sl.Err(err))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.ReferenceTZ)
	if err != nil {
		logger.Error("failed to load reference timezone", sl.Err(err))
		os.Exit(1)
	}

	trackerService := trackerservice.NewTrackerService(db, db, db, db, db,
		spotify.NewClient(cfg.Spotify), rabbitmq.NewNotificationPublisher(ch),
		logger, loc, cfg.ReconnectLinkURL)

	trackerService.RunEvery(ctx, cfg.CollectInterval)

	logger.Info("usage-collector stopped gracefully")
}
