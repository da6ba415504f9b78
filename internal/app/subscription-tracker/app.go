// Package subscriptiontracker собирает основное HTTP-приложение:
// хранилище, кэш, клиент Spotify, сервисы и маршруты.
package subscriptiontracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	rabbit "github.com/magabrotheeeer/subscription-tracker/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	spotifylinkservice "github.com/magabrotheeeer/subscription-tracker/internal/services/spotifylink"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	trackerservice "github.com/magabrotheeeer/subscription-tracker/internal/services/tracker"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New создает приложение: подключает хранилище, прогоняет миграции,
// инициализирует кэш, брокер и сервисы, регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbit.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbit.SetupChannel(conn, rabbit.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	spotifyClient := spotify.NewClient(cfg.Spotify)

	loc, err := time.LoadLocation(cfg.ReferenceTZ)
	if err != nil {
		return nil, err
	}

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subservice.NewSubscriptionService(db, db, cacheRedis, logger)
	spotifyLinkService := spotifylinkservice.NewLinkService(db, authService, spotifyClient, cacheRedis, logger)
	trackerService := trackerservice.NewTrackerService(db, db, db, db, db,
		spotifyClient, rabbitmq.NewNotificationPublisher(ch), logger, loc, cfg.ReconnectLinkURL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, subscriptionService, spotifyLinkService, trackerService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и корректно останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
