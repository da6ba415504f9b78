// Package subscriptiontracker предоставляет маршруты для основного приложения.
package subscriptiontracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/subscription-tracker/docs"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/validateemail"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/job/jobstatus"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/job/trigger"
	notificationlist "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/notification/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/notification/markread"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/spotify/callback"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/spotify/disconnect"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/spotify/link"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/spotify/profile"
	spotifystatus "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/spotify/status"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/reconnect"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/usage/stats"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	spotifylinkservice "github.com/magabrotheeeer/subscription-tracker/internal/services/spotifylink"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	trackerservice "github.com/magabrotheeeer/subscription-tracker/internal/services/tracker"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService, subscriptionService *subservice.SubscriptionService,
	spotifyLinkService *spotifylinkservice.LinkService, trackerService *trackerservice.TrackerService,
	db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService, subscriptionService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/validate-email", validateemail.New(logger, authService).ServeHTTP)
		r.Post("/auth/reset-password", resetpassword.New(logger, authService).ServeHTTP)

		// Возврат из Spotify, state содержит JWT пользователя
		r.Get("/spotify/callback", callback.New(logger, spotifyLinkService).ServeHTTP)
		// Редирект на Spotify, JWT передается в заголовке
		r.Get("/spotify/link", link.New(logger, spotifyLinkService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Get("/spotify/profile", profile.New(logger, spotifyLinkService).ServeHTTP)
			r.Get("/spotify/status", spotifystatus.New(logger, spotifyLinkService).ServeHTTP)
			r.Delete("/spotify/disconnect", disconnect.New(logger, spotifyLinkService).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/reconnect", reconnect.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}/usage", stats.New(logger, subscriptionService).ServeHTTP)
			r.Get("/notifications", notificationlist.New(logger, db).ServeHTTP)
			r.Post("/notifications/{id}/read", markread.New(logger, db).ServeHTTP)
		})

		// Служебные конечные точки, защищены общим секретом
		r.Post("/jobs/trigger", trigger.New(logger, trackerService, cfg.TriggerSecret).ServeHTTP)
		r.Get("/jobs/{id}", jobstatus.New(logger, db, cfg.TriggerSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
