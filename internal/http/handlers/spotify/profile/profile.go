// Package profile реализует HTTP-обработчик получения профиля Spotify пользователя.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	spotifylink "github.com/magabrotheeeer/subscription-tracker/internal/services/spotifylink"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
)

// Handler управляет HTTP-запросами на получение профиля Spotify.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает проксирование профиля Spotify.
type Service interface {
	Profile(ctx context.Context, user *models.User) (*spotify.Profile, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль Spotify
// @Description Возвращает профиль привязанного аккаунта Spotify.
// @Tags Spotify
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Spotify не привязан"
// @Failure 502 {object} response.ErrorResponse "Ошибка обращения к Spotify API"
// @Router /spotify/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.spotify.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	profile, err := h.service.Profile(r.Context(), user)
	if err != nil {
		if errors.Is(err, spotifylink.ErrNotLinked) {
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("spotify account is not connected"))
			return
		}
		log.Error("failed to get spotify profile", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not get spotify profile"))
		return
	}

	render.JSON(w, r, response.OKWithData(profile))
}
