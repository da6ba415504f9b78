// Package disconnect реализует HTTP-обработчик отвязки аккаунта Spotify.
package disconnect

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
)

// Handler управляет HTTP-запросами на отвязку Spotify.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отвязку аккаунта.
type Service interface {
	Disconnect(ctx context.Context, user *models.User) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.spotify.disconnect"
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

	if err := h.service.Disconnect(r.Context(), user); err != nil {
		if errors.Is(err, spotifylink.ErrNotLinked) {
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("spotify account is not connected"))
			return
		}
		log.Error("failed to disconnect spotify account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not disconnect spotify account"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"spotify_connected": false,
	}))
}
