// Package callback реализует HTTP-обработчик возврата из Spotify после авторизации.
//
// Spotify вызывает этот эндпоинт с параметрами code и state. Handler
// обменивает код на токены, сохраняет их у пользователя и сообщает результат.
package callback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает OAuth2-callback от Spotify.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает завершение привязки аккаунта.
type Service interface {
	HandleCallback(ctx context.Context, code, encodedState string) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Завершить привязку Spotify
// @Description Принимает code и state от Spotify, сохраняет токены пользователя.
// @Tags Spotify
// @Produce  json
// @Param code query string true "Код авторизации"
// @Param state query string true "Состояние с JWT пользователя"
// @Success 200 {object} map[string]any "Аккаунт привязан"
// @Failure 400 {object} response.ErrorResponse "Отсутствует code или state"
// @Failure 500 {object} response.ErrorResponse "Не удалось обменять код на токены"
// @Router /spotify/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.spotify.callback"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Info("authorization denied by user", slog.String("error", errParam))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("authorization denied"))
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		log.Error("missing code or state parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing code or state parameter"))
		return
	}

	user, err := h.service.HandleCallback(r.Context(), code, state)
	if err != nil {
		log.Error("failed to link spotify account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not link spotify account"))
		return
	}

	log.Info("spotify account linked", slog.Int("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id":           user.ID,
		"spotify_connected": true,
	}))
}
