// Package link реализует HTTP-обработчик начала привязки аккаунта Spotify.
//
// Handler формирует ссылку авторизации Spotify с JWT пользователя внутри
// параметра state и перенаправляет на неё клиента.
package link

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// Handler управляет началом OAuth2-процесса привязки Spotify.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает формирование ссылки авторизации.
type Service interface {
	AuthorizeURL(jwtToken string) string
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Начать привязку Spotify
// @Description Перенаправляет пользователя на страницу авторизации Spotify.
// @Tags Spotify
// @Security BearerAuth
// @Success 307 "Редирект на Spotify"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /spotify/link [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.spotify.link"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Error("missing or invalid authorization header")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("missing or invalid authorization header"))
		return
	}
	jwtToken := strings.TrimPrefix(authHeader, "Bearer ")

	url := h.service.AuthorizeURL(jwtToken)
	log.Info("redirecting to spotify authorize page")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
