// Package trigger реализует служебный HTTP-обработчик внепланового запуска
// сбора активности. Доступ защищён общим секретом в заголовке X-Tracker-Secret.
package trigger

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// Handler управляет внеплановыми запусками сбора активности.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
}

// Service описывает фоновый запуск прохода.
type Service interface {
	StartRun() string
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{log: log, service: service, secret: secret}
}

// ServeHTTP godoc
// @Summary Запустить сбор активности
// @Description Запускает внеплановый проход по всем пользователям. Требует заголовок X-Tracker-Secret.
// @Tags Jobs
// @Produce  json
// @Param X-Tracker-Secret header string true "Общий секрет"
// @Success 202 {object} map[string]any "Запуск принят"
// @Failure 403 {object} response.ErrorResponse "Неверный секрет"
// @Router /jobs/trigger [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.trigger"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Пустой секрет в конфигурации закрывает эндпоинт полностью.
	provided := r.Header.Get("X-Tracker-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		log.Error("invalid trigger secret")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	jobID := h.service.StartRun()
	log.Info("collection run triggered", slog.String("job_id", jobID))

	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"job_id": jobID,
	}))
}
