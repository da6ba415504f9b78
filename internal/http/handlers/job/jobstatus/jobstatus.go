// Package jobstatus реализует служебный HTTP-обработчик статуса запуска сбора.
package jobstatus

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Handler возвращает состояние запуска сбора по его идентификатору.
type Handler struct {
	log     *slog.Logger
	storage Storage
	secret  string
}

// Storage описывает чтение записей о запусках.
type Storage interface {
	ReadJobRun(ctx context.Context, id string) (*models.JobRun, error)
}

// New создает новый Handler с переданными логгером, хранилищем и секретом.
func New(log *slog.Logger, storage Storage, secret string) *Handler {
	return &Handler{log: log, storage: storage, secret: secret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.jobstatus"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	provided := r.Header.Get("X-Tracker-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		log.Error("invalid trigger secret")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Error("invalid job id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid job id"))
		return
	}

	run, err := h.storage.ReadJobRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("job run not found"))
			return
		}
		log.Error("failed to read job run", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read job run"))
		return
	}

	render.JSON(w, r, response.OKWithData(run))
}
