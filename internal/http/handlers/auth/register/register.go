// Package register реализует HTTP-обработчик регистрации новых пользователей.
//
// Handler принимает JSON-запрос с данными учётной записи, валидирует их,
// вызывает бизнес-логику регистрации и возвращает JWT вместе с ID пользователя.
// Вместе с учётной записью может быть создана первая подписка.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler управляет HTTP-запросами на регистрацию пользователей.
type Handler struct {
	log           *slog.Logger
	auth          AuthService
	subscriptions SubscriptionService
	validate      *validator.Validate
}

// AuthService описывает интерфейс бизнес-логики регистрации.
type AuthService interface {
	Register(ctx context.Context, name, email, rawPassword string) (token string, userID int, err error)
}

// SubscriptionService описывает создание первой подписки при регистрации.
type SubscriptionService interface {
	Create(ctx context.Context, userID int, req models.DummyEntry) (int, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, auth AuthService, subscriptions SubscriptionService) *Handler {
	return &Handler{
		log:           log,
		auth:          auth,
		subscriptions: subscriptions,
		validate:      validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать пользователя
// @Description Создает учётную запись и возвращает JWT. Опционально создает первую подписку.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyRegister true "Данные регистрации"
// @Success 200 {object} map[string]any "Успешная регистрация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при регистрации"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRegister
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, userID, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register user"))
		return
	}

	data := map[string]any{
		"token":   token,
		"user_id": userID,
	}

	if req.Subscription != nil {
		id, err := h.subscriptions.Create(r.Context(), userID, *req.Subscription)
		if err != nil {
			// Учётная запись уже создана, подписку можно добавить позже
			log.Warn("failed to create initial subscription", sl.Err(err))
		} else {
			data["subscription_id"] = id
		}
	}

	log.Info("registered new user", slog.Int("user_id", userID))
	render.JSON(w, r, response.OKWithData(data))
}
