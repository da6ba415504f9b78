package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrAuthRefresh возвращается, когда обмен refresh-токена не дал нового
// access-токена. Сохранённые токены при этом не трогаются: пользователь
// пропускается до следующего цикла, отвязка выполняется только явным
// disconnect или детектором продления.
var ErrAuthRefresh = errors.New("auth refresh failed")

// RefreshAccessToken меняет refresh-токен пользователя на новый access-токен
// и сохраняет его. Новый refresh-токен, если выдан, заменяет старый.
// Выполняется не более одной попытки за вызов, повторы решает вызывающий.
func (s *TrackerService) RefreshAccessToken(ctx context.Context, user *models.User) (string, error) {
	const op = "tracker.RefreshAccessToken"

	if user.SpotifyRefreshToken == nil || *user.SpotifyRefreshToken == "" {
		return "", fmt.Errorf("%s: %w", op, ErrAuthRefresh)
	}

	resp, err := s.spotify.Refresh(ctx, *user.SpotifyRefreshToken)
	if err != nil {
		s.log.Error("token refresh request failed", slog.Int("user_id", user.ID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrAuthRefresh)
	}
	if resp.AccessToken == "" {
		s.log.Error("token endpoint returned no access token", slog.Int("user_id", user.ID))
		return "", fmt.Errorf("%s: %w", op, ErrAuthRefresh)
	}

	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if err := s.users.UpdateSpotifyTokens(ctx, user.ID, resp.AccessToken, resp.RefreshToken, expiresAt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user.SpotifyAccessToken = &resp.AccessToken
	if resp.RefreshToken != "" {
		user.SpotifyRefreshToken = &resp.RefreshToken
	}
	user.SpotifyTokenExpiry = &expiresAt

	s.log.Info("access token refreshed", slog.Int("user_id", user.ID))
	return resp.AccessToken, nil
}
