// Package services реализует привязку аккаунта Spotify через OAuth2:
// формирование ссылки авторизации, обмен кода на токены в callback,
// проксирование профиля, отвязку и статус подключения.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
)

// ErrNotLinked возвращается, когда у пользователя нет привязанного Spotify.
var ErrNotLinked = errors.New("spotify not connected")

// TokenValidator проверяет JWT и возвращает пользователя.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// UserRepository описывает нужные операции над пользователями.
type UserRepository interface {
	UpdateSpotifyTokens(ctx context.Context, userID int, accessToken, refreshToken string, expiresAt time.Time) error
	ClearSpotifyTokens(ctx context.Context, userID int) error
}

// SpotifyClient описывает используемую часть клиента API Spotify.
type SpotifyClient interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*spotify.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error)
	Me(ctx context.Context, accessToken string) (*spotify.Profile, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// LinkService реализует бизнес-логику привязки аккаунта Spotify.
type LinkService struct {
	users  UserRepository
	auth   TokenValidator
	client SpotifyClient
	cache  Cache
	log    *slog.Logger
}

// NewLinkService создает новый экземпляр LinkService.
func NewLinkService(users UserRepository, auth TokenValidator, client SpotifyClient,
	cache Cache, log *slog.Logger) *LinkService {
	return &LinkService{
		users:  users,
		auth:   auth,
		client: client,
		cache:  cache,
		log:    log,
	}
}

func statusCacheKey(userID int) string {
	return fmt.Sprintf("spotify:status:%d", userID)
}

// AuthorizeURL формирует ссылку авторизации Spotify. JWT пользователя
// упаковывается в state как base64url, чтобы callback мог его опознать.
func (s *LinkService) AuthorizeURL(jwtToken string) string {
	state := base64.URLEncoding.EncodeToString([]byte(jwtToken))
	return s.client.AuthorizeURL(state)
}

// HandleCallback обрабатывает возврат из Spotify: восстанавливает JWT из
// state, находит пользователя, меняет код на токены и сохраняет их.
// Возвращает свежий JWT для фронтенда.
func (s *LinkService) HandleCallback(ctx context.Context, code, encodedState string) (*models.User, error) {
	const op = "spotifylink.HandleCallback"

	stateBytes, err := base64.URLEncoding.DecodeString(encodedState)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid state parameter: %w", op, err)
	}

	user, err := s.auth.ValidateToken(ctx, string(stateBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokenResp, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%s: failed to get access token", op)
	}

	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	if err := s.users.UpdateSpotifyTokens(ctx, user.ID,
		tokenResp.AccessToken, tokenResp.RefreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(statusCacheKey(user.ID)); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.Int("user_id", user.ID), sl.Err(err))
	}

	s.log.Info("spotify account linked", slog.Int("user_id", user.ID))
	return user, nil
}

// Profile возвращает профиль Spotify пользователя. На 401 делает одну
// попытку обновить токен и повторяет запрос.
func (s *LinkService) Profile(ctx context.Context, user *models.User) (*spotify.Profile, error) {
	const op = "spotifylink.Profile"

	if !user.IsLinked() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotLinked)
	}

	profile, err := s.client.Me(ctx, *user.SpotifyAccessToken)
	if errors.Is(err, spotify.ErrUnauthorized) {
		if user.SpotifyRefreshToken == nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tokenResp, rerr := s.client.Refresh(ctx, *user.SpotifyRefreshToken)
		if rerr != nil || tokenResp.AccessToken == "" {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
		if uerr := s.users.UpdateSpotifyTokens(ctx, user.ID,
			tokenResp.AccessToken, tokenResp.RefreshToken, expiresAt); uerr != nil {
			return nil, fmt.Errorf("%s: %w", op, uerr)
		}
		profile, err = s.client.Me(ctx, tokenResp.AccessToken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}

// Disconnect отвязывает аккаунт Spotify пользователя.
func (s *LinkService) Disconnect(ctx context.Context, user *models.User) error {
	const op = "spotifylink.Disconnect"

	if !user.IsLinked() {
		return fmt.Errorf("%s: %w", op, ErrNotLinked)
	}
	if err := s.users.ClearSpotifyTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(statusCacheKey(user.ID)); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.Int("user_id", user.ID), sl.Err(err))
	}
	s.log.Info("spotify account disconnected", slog.Int("user_id", user.ID))
	return nil
}

// Status сообщает, привязан ли аккаунт Spotify, с коротким кешированием.
func (s *LinkService) Status(_ context.Context, user *models.User) bool {
	var cached bool
	found, err := s.cache.Get(statusCacheKey(user.ID), &cached)
	if err == nil && found {
		return cached
	}

	connected := user.IsLinked()
	if err := s.cache.Set(statusCacheKey(user.ID), connected, time.Minute); err != nil {
		s.log.Warn("failed to cache status", slog.Int("user_id", user.ID), sl.Err(err))
	}
	return connected
}
