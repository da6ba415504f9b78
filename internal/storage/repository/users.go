package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var accessToken, refreshToken sql.NullString
	var tokenExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&accessToken, &refreshToken, &tokenExpiry, &u.CreatedAt); err != nil {
		return nil, err
	}
	if accessToken.Valid {
		u.SpotifyAccessToken = &accessToken.String
	}
	if refreshToken.Valid {
		u.SpotifyRefreshToken = &refreshToken.String
	}
	if tokenExpiry.Valid {
		u.SpotifyTokenExpiry = &tokenExpiry.Time
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (int, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO users (name, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, spotify_access_token,
			      spotify_refresh_token, spotify_token_expires_at, created_at
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, userID int) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, spotify_access_token,
			      spotify_refresh_token, spotify_token_expires_at, created_at
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListLinkedUsers возвращает всех пользователей с привязанным аккаунтом Spotify.
func (s *Storage) ListLinkedUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListLinkedUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, spotify_access_token,
			      spotify_refresh_token, spotify_token_expires_at, created_at
			  FROM users
			  WHERE spotify_access_token IS NOT NULL
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSpotifyTokens сохраняет новые токены Spotify пользователя.
// Refresh-токен обновляется только если передан непустым.
func (s *Storage) UpdateSpotifyTokens(ctx context.Context, userID int, accessToken, refreshToken string, expiresAt time.Time) error {
	const op = "storage.UpdateSpotifyTokens"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET spotify_access_token = $1,
			      spotify_refresh_token = COALESCE(NULLIF($2, ''), spotify_refresh_token),
			      spotify_token_expires_at = $3
			  WHERE id = $4`
	res, err := s.DB.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ClearSpotifyTokens отвязывает аккаунт Spotify: все три поля обнуляются.
func (s *Storage) ClearSpotifyTokens(ctx context.Context, userID int) error {
	const op = "storage.ClearSpotifyTokens"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET spotify_access_token = NULL,
			      spotify_refresh_token = NULL,
			      spotify_token_expires_at = NULL
			  WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePasswordHash заменяет хэш пароля пользователя по email.
func (s *Storage) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	const op = "storage.UpdatePasswordHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1
			  WHERE email = $2`
	res, err := s.DB.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
