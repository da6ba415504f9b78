// Package models содержит доменные модели пользователя, подписки,
// записей об использовании приложений и уведомлений, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
// Поля Spotify-токенов nullable: nil означает, что аккаунт не привязан.
type User struct {
	ID                  int        // Уникальный идентификатор пользователя
	Name                string     // Имя пользователя
	Email               string     // Электронная почта (уникальная)
	PasswordHash        string     // Хэш пароля пользователя
	SpotifyAccessToken  *string    // Access-токен Spotify
	SpotifyRefreshToken *string    // Refresh-токен Spotify
	SpotifyTokenExpiry  *time.Time // Момент истечения access-токена
	CreatedAt           time.Time  // Дата регистрации
}

// IsLinked сообщает, привязан ли аккаунт Spotify.
func (u *User) IsLinked() bool {
	return u.SpotifyAccessToken != nil && *u.SpotifyAccessToken != ""
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	// Опциональная первая подписка, создаётся вместе с пользователем
	Subscription *DummyEntry `json:"subscription,omitempty" validate:"omitempty"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyValidateEmail используется для проверки существования почты.
type DummyValidateEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// DummyResetPassword используется для сброса пароля по почте.
type DummyResetPassword struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
