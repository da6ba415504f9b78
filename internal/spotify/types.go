package spotify

import "encoding/json"

// TokenResponse ответ accounts.spotify.com на обмен кода или refresh-токена.
// Поле RefreshToken может отсутствовать при обновлении.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	Error        string `json:"error,omitempty"`
}

// PlayItem один элемент ленты прослушиваний.
type PlayItem struct {
	PlayedAt string          `json:"played_at"`
	Track    json.RawMessage `json:"track"`
}

// RecentlyPlayedPage одна страница ленты недавних прослушиваний.
// Next содержит ссылку на следующую страницу либо пустую строку.
type RecentlyPlayedPage struct {
	Items []PlayItem `json:"items"`
	Next  string     `json:"next"`
}

// Profile профиль пользователя Spotify из /v1/me.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"`
}
