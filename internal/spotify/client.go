// Package spotify реализует клиент внешних API Spotify:
// обмен и обновление OAuth-токенов через accounts.spotify.com
// и чтение ленты недавних прослушиваний через api.spotify.com.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
)

// ErrUnauthorized сигнал истёкшего access-токена (HTTP 401 от API).
var ErrUnauthorized = errors.New("spotify: unauthorized")

// Client клиент API Spotify.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	accountsURL  string
	apiURL       string
	httpClient   *http.Client
}

// NewClient создаёт новый клиент по учетным данным приложения из конфига.
func NewClient(cfg config.Spotify) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		accountsURL:  cfg.AccountsURL,
		apiURL:       cfg.APIURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL собирает ссылку авторизации, state передается как есть.
func (c *Client) AuthorizeURL(state string) string {
	scope := "user-read-private user-read-email user-read-recently-played"
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", scope)
	q.Set("state", state)
	return c.accountsURL + "/authorize?" + q.Encode()
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*TokenResponse, error) {
	const op = "spotify.tokenRequest"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("%s: token endpoint error: %s", op, tokenResp.Error)
	}
	return &tokenResp, nil
}

// ExchangeCode меняет authorization code на пару токенов.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	return c.tokenRequest(ctx, form)
}

// Refresh меняет refresh-токен на новый access-токен.
// Новый refresh-токен возвращается не всегда.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

// RecentlyPlayed возвращает первую страницу ленты прослушиваний
// после момента after (эксклюзивно).
func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string, after time.Time) (*RecentlyPlayedPage, error) {
	pageURL := c.apiURL + "/me/player/recently-played?limit=50&after=" +
		strconv.FormatInt(after.UnixMilli(), 10)
	return c.RecentlyPlayedPage(ctx, accessToken, pageURL)
}

// RecentlyPlayedPage читает страницу ленты по готовой ссылке (континуация).
func (c *Client) RecentlyPlayedPage(ctx context.Context, accessToken, pageURL string) (*RecentlyPlayedPage, error) {
	const op = "spotify.RecentlyPlayedPage"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var page RecentlyPlayedPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &page, nil
}

// Me возвращает профиль пользователя по access-токену.
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	const op = "spotify.Me"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}
