// Package services содержит конвейер сбора статистики прослушиваний
// и принятия решений о продлении подписок: обновление токенов,
// чтение ленты активности, дневную агрегацию, детектор даты списания
// и пакетный обход всех привязанных пользователей.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
)

// Название приложения, чью активность отслеживает конвейер.
const spotifyAppName = "Spotify"

const dateLayout = "2006-01-02"

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// ListLinkedUsers возвращает пользователей с привязанным Spotify.
	ListLinkedUsers(ctx context.Context) ([]*models.User, error)
	// UpdateSpotifyTokens сохраняет новые токены пользователя.
	UpdateSpotifyTokens(ctx context.Context, userID int, accessToken, refreshToken string, expiresAt time.Time) error
	// ClearSpotifyTokens отвязывает аккаунт Spotify.
	ClearSpotifyTokens(ctx context.Context, userID int) error
}

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// FindActiveEntryByApp возвращает активную подписку пользователя на приложение.
	FindActiveEntryByApp(ctx context.Context, userID int, appName string) (*models.Entry, error)
	// DeactivateEntry снимает флаг активности, возвращает число изменённых строк.
	DeactivateEntry(ctx context.Context, id int, shouldOmit bool) (int, error)
}

// UsageRepository определяет методы для работы с записями об использовании.
type UsageRepository interface {
	// ExistsUsageRecord проверяет наличие записи за дату.
	ExistsUsageRecord(ctx context.Context, userID int, appName string, date time.Time) (bool, error)
	// CreateUsageRecord вставляет дневную запись.
	CreateUsageRecord(ctx context.Context, record models.UsageRecord) (int, error)
	// ListUsageRecords возвращает историю записей по приложению.
	ListUsageRecords(ctx context.Context, userID int, appName string) ([]*models.UsageRecord, error)
}

// NotificationRepository определяет методы для создания уведомлений.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, userID int, message string) (int, error)
}

// JobRepository определяет методы для учёта запусков фоновой задачи.
type JobRepository interface {
	CreateJobRun(ctx context.Context, id string) error
	FinishJobRun(ctx context.Context, run *models.JobRun) error
}

// SpotifyAPI описывает используемую часть клиента внешних API Spotify.
type SpotifyAPI interface {
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error)
	RecentlyPlayed(ctx context.Context, accessToken string, after time.Time) (*spotify.RecentlyPlayedPage, error)
	RecentlyPlayedPage(ctx context.Context, accessToken, pageURL string) (*spotify.RecentlyPlayedPage, error)
}

// NoticePublisher публикует сообщения о сработавших продлениях.
type NoticePublisher interface {
	PublishRenewalNotice(notice models.RenewalNotice) error
}

// TrackerService реализует конвейер сбора статистики и решений о продлении.
type TrackerService struct {
	users         UserRepository
	subs          SubscriptionRepository
	usage         UsageRepository
	notifications NotificationRepository
	jobs          JobRepository
	spotify       SpotifyAPI
	publisher     NoticePublisher
	log           *slog.Logger
	loc           *time.Location
	reconnectLink string
}

// NewTrackerService создает новый экземпляр TrackerService.
// Все даты сравниваются в часовом поясе loc, независимо от локали сервера.
func NewTrackerService(users UserRepository, subs SubscriptionRepository, usage UsageRepository,
	notifications NotificationRepository, jobs JobRepository, api SpotifyAPI,
	publisher NoticePublisher, log *slog.Logger, loc *time.Location, reconnectLink string) *TrackerService {
	return &TrackerService{
		users:         users,
		subs:          subs,
		usage:         usage,
		notifications: notifications,
		jobs:          jobs,
		spotify:       api,
		publisher:     publisher,
		log:           log,
		loc:           loc,
		reconnectLink: reconnectLink,
	}
}

// today возвращает начало текущего дня в опорном часовом поясе.
func (s *TrackerService) today() time.Time {
	now := time.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
