package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) ListLinkedUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *UsersMock) UpdateSpotifyTokens(ctx context.Context, userID int, accessToken, refreshToken string, expiresAt time.Time) error {
	return m.Called(ctx, userID, accessToken, refreshToken, expiresAt).Error(0)
}
func (m *UsersMock) ClearSpotifyTokens(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type SubsMock struct{ mock.Mock }

func (m *SubsMock) FindActiveEntryByApp(ctx context.Context, userID int, appName string) (*models.Entry, error) {
	args := m.Called(ctx, userID, appName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entry), args.Error(1)
}
func (m *SubsMock) DeactivateEntry(ctx context.Context, id int, shouldOmit bool) (int, error) {
	args := m.Called(ctx, id, shouldOmit)
	return args.Int(0), args.Error(1)
}

type UsageMock struct{ mock.Mock }

func (m *UsageMock) ExistsUsageRecord(ctx context.Context, userID int, appName string, date time.Time) (bool, error) {
	args := m.Called(ctx, userID, appName, date)
	return args.Bool(0), args.Error(1)
}
func (m *UsageMock) CreateUsageRecord(ctx context.Context, record models.UsageRecord) (int, error) {
	args := m.Called(ctx, record)
	return args.Int(0), args.Error(1)
}
func (m *UsageMock) ListUsageRecords(ctx context.Context, userID int, appName string) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, userID, appName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageRecord), args.Error(1)
}

type NotificationsMock struct{ mock.Mock }

func (m *NotificationsMock) CreateNotification(ctx context.Context, userID int, message string) (int, error) {
	args := m.Called(ctx, userID, message)
	return args.Int(0), args.Error(1)
}

type JobsMock struct{ mock.Mock }

func (m *JobsMock) CreateJobRun(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *JobsMock) FinishJobRun(ctx context.Context, run *models.JobRun) error {
	return m.Called(ctx, run).Error(0)
}

type SpotifyMock struct{ mock.Mock }

func (m *SpotifyMock) Refresh(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spotify.TokenResponse), args.Error(1)
}
func (m *SpotifyMock) RecentlyPlayed(ctx context.Context, accessToken string, after time.Time) (*spotify.RecentlyPlayedPage, error) {
	args := m.Called(ctx, accessToken, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spotify.RecentlyPlayedPage), args.Error(1)
}
func (m *SpotifyMock) RecentlyPlayedPage(ctx context.Context, accessToken, pageURL string) (*spotify.RecentlyPlayedPage, error) {
	args := m.Called(ctx, accessToken, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spotify.RecentlyPlayedPage), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishRenewalNotice(notice models.RenewalNotice) error {
	return m.Called(notice).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type trackerMocks struct {
	users         *UsersMock
	subs          *SubsMock
	usage         *UsageMock
	notifications *NotificationsMock
	jobs          *JobsMock
	api           *SpotifyMock
	publisher     *PublisherMock
}

func newTrackerService(t *testing.T) (*TrackerService, *trackerMocks) {
	t.Helper()
	m := &trackerMocks{
		users:         new(UsersMock),
		subs:          new(SubsMock),
		usage:         new(UsageMock),
		notifications: new(NotificationsMock),
		jobs:          new(JobsMock),
		api:           new(SpotifyMock),
		publisher:     new(PublisherMock),
	}
	svc := NewTrackerService(m.users, m.subs, m.usage, m.notifications, m.jobs,
		m.api, m.publisher, newNoopLogger(), time.UTC, "https://tracker.example.com/reconnect")
	return svc, m
}

func strPtr(s string) *string { return &s }

func linkedUser(id int) *models.User {
	return &models.User{
		ID:                  id,
		Name:                "Test User",
		Email:               "user@example.com",
		SpotifyAccessToken:  strPtr("access-token"),
		SpotifyRefreshToken: strPtr("refresh-token"),
	}
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success updates stored and in-memory tokens", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(&spotify.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 3600}, nil).Once()
		m.users.On("UpdateSpotifyTokens", mock.Anything, 1, "new-access", "new-refresh", mock.Anything).
			Return(nil).Once()

		token, err := svc.RefreshAccessToken(ctx, user)

		assert.NoError(t, err)
		assert.Equal(t, "new-access", token)
		assert.Equal(t, "new-access", *user.SpotifyAccessToken)
		assert.Equal(t, "new-refresh", *user.SpotifyRefreshToken)
		m.users.AssertExpectations(t)
		m.api.AssertExpectations(t)
	})

	t.Run("keeps old refresh token when response omits it", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(&spotify.TokenResponse{AccessToken: "new-access", ExpiresIn: 3600}, nil).Once()
		m.users.On("UpdateSpotifyTokens", mock.Anything, 1, "new-access", "", mock.Anything).
			Return(nil).Once()

		_, err := svc.RefreshAccessToken(ctx, user)

		assert.NoError(t, err)
		assert.Equal(t, "refresh-token", *user.SpotifyRefreshToken)
	})

	t.Run("request failure leaves tokens untouched", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(nil, errors.New("network down")).Once()

		_, err := svc.RefreshAccessToken(ctx, user)

		assert.ErrorIs(t, err, ErrAuthRefresh)
		assert.Equal(t, "access-token", *user.SpotifyAccessToken)
		assert.Equal(t, "refresh-token", *user.SpotifyRefreshToken)
		m.users.AssertNotCalled(t, "UpdateSpotifyTokens", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty access token in response is a refresh failure", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(&spotify.TokenResponse{}, nil).Once()

		_, err := svc.RefreshAccessToken(ctx, user)

		assert.ErrorIs(t, err, ErrAuthRefresh)
	})

	t.Run("missing refresh token fails without calling api", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)
		user.SpotifyRefreshToken = nil

		_, err := svc.RefreshAccessToken(ctx, user)

		assert.ErrorIs(t, err, ErrAuthRefresh)
		m.api.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})
}

func TestCountRecentActivity(t *testing.T) {
	ctx := context.Background()
	after := todayUTC().AddDate(0, 0, -1)

	t.Run("sums items across continuations", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("RecentlyPlayed", mock.Anything, "access-token", after).
			Return(&spotify.RecentlyPlayedPage{
				Items: make([]spotify.PlayItem, 2),
				Next:  "https://api.spotify.com/v1/me/player/recently-played?before=100",
			}, nil).Once()
		m.api.On("RecentlyPlayedPage", mock.Anything, "access-token", mock.Anything).
			Return(&spotify.RecentlyPlayedPage{Items: make([]spotify.PlayItem, 3)}, nil).Once()

		count, err := svc.CountRecentActivity(ctx, user, after)

		assert.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("retries first page once after 401 with refreshed token", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("RecentlyPlayed", mock.Anything, "access-token", after).
			Return(nil, spotify.ErrUnauthorized).Once()
		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(&spotify.TokenResponse{AccessToken: "new-access", ExpiresIn: 3600}, nil).Once()
		m.users.On("UpdateSpotifyTokens", mock.Anything, 1, "new-access", "", mock.Anything).
			Return(nil).Once()
		m.api.On("RecentlyPlayed", mock.Anything, "new-access", after).
			Return(&spotify.RecentlyPlayedPage{
				Items: make([]spotify.PlayItem, 1),
				Next:  "https://api.spotify.com/v1/me/player/recently-played?before=200",
			}, nil).Once()
		m.api.On("RecentlyPlayedPage", mock.Anything, "new-access", mock.Anything).
			Return(&spotify.RecentlyPlayedPage{Items: make([]spotify.PlayItem, 2)}, nil).Once()

		count, err := svc.CountRecentActivity(ctx, user, after)

		assert.NoError(t, err)
		assert.Equal(t, 3, count)
		m.api.AssertExpectations(t)
	})

	t.Run("failed refresh after 401 propagates refresh error", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("RecentlyPlayed", mock.Anything, "access-token", after).
			Return(nil, spotify.ErrUnauthorized).Once()
		m.api.On("Refresh", mock.Anything, "refresh-token").
			Return(nil, errors.New("invalid_grant")).Once()

		_, err := svc.CountRecentActivity(ctx, user, after)

		assert.ErrorIs(t, err, ErrAuthRefresh)
	})

	t.Run("first page failure is a fetch error", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("RecentlyPlayed", mock.Anything, "access-token", after).
			Return(nil, errors.New("503 service unavailable")).Once()

		_, err := svc.CountRecentActivity(ctx, user, after)

		assert.ErrorIs(t, err, ErrActivityFetch)
	})

	t.Run("mid-pagination failure returns partial count", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.api.On("RecentlyPlayed", mock.Anything, "access-token", after).
			Return(&spotify.RecentlyPlayedPage{
				Items: make([]spotify.PlayItem, 4),
				Next:  "https://api.spotify.com/v1/me/player/recently-played?before=300",
			}, nil).Once()
		m.api.On("RecentlyPlayedPage", mock.Anything, "access-token", mock.Anything).
			Return(nil, errors.New("timeout")).Once()

		count, err := svc.CountRecentActivity(ctx, user, after)

		assert.NoError(t, err)
		assert.Equal(t, 4, count)
	})
}

func TestRecordDailyUsage(t *testing.T) {
	ctx := context.Background()
	date := todayUTC()

	t.Run("existing record is skipped silently", func(t *testing.T) {
		svc, m := newTrackerService(t)

		m.usage.On("ExistsUsageRecord", mock.Anything, 1, "Spotify", date).
			Return(true, nil).Once()

		err := svc.RecordDailyUsage(ctx, 1, nil, "Spotify", date, 7)

		assert.NoError(t, err)
		m.usage.AssertNotCalled(t, "CreateUsageRecord", mock.Anything, mock.Anything)
	})

	t.Run("new record marks active day", func(t *testing.T) {
		svc, m := newTrackerService(t)

		m.usage.On("ExistsUsageRecord", mock.Anything, 1, "Spotify", date).
			Return(false, nil).Once()
		m.usage.On("CreateUsageRecord", mock.Anything, mock.MatchedBy(func(r models.UsageRecord) bool {
			return r.UserID == 1 && r.AppName == "Spotify" && r.IsActive && r.TotalUsage == 7
		})).Return(10, nil).Once()

		err := svc.RecordDailyUsage(ctx, 1, nil, "Spotify", date, 7)

		assert.NoError(t, err)
		m.usage.AssertExpectations(t)
	})

	t.Run("zero listens make an inactive day", func(t *testing.T) {
		svc, m := newTrackerService(t)

		m.usage.On("ExistsUsageRecord", mock.Anything, 1, "Spotify", date).
			Return(false, nil).Once()
		m.usage.On("CreateUsageRecord", mock.Anything, mock.MatchedBy(func(r models.UsageRecord) bool {
			return !r.IsActive && r.TotalUsage == 0
		})).Return(11, nil).Once()

		err := svc.RecordDailyUsage(ctx, 1, nil, "Spotify", date, 0)

		assert.NoError(t, err)
	})
}

func TestProcessRenewal(t *testing.T) {
	ctx := context.Background()
	today := todayUTC()

	t.Run("no active subscription does nothing", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(nil, repository.ErrNotFound).Once()

		fired, err := svc.ProcessRenewal(ctx, user)

		assert.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("future billing date does not fire", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)

		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(&models.Entry{
				ID:              5,
				UserID:          1,
				AppName:         "Spotify",
				StartDate:       today.AddDate(0, -1, 0),
				NextBillingDate: today.AddDate(0, 0, 3),
				IsActive:        true,
			}, nil).Once()

		fired, err := svc.ProcessRenewal(ctx, user)

		assert.NoError(t, err)
		assert.False(t, fired)
		m.subs.AssertNotCalled(t, "DeactivateEntry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("billing date fires transition with omit verdict", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)
		entry := &models.Entry{
			ID:              5,
			UserID:          1,
			AppName:         "Spotify",
			StartDate:       today.AddDate(0, 0, -30),
			NextBillingDate: today,
			IsActive:        true,
		}

		// 5 активных дней из 30 при одинаковом объёме: pct<30, разброс<15
		records := make([]*models.UsageRecord, 0, 30)
		for i := range 30 {
			records = append(records, &models.UsageRecord{
				UserID:     1,
				AppName:    "Spotify",
				Date:       today.AddDate(0, 0, i-30),
				IsActive:   i < 5,
				TotalUsage: 3,
			})
		}

		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(entry, nil).Once()
		m.usage.On("ListUsageRecords", mock.Anything, 1, "Spotify").
			Return(records, nil).Once()
		m.subs.On("DeactivateEntry", mock.Anything, 5, true).
			Return(1, nil).Once()
		m.users.On("ClearSpotifyTokens", mock.Anything, 1).
			Return(nil).Once()
		m.notifications.On("CreateNotification", mock.Anything, 1, mock.Anything).
			Return(1, nil).Once()
		m.publisher.On("PublishRenewalNotice", mock.MatchedBy(func(n models.RenewalNotice) bool {
			return n.Email == user.Email && n.Verdict == models.VerdictOmit
		})).Return(nil).Once()

		fired, err := svc.ProcessRenewal(ctx, user)

		assert.NoError(t, err)
		assert.True(t, fired)
		m.subs.AssertExpectations(t)
		m.users.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("already deactivated row does not fire twice", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)
		entry := &models.Entry{
			ID:              5,
			UserID:          1,
			AppName:         "Spotify",
			StartDate:       today.AddDate(0, 0, -30),
			NextBillingDate: today,
			IsActive:        true,
		}

		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(entry, nil).Once()
		m.usage.On("ListUsageRecords", mock.Anything, 1, "Spotify").
			Return([]*models.UsageRecord{}, nil).Once()
		m.subs.On("DeactivateEntry", mock.Anything, 5, mock.Anything).
			Return(0, nil).Once()

		fired, err := svc.ProcessRenewal(ctx, user)

		assert.NoError(t, err)
		assert.False(t, fired)
		m.users.AssertNotCalled(t, "ClearSpotifyTokens", mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "PublishRenewalNotice", mock.Anything)
	})

	t.Run("notification failure does not break the transition", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)
		entry := &models.Entry{
			ID:              5,
			UserID:          1,
			AppName:         "Spotify",
			StartDate:       today.AddDate(0, 0, -30),
			NextBillingDate: today,
			IsActive:        true,
		}

		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(entry, nil).Once()
		m.usage.On("ListUsageRecords", mock.Anything, 1, "Spotify").
			Return([]*models.UsageRecord{}, nil).Once()
		m.subs.On("DeactivateEntry", mock.Anything, 5, mock.Anything).
			Return(1, nil).Once()
		m.users.On("ClearSpotifyTokens", mock.Anything, 1).
			Return(nil).Once()
		m.notifications.On("CreateNotification", mock.Anything, 1, mock.Anything).
			Return(0, errors.New("insert failed")).Once()
		m.publisher.On("PublishRenewalNotice", mock.Anything).
			Return(errors.New("broker down")).Once()

		fired, err := svc.ProcessRenewal(ctx, user)

		assert.NoError(t, err)
		assert.True(t, fired)
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	today := todayUTC()

	t.Run("one failing user does not stop the batch", func(t *testing.T) {
		svc, m := newTrackerService(t)
		bad := linkedUser(1)
		good := linkedUser(2)

		m.jobs.On("CreateJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.jobs.On("FinishJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.users.On("ListLinkedUsers", mock.Anything).
			Return([]*models.User{bad, good}, nil).Once()

		// У первого пользователя падает чтение подписки
		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(nil, errors.New("connection reset")).Once()

		// Второй проходит весь конвейер
		m.subs.On("FindActiveEntryByApp", mock.Anything, 2, "Spotify").
			Return(&models.Entry{
				ID:              7,
				UserID:          2,
				AppName:         "Spotify",
				StartDate:       today.AddDate(0, -1, 0),
				NextBillingDate: today.AddDate(0, 0, 10),
				IsActive:        true,
			}, nil).Twice()
		m.api.On("RecentlyPlayed", mock.Anything, "access-token", mock.Anything).
			Return(&spotify.RecentlyPlayedPage{Items: make([]spotify.PlayItem, 2)}, nil).Once()
		m.usage.On("ExistsUsageRecord", mock.Anything, 2, "Spotify", mock.Anything).
			Return(false, nil).Once()
		m.usage.On("CreateUsageRecord", mock.Anything, mock.Anything).
			Return(1, nil).Once()

		run, err := svc.Run(ctx)

		assert.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, run.Status)
		assert.Equal(t, 1, run.UsersProcessed)
		assert.Equal(t, 1, run.UsersFailed)
		assert.Equal(t, 0, run.UsersSkipped)
	})

	t.Run("renewal transition skips collection for that user", func(t *testing.T) {
		svc, m := newTrackerService(t)
		user := linkedUser(1)
		entry := &models.Entry{
			ID:              5,
			UserID:          1,
			AppName:         "Spotify",
			StartDate:       today.AddDate(0, 0, -30),
			NextBillingDate: today,
			IsActive:        true,
		}

		m.jobs.On("CreateJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.jobs.On("FinishJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.users.On("ListLinkedUsers", mock.Anything).
			Return([]*models.User{user}, nil).Once()
		m.subs.On("FindActiveEntryByApp", mock.Anything, 1, "Spotify").
			Return(entry, nil).Once()
		m.usage.On("ListUsageRecords", mock.Anything, 1, "Spotify").
			Return([]*models.UsageRecord{}, nil).Once()
		m.subs.On("DeactivateEntry", mock.Anything, 5, true).
			Return(1, nil).Once()
		m.users.On("ClearSpotifyTokens", mock.Anything, 1).Return(nil).Once()
		m.notifications.On("CreateNotification", mock.Anything, 1, mock.Anything).
			Return(1, nil).Once()
		m.publisher.On("PublishRenewalNotice", mock.Anything).Return(nil).Once()

		run, err := svc.Run(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 0, run.UsersProcessed)
		assert.Equal(t, 1, run.UsersSkipped)
		m.api.AssertNotCalled(t, "RecentlyPlayed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("listing failure fails the run", func(t *testing.T) {
		svc, m := newTrackerService(t)

		m.jobs.On("CreateJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.jobs.On("FinishJobRun", mock.Anything, mock.Anything).Return(nil).Once()
		m.users.On("ListLinkedUsers", mock.Anything).
			Return(nil, errors.New("db down")).Once()

		run, err := svc.Run(ctx)

		assert.Error(t, err)
		assert.Equal(t, models.JobStatusFailed, run.Status)
	})
}
