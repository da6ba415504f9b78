// Package services содержит бизнес-логику для управления подписками и кешированием.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	tracker "github.com/magabrotheeeer/subscription-tracker/internal/services/tracker"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateEntry добавляет новую подписку и возвращает её ID.
	CreateEntry(ctx context.Context, entry models.Entry) (int, error)
	// ReadEntry возвращает подписку по ID.
	ReadEntry(ctx context.Context, id int) (*models.Entry, error)
	// RemoveEntry удаляет подписку по ID и возвращает количество удалённых записей.
	RemoveEntry(ctx context.Context, id int) (int, error)
	// ListEntrys возвращает список подписок пользователя с пагинацией.
	ListEntrys(ctx context.Context, userID int, limit, offset int) ([]*models.Entry, error)
	// FindActiveEntryByApp возвращает активную подписку пользователя на приложение.
	FindActiveEntryByApp(ctx context.Context, userID int, appName string) (*models.Entry, error)
	// ReactivateEntry повторно включает неактивную подписку.
	ReactivateEntry(ctx context.Context, entry *models.Entry) (int, error)
}

// UsageRepository определяет методы для чтения записей активности.
type UsageRepository interface {
	ListUsageRecords(ctx context.Context, userID int, appName string) ([]*models.UsageRecord, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo  SubscriptionRepository
	usage UsageRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, usage UsageRepository,
	cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		usage: usage,
		cache: cache,
		log:   log,
	}
}

func entryCacheKey(id int) string {
	return fmt.Sprintf("subscription:%d", id)
}

// Create создает новую подписку для пользователя, кеширует её и возвращает ID.
func (s *SubscriptionService) Create(ctx context.Context, userID int, req models.DummyEntry) (int, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}
	nextBillingDate, err := time.Parse("2006-01-02", req.NextBillingDate)
	if err != nil {
		return 0, fmt.Errorf("invalid next billing date: %w", err)
	}
	if nextBillingDate.Before(startDate) {
		return 0, fmt.Errorf("next billing date must not be earlier than start date")
	}

	entry := models.Entry{
		UserID:          userID,
		AppName:         req.AppName,
		Cost:            req.Cost,
		BillingCycle:    models.BillingCycle(req.BillingCycle),
		StartDate:       startDate,
		NextBillingDate: nextBillingDate,
		IsActive:        true,
	}

	id, err := s.repo.CreateEntry(ctx, entry)
	if err != nil {
		return 0, err
	}

	s.log.Info("created new subscription", slog.Int("id", id))

	entry.ID = id
	if err := s.cache.Set(entryCacheKey(id), entry, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", entryCacheKey(id)), slog.Any("err", err))
	}

	return id, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
func (s *SubscriptionService) Read(ctx context.Context, id int) (*models.Entry, error) {
	var result *models.Entry
	cacheKey := entryCacheKey(id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ReadEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Remove удаляет подписку по ID и инвалидирует кеш.
func (s *SubscriptionService) Remove(ctx context.Context, id int) (int, error) {
	cacheKey := entryCacheKey(id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.RemoveEntry(ctx, id)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List возвращает список подписок пользователя с пагинацией.
func (s *SubscriptionService) List(ctx context.Context, userID int, limit, offset int) ([]*models.Entry, error) {
	return s.repo.ListEntrys(ctx, userID, limit, offset)
}

// Reconnect повторно включает ранее отключённую подписку: сбрасывает
// флаг рекомендации и сдвигает дату списания на один цикл вперёд.
func (s *SubscriptionService) Reconnect(ctx context.Context, id int) (*models.Entry, error) {
	const op = "subscription.Reconnect"

	entry, err := s.repo.ReadEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entry.IsActive {
		return nil, fmt.Errorf("%s: subscription is already active", op)
	}

	entry.NextBillingDate = entry.NextCycle()
	count, err := s.repo.ReactivateEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: subscription is already active", op)
	}

	if err := s.cache.Invalidate(entryCacheKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", entryCacheKey(id)), slog.Any("err", err))
	}

	entry.IsActive = true
	entry.ShouldOmit = false
	s.log.Info("reconnected subscription", slog.Int("id", id))
	return entry, nil
}

// UsageStats возвращает сводку активности по подписке вместе с
// предварительной рекомендацией на текущий момент.
func (s *SubscriptionService) UsageStats(ctx context.Context, userID int, id int) (*models.Entry, models.UsageSummary, error) {
	const op = "subscription.UsageStats"

	entry, err := s.repo.ReadEntry(ctx, id)
	if err != nil {
		return nil, models.UsageSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	if entry.UserID != userID {
		return nil, models.UsageSummary{}, fmt.Errorf("%s: subscription belongs to another user", op)
	}

	records, err := s.usage.ListUsageRecords(ctx, userID, entry.AppName)
	if err != nil {
		return nil, models.UsageSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	summary := tracker.Recommend(entry, records)
	return entry, summary, nil
}
