package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// RecordDailyUsage создаёт дневную запись об использовании приложения:
// is_active выставляется по факту наличия событий, total_usage равен их числу.
//
// Если запись за (пользователь, приложение, дата) уже существует, вызов
// молча завершается без изменений — повторные запуски за один день
// идемпотентны. Записи никогда не обновляются и не удаляются.
func (s *TrackerService) RecordDailyUsage(ctx context.Context, userID int, subscriptionID *int,
	appName string, date time.Time, count int) error {
	const op = "tracker.RecordDailyUsage"

	exists, err := s.usage.ExistsUsageRecord(ctx, userID, appName, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		s.log.Info("usage record already exists, skipping",
			slog.Int("user_id", userID), slog.String("date", date.Format(dateLayout)))
		return nil
	}

	record := models.UsageRecord{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		AppName:        appName,
		Date:           date,
		IsActive:       count > 0,
		TotalUsage:     count,
	}
	id, err := s.usage.CreateUsageRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("usage record created",
		slog.Int("id", id), slog.Int("user_id", userID), slog.Int("total_usage", count))
	return nil
}
