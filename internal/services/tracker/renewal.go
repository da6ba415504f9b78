package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// ProcessRenewal проверяет, совпадает ли дата списания активной подписки
// пользователя с сегодняшним днём в опорном часовом поясе, и если да —
// деактивирует подписку, отвязывает Spotify, вычисляет рекомендацию и
// отправляет уведомление. Возвращает true, если переход сработал.
//
// Переход гейтится флагом активности: повторный проход видит is_active=false
// и ничего не делает, поэтому срабатывание не более одного на дату списания.
func (s *TrackerService) ProcessRenewal(ctx context.Context, user *models.User) (bool, error) {
	const op = "tracker.ProcessRenewal"

	entry, err := s.subs.FindActiveEntryByApp(ctx, user.ID, spotifyAppName)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	today := s.today()
	if entry.NextBillingDate.Format(dateLayout) != today.Format(dateLayout) {
		return false, nil
	}

	records, err := s.usage.ListUsageRecords(ctx, user.ID, spotifyAppName)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	summary := Recommend(entry, records)

	rows, err := s.subs.DeactivateEntry(ctx, entry.ID, summary.Verdict == models.VerdictOmit)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Другой проход успел деактивировать раньше.
		return false, nil
	}

	if err := s.users.ClearSpotifyTokens(ctx, user.ID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("renewal transition fired",
		slog.Int("user_id", user.ID),
		slog.Int("subscription_id", entry.ID),
		slog.String("verdict", string(summary.Verdict)),
		slog.Float64("active_percentage", summary.ActivePercentage),
		slog.Float64("consistency_score", summary.ConsistencyScore))

	message := fmt.Sprintf(
		"Подписка на %s достигла даты списания %s. Рекомендация: %s. Для продолжения отслеживания переподключите аккаунт: %s",
		entry.AppName, entry.NextBillingDate.Format(dateLayout), summary.Verdict, s.reconnectLink)
	if _, err := s.notifications.CreateNotification(ctx, user.ID, message); err != nil {
		s.log.Error("failed to create notification", slog.Int("user_id", user.ID), sl.Err(err))
	}

	notice := models.RenewalNotice{
		Email:         user.Email,
		Name:          user.Name,
		AppName:       entry.AppName,
		Verdict:       summary.Verdict,
		ReconnectLink: s.reconnectLink,
		BillingDate:   entry.NextBillingDate,
	}
	if err := s.publisher.PublishRenewalNotice(notice); err != nil {
		s.log.Error("failed to publish renewal notice", slog.Int("user_id", user.ID), sl.Err(err))
	}

	return true, nil
}
