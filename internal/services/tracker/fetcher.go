package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/spotify"
)

// ErrActivityFetch возвращается, когда лента недоступна или access-токен
// отклонён уже после попытки обновления. Пользователь пропускается до
// следующего цикла.
var ErrActivityFetch = errors.New("activity fetch failed")

// CountRecentActivity возвращает количество прослушиваний пользователя
// после момента after (эксклюзивно), следуя континуациям до конца ленты.
//
// 401 на первой странице приводит к одной попытке обновления токена и
// повтору первой страницы. Ошибка на последующих страницах обрывает
// пагинацию, накопленное число возвращается как результат.
func (s *TrackerService) CountRecentActivity(ctx context.Context, user *models.User, after time.Time) (int, error) {
	const op = "tracker.CountRecentActivity"

	if user.SpotifyAccessToken == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrActivityFetch)
	}
	token := *user.SpotifyAccessToken

	page, err := s.spotify.RecentlyPlayed(ctx, token, after)
	if errors.Is(err, spotify.ErrUnauthorized) {
		token, err = s.RefreshAccessToken(ctx, user)
		if err != nil {
			return 0, err
		}
		page, err = s.spotify.RecentlyPlayed(ctx, token, after)
	}
	if err != nil {
		s.log.Error("failed to fetch first activity page",
			slog.Int("user_id", user.ID), sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, ErrActivityFetch)
	}

	count := len(page.Items)
	for page.Next != "" {
		page, err = s.spotify.RecentlyPlayedPage(ctx, token, page.Next)
		if err != nil {
			// Обрыв на континуации считается деградацией, а не ошибкой:
			// возвращаем уже накопленное количество.
			s.log.Warn("pagination stopped early, returning partial count",
				slog.Int("user_id", user.ID), slog.Int("count", count), sl.Err(err))
			return count, nil
		}
		count += len(page.Items)
	}

	return count, nil
}

// yesterdayStart возвращает начало вчерашнего дня в опорном часовом поясе,
// нижнюю границу выборки активности.
func (s *TrackerService) yesterdayStart() time.Time {
	return s.today().AddDate(0, 0, -1)
}
