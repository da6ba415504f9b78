package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Run выполняет один проход по всем привязанным пользователям.
// Ошибка одного пользователя логируется и не прерывает остальных,
// список всегда обходится до конца. Каждый запуск регистрируется
// записью job_runs и закрывается итоговыми счётчиками.
func (s *TrackerService) Run(ctx context.Context) (*models.JobRun, error) {
	run := &models.JobRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Status:    models.JobStatusRunning,
	}
	return s.run(ctx, run)
}

// StartRun запускает проход в фоне и сразу возвращает идентификатор запуска.
// Итог можно получить позже по записи job_runs.
func (s *TrackerService) StartRun() string {
	run := &models.JobRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Status:    models.JobStatusRunning,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.run(ctx, run); err != nil {
			s.log.Error("triggered run failed", slog.String("job_id", run.ID), sl.Err(err))
		}
	}()
	return run.ID
}

func (s *TrackerService) run(ctx context.Context, run *models.JobRun) (*models.JobRun, error) {
	const op = "tracker.run"

	if err := s.jobs.CreateJobRun(ctx, run.ID); err != nil {
		s.log.Error("failed to register job run", sl.Err(err))
	}

	s.log.Info("starting usage collection run", slog.String("job_id", run.ID))

	users, err := s.users.ListLinkedUsers(ctx)
	if err != nil {
		run.Status = models.JobStatusFailed
		s.finishRun(run)
		return run, fmt.Errorf("%s: %w", op, err)
	}

	for _, user := range users {
		skipped, err := s.processUser(ctx, user)
		if err != nil {
			run.UsersFailed++
			s.log.Error("user processing failed, continuing batch",
				slog.Int("user_id", user.ID), sl.Err(err))
			continue
		}
		if skipped {
			run.UsersSkipped++
			continue
		}
		run.UsersProcessed++
	}

	run.Status = models.JobStatusCompleted
	s.finishRun(run)

	s.log.Info("usage collection run finished",
		slog.String("job_id", run.ID),
		slog.Int("processed", run.UsersProcessed),
		slog.Int("failed", run.UsersFailed),
		slog.Int("skipped", run.UsersSkipped))
	return run, nil
}

// processUser обрабатывает одного пользователя в порядке: детектор продления,
// затем — если токены не были только что отвязаны — выборка активности и
// дневная агрегация. Возвращает true, если сбор пропущен из-за продления.
func (s *TrackerService) processUser(ctx context.Context, user *models.User) (bool, error) {
	fired, err := s.ProcessRenewal(ctx, user)
	if err != nil {
		return false, err
	}
	if fired {
		// Токены отвязаны переходом, собирать активность больше нечем.
		return true, nil
	}

	count, err := s.CountRecentActivity(ctx, user, s.yesterdayStart())
	if err != nil {
		return false, err
	}

	var subscriptionID *int
	entry, err := s.subs.FindActiveEntryByApp(ctx, user.ID, spotifyAppName)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if entry != nil {
		subscriptionID = &entry.ID
	}

	if err := s.RecordDailyUsage(ctx, user.ID, subscriptionID, spotifyAppName, s.today(), count); err != nil {
		return false, err
	}
	return false, nil
}

func (s *TrackerService) finishRun(run *models.JobRun) {
	// Закрываем запись в отдельном контексте: отмена самого запуска
	// не должна терять его итог.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.FinishJobRun(ctx, run); err != nil {
		s.log.Error("failed to finish job run", slog.String("job_id", run.ID), sl.Err(err))
	}
}

// RunEvery запускает проход сразу и затем по тикеру с заданным интервалом,
// пока контекст не будет отменён.
func (s *TrackerService) RunEvery(ctx context.Context, interval time.Duration) {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("collection run failed", sl.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.log.Error("collection run failed", sl.Err(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
