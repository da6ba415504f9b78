package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// CreateJobRun регистрирует новый запуск фоновой задачи.
func (s *Storage) CreateJobRun(ctx context.Context, id string) error {
	const op = "storage.CreateJobRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO job_runs (id, status)
			  VALUES ($1, $2)`
	if _, err := s.DB.ExecContext(ctx, query, id, models.JobStatusRunning); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FinishJobRun закрывает запись о запуске: статус, момент завершения и счётчики.
func (s *Storage) FinishJobRun(ctx context.Context, run *models.JobRun) error {
	const op = "storage.FinishJobRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE job_runs
			  SET finished_at = now(),
			      status = $1,
			      users_processed = $2,
			      users_failed = $3,
			      users_skipped = $4
			  WHERE id = $5`
	if _, err := s.DB.ExecContext(ctx, query,
		run.Status, run.UsersProcessed, run.UsersFailed, run.UsersSkipped, run.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadJobRun возвращает запись о запуске по идентификатору.
func (s *Storage) ReadJobRun(ctx context.Context, id string) (*models.JobRun, error) {
	const op = "storage.ReadJobRun"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, started_at, finished_at, status,
			      users_processed, users_failed, users_skipped
			  FROM job_runs
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var run models.JobRun
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Status,
		&run.UsersProcessed, &run.UsersFailed, &run.UsersSkipped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
