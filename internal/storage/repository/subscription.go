package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// CreateEntry вставляет новую запись подписки и возвращает её ID.
func (s *Storage) CreateEntry(ctx context.Context, entry models.Entry) (int, error) {
	const op = "storage.CreateEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, app_name, cost, billing_cycle,
			      start_date, next_billing_date, is_active, should_omit)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		entry.UserID, entry.AppName, entry.Cost, entry.BillingCycle,
		entry.StartDate, entry.NextBillingDate, entry.IsActive, entry.ShouldOmit).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadEntry возвращает данные подписки по её ID.
func (s *Storage) ReadEntry(ctx context.Context, id int) (*models.Entry, error) {
	const op = "storage.ReadEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, app_name, cost, billing_cycle, start_date,
			      next_billing_date, is_active, should_omit
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Entry
	if err := row.Scan(&result.ID, &result.UserID, &result.AppName, &result.Cost,
		&result.BillingCycle, &result.StartDate, &result.NextBillingDate,
		&result.IsActive, &result.ShouldOmit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// RemoveEntry удаляет подписку по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveEntry(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListEntrys возвращает список всех подписок пользователя с пагинацией.
func (s *Storage) ListEntrys(ctx context.Context, userID int, limit, offset int) ([]*models.Entry, error) {
	const op = "storage.ListEntrys"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, app_name, cost, billing_cycle, start_date,
			      next_billing_date, is_active, should_omit
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(&item.ID, &item.UserID, &item.AppName, &item.Cost,
			&item.BillingCycle, &item.StartDate, &item.NextBillingDate,
			&item.IsActive, &item.ShouldOmit); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindActiveEntryByApp возвращает активную подписку пользователя на приложение.
// Уникальный частичный индекс гарантирует не более одной такой строки,
// ORDER BY id DESC оставлен для строк, созданных до индекса.
func (s *Storage) FindActiveEntryByApp(ctx context.Context, userID int, appName string) (*models.Entry, error) {
	const op = "storage.FindActiveEntryByApp"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, app_name, cost, billing_cycle, start_date,
			      next_billing_date, is_active, should_omit
			  FROM subscriptions
			  WHERE user_id = $1
			    AND app_name = $2
			    AND is_active = true
			  ORDER BY id DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userID, appName)

	var result models.Entry
	if err := row.Scan(&result.ID, &result.UserID, &result.AppName, &result.Cost,
		&result.BillingCycle, &result.StartDate, &result.NextBillingDate,
		&result.IsActive, &result.ShouldOmit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// DeactivateEntry снимает флаг активности и выставляет should_omit по вердикту.
// Возвращает количество изменённых строк: 0 означает, что подписка
// уже была деактивирована другим проходом.
func (s *Storage) DeactivateEntry(ctx context.Context, id int, shouldOmit bool) (int, error) {
	const op = "storage.DeactivateEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET is_active = false,
			      should_omit = $1
			  WHERE id = $2
			    AND is_active = true`
	res, err := s.DB.ExecContext(ctx, query, shouldOmit, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ReactivateEntry возвращает подписку в активное состояние после переподключения:
// снимает should_omit и сдвигает дату списания.
func (s *Storage) ReactivateEntry(ctx context.Context, entry *models.Entry) (int, error) {
	const op = "storage.ReactivateEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET is_active = true,
			      should_omit = false,
			      next_billing_date = $1
			  WHERE id = $2
			    AND is_active = false`
	res, err := s.DB.ExecContext(ctx, query, entry.NextBillingDate, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
