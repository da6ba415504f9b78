package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ExistsUsageRecord проверяет, есть ли у пользователя запись об использовании
// приложения за указанную дату.
func (s *Storage) ExistsUsageRecord(ctx context.Context, userID int, appName string, date time.Time) (bool, error) {
	const op = "storage.ExistsUsageRecord"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM usage_records
			      WHERE user_id = $1
			        AND app_name = $2
			        AND date = $3
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userID, appName, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateUsageRecord вставляет дневную запись об использовании и возвращает её ID.
func (s *Storage) CreateUsageRecord(ctx context.Context, record models.UsageRecord) (int, error) {
	const op = "storage.CreateUsageRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO usage_records (user_id, subscription_id, app_name, date,
			      is_active, total_usage)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		record.UserID, record.SubscriptionID, record.AppName, record.Date,
		record.IsActive, record.TotalUsage).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListUsageRecords возвращает все записи пользователя по приложению,
// упорядоченные по дате.
func (s *Storage) ListUsageRecords(ctx context.Context, userID int, appName string) ([]*models.UsageRecord, error) {
	const op = "storage.ListUsageRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, subscription_id, app_name, date, is_active, total_usage
			  FROM usage_records
			  WHERE user_id = $1
			    AND app_name = $2
			  ORDER BY date`
	rows, err := s.DB.QueryContext(ctx, query, userID, appName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UsageRecord
	for rows.Next() {
		var item models.UsageRecord
		if err := rows.Scan(&item.ID, &item.UserID, &item.SubscriptionID,
			&item.AppName, &item.Date, &item.IsActive, &item.TotalUsage); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
