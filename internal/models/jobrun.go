package models

import "time"

// Статусы запуска фоновой задачи.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobRun запись о запуске фоновой задачи сбора статистики.
// Запуск виден снаружи по идентификатору, а не остаётся
// ненаблюдаемой goroutine.
type JobRun struct {
	ID             string     // UUID запуска
	StartedAt      time.Time  // Момент старта
	FinishedAt     *time.Time // Момент завершения, nil пока идет
	Status         string     // running, completed или failed
	UsersProcessed int        // Успешно обработанные пользователи
	UsersFailed    int        // Пользователи, пропущенные из-за ошибок
	UsersSkipped   int        // Пользователи без привязки, пропущенные сразу
}
