package models

import "time"

// UsageRecord дневная запись об использовании приложения пользователем.
// Для пары (пользователь, приложение) хранится не более одной записи на дату,
// записи не обновляются и не удаляются.
type UsageRecord struct {
	ID             int        // Идентификатор записи
	UserID         int        // Пользователь
	SubscriptionID *int       // Подписка, если на момент записи была активная
	AppName        string     // Название приложения
	Date           time.Time  // Календарная дата записи
	IsActive       bool       // Было ли использование в этот день
	TotalUsage     int        // Количество событий за день
}

// Verdict рекомендация по подписке: оставить или отказаться.
type Verdict string

const (
	// VerdictKeep рекомендация оставить подписку
	VerdictKeep Verdict = "keep"
	// VerdictOmit рекомендация отказаться от подписки
	VerdictOmit Verdict = "omit"
)

// UsageSummary агрегированные показатели, по которым принимается решение.
type UsageSummary struct {
	TotalDays        int     // Длина окна от начала подписки до даты списания
	ActiveDays       int     // Количество дней с активностью
	ActivePercentage float64 // Доля активных дней в процентах
	ConsistencyScore float64 // Выборочное стандартное отклонение total_usage
	Verdict          Verdict // Итоговая рекомендация
}
