package models

import "time"

// BillingCycle цикл оплаты подписки.
type BillingCycle string

const (
	// CycleMonthly месячный цикл оплаты
	CycleMonthly BillingCycle = "monthly"
	// CycleYearly годовой цикл оплаты
	CycleYearly BillingCycle = "yearly"
)

// Entry представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
type Entry struct {
	ID              int          // Идентификатор подписки
	UserID          int          // Владелец подписки
	AppName         string       // Название приложения
	Cost            float64      // Стоимость за цикл
	BillingCycle    BillingCycle // Цикл оплаты: monthly или yearly
	StartDate       time.Time    // Дата начала подписки
	NextBillingDate time.Time    // Дата следующего списания
	IsActive        bool         // Активна ли подписка
	ShouldOmit      bool         // Рекомендация отказаться, выставляется при продлении
}

// NextCycle возвращает дату следующего списания через один цикл после текущей.
func (e *Entry) NextCycle() time.Time {
	if e.BillingCycle == CycleYearly {
		return e.NextBillingDate.AddDate(1, 0, 0)
	}
	return e.NextBillingDate.AddDate(0, 1, 0)
}

// DummyEntry используется для приёма данных подписки из JSON-запроса,
// прежде чем конвертировать их в Entry.
// Даты приходят в виде строк, чтобы их можно было валидировать и парсить вручную.
type DummyEntry struct {
	AppName         string  `json:"app_name" validate:"required"`                        // Название приложения
	Cost            float64 `json:"cost" validate:"required,gt=0"`                       // Стоимость (>0)
	BillingCycle    string  `json:"billing_cycle" validate:"required,oneof=monthly yearly"` // Цикл оплаты
	StartDate       string  `json:"start_date" validate:"required,datetime=2006-01-02"`  // Дата начала
	NextBillingDate string  `json:"next_billing_date" validate:"required,datetime=2006-01-02"` // Дата списания
}
