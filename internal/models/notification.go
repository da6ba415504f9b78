package models

import "time"

// Notification уведомление пользователя внутри сервиса.
type Notification struct {
	ID        int       // Идентификатор уведомления
	UserID    int       // Получатель
	Message   string    // Текст уведомления
	IsRead    bool      // Прочитано ли
	CreatedAt time.Time // Момент создания
}

// RenewalNotice сообщение о сработавшем продлении,
// публикуется в RabbitMQ и потребляется отправителем писем.
type RenewalNotice struct {
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AppName       string    `json:"app_name"`
	Verdict       Verdict   `json:"verdict"`
	ReconnectLink string    `json:"reconnect_link"`
	BillingDate   time.Time `json:"billing_date"`
}
