package rabbitmq

import (
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/streadway/amqp"
)

// NotificationPublisher публикует уведомления о продлении в exchange notifications.
type NotificationPublisher struct {
	ch *amqp.Channel
}

// NewNotificationPublisher создает новый экземпляр NotificationPublisher.
func NewNotificationPublisher(ch *amqp.Channel) *NotificationPublisher {
	return &NotificationPublisher{ch: ch}
}

// PublishRenewalNotice отправляет сообщение о сработавшем продлении подписки.
func (p *NotificationPublisher) PublishRenewalNotice(notice models.RenewalNotice) error {
	return PublishMessage(p.ch, "notifications", "renewal", notice)
}
