// Package services отправляет пользователям электронные письма о
// сработавших продлениях подписок.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	libsmtp "github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// SenderService собирает и отправляет письма через SMTP-транспорт.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// Transport описывает подключение к SMTP-серверу.
type Transport interface {
	Connect() (libsmtp.Client, error)
	GetSMTPUser() string
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendRenewalNotice разбирает сообщение о продлении из очереди и
// отправляет пользователю письмо с рекомендацией и ссылкой на
// повторное подключение.
func (s *SenderService) SendRenewalNotice(body []byte) error {
	var message models.RenewalNotice
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := fmt.Sprintf("Подписка %s приостановлена", message.AppName)

	var advice string
	if message.Verdict == models.VerdictOmit {
		advice = fmt.Sprintf("Судя по вашей активности, подпиской %s вы почти не пользовались. Рекомендуем не продлевать её.", message.AppName)
	} else {
		advice = fmt.Sprintf("Вы активно пользовались %s. Рекомендуем продлить подписку.", message.AppName)
	}

	bodyText := fmt.Sprintf(`Здравствуйте, %s!

%s числа наступила дата списания по подписке %s, и мы приостановили её отслеживание.

%s

Чтобы возобновить отслеживание, перейдите по ссылке: %s`,
		message.Name, message.BillingDate.Format("2006-01-02"), message.AppName,
		advice, message.ReconnectLink)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
