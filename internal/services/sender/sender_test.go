package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
	body bytes.Buffer
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return nopWriteCloser{&m.body}, nil
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func renewalBody(t *testing.T, verdict models.Verdict) []byte {
	t.Helper()
	notice := models.RenewalNotice{
		Email:         "user@example.com",
		Name:          "Test User",
		AppName:       "Spotify",
		Verdict:       verdict,
		ReconnectLink: "https://tracker.example.com/reconnect",
		BillingDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(notice)
	assert.NoError(t, err)
	return body
}

func TestSendRenewalNotice(t *testing.T) {
	t.Run("sends omit advice email", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)

		transport.On("GetSMTPUser").Return("tracker@example.com")
		transport.On("Connect").Return(client, nil).Once()
		client.On("Mail", "tracker@example.com").Return(nil).Once()
		client.On("Rcpt", "user@example.com").Return(nil).Once()
		client.On("Data").Return(nil, nil).Once()
		client.On("Quit").Return(nil).Once()
		client.On("Close").Return(nil).Once()

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendRenewalNotice(renewalBody(t, models.VerdictOmit))

		assert.NoError(t, err)
		assert.Contains(t, client.body.String(), "Test User")
		assert.Contains(t, client.body.String(), "не продлевать")
		assert.Contains(t, client.body.String(), "https://tracker.example.com/reconnect")
		transport.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("sends keep advice email", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)

		transport.On("GetSMTPUser").Return("tracker@example.com")
		transport.On("Connect").Return(client, nil).Once()
		client.On("Mail", "tracker@example.com").Return(nil).Once()
		client.On("Rcpt", "user@example.com").Return(nil).Once()
		client.On("Data").Return(nil, nil).Once()
		client.On("Quit").Return(nil).Once()
		client.On("Close").Return(nil).Once()

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendRenewalNotice(renewalBody(t, models.VerdictKeep))

		assert.NoError(t, err)
		assert.Contains(t, client.body.String(), "продлить подписку")
	})

	t.Run("invalid json is an error", func(t *testing.T) {
		transport := new(MockTransport)

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendRenewalNotice([]byte("{not json"))

		assert.Error(t, err)
		transport.AssertNotCalled(t, "Connect")
	})

	t.Run("connect failure propagates", func(t *testing.T) {
		transport := new(MockTransport)

		transport.On("GetSMTPUser").Return("tracker@example.com")
		transport.On("Connect").Return(nil, errors.New("dial tcp: refused")).Once()

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendRenewalNotice(renewalBody(t, models.VerdictKeep))

		assert.Error(t, err)
	})
}
