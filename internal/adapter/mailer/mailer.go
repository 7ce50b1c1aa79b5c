package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc delivers one message. It is gomail's DialAndSend outside of tests.
type sendFunc func(m ...*gomail.Message) error

// SMTPMailer sends listing notifications through SMTP behind a circuit breaker.
type SMTPMailer struct {
	from    string
	send    sendFunc
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *logger.Logger
}

func NewSMTPMailer(cfg Config, log *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPMailer(cfg.From, dialer.DialAndSend, log), nil
}

func newSMTPMailer(from string, send sendFunc, log *logger.Logger) *SMTPMailer {
	log = log.Named("SMTPMailer")
	st := gobreaker.Settings{
		Name:    "smtp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &SMTPMailer{
		from:    from,
		send:    send,
		breaker: gobreaker.NewCircuitBreaker[struct{}](st),
		logger:  log,
	}
}

func (s *SMTPMailer) SendListingCreatedEmail(ctx context.Context, toEmail, listingTitle string) error {
	if toEmail == "" {
		return errors.New("no recipient provided for email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "New Listing Created")
	m.SetBody("text/plain", "Your listing '"+listingTitle+"' has been created successfully.")

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.send(m)
	})
	if err != nil {
		s.logger.Warn("Failed to send listing created email", zap.String("to", toEmail), zap.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	s.logger.Debug("Listing created email sent", zap.String("to", toEmail))
	return nil
}
