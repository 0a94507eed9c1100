// internal/email/sendgrid.go
package email

import (
	"errors"
	"fmt"
	"time"

	"agri-market-api-server/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNotConfigured is returned when no SendGrid API key is set. Callers
// treat it like any other delivery failure.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Service sends transactional email through SendGrid.
type Service struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		apiKey:    cfg.SendGridAPIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *Service) Send(to, toName, subject, plainText, htmlContent string) error {
	if s.apiKey == "" {
		return ErrNotConfigured
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

// SendOTP delivers a password-recovery one-time password.
func (s *Service) SendOTP(to, toName, otp string, expiresAt time.Time) error {
	subject := "Your password recovery code"
	expiry := expiresAt.UTC().Format("15:04 MST, 2 Jan 2006")
	plainText := fmt.Sprintf("Hello %s,\n\nYour one-time password is %s. It is valid until %s.\n\nIf you did not request this, ignore this email.",
		toName, otp, expiry)
	htmlContent := fmt.Sprintf(`<p>Hello %s,</p><p>Your one-time password is <strong>%s</strong>. It is valid until %s.</p><p>If you did not request this, ignore this email.</p>`,
		toName, otp, expiry)

	return s.Send(to, toName, subject, plainText, htmlContent)
}
