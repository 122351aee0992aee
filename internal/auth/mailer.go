package auth

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/evcraddock/rent-finder/internal/email"
)

// Mailer sends account emails.
type Mailer struct {
	config Config
	send   func(cfg email.SMTPConfig, to []string, subject, body string) error
}

// NewMailer creates a mailer with the given config.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, send: email.Send}
}

// SendVerification emails a verification link to u, or logs it in dev mode.
// Returns the link.
func (m *Mailer) SendVerification(u *User, token string) (string, error) {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", m.config.BaseURL, url.QueryEscape(token))

	if m.config.DevMode || !m.config.SMTP.IsConfigured() {
		slog.Info("verification link", "email", u.Email, "link", link)
		return link, nil
	}

	body := email.FormatVerification(u.Name, link)
	if err := m.send(m.config.SMTP, []string{u.Email}, "Rent Finder: confirm your email", body); err != nil {
		return "", fmt.Errorf("sending verification email: %w", err)
	}
	return link, nil
}
