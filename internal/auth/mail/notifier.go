// Package mail delivers password reset tokens.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
	gomail "github.com/go-mail/mail"
)

const resetSubject = "Redefinição de senha"

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// TLSMode is "starttls" (default), "ssl" or "none".
	TLSMode string

	// ResetURL, when set, is the page that receives the token as the
	// "token" query parameter.
	ResetURL string
}

// SMTPNotifier mails reset tokens through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(m *gomail.Message) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to domain.Principal, token string, ttl time.Duration) error {
	m := n.message(to, token, ttl)
	if err := n.send(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	slogx.FromContext(ctx).Info("reset email sent", slog.Int64("user_id", to.ID))
	return nil
}

func (n *SMTPNotifier) message(to domain.Principal, token string, ttl time.Duration) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetAddressHeader("To", to.Email, to.DisplayName)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/plain", resetBody(to.DisplayName, token, n.cfg.ResetURL, ttl))
	return m
}

func (n *SMTPNotifier) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}

	switch n.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = gomail.NoStartTLS
	default:
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	}

	return d.DialAndSend(m)
}

func resetBody(name, token, resetURL string, ttl time.Duration) string {
	greeting := "Olá"
	if name != "" {
		greeting += ", " + name
	}

	link := token
	if resetURL != "" {
		if u, err := url.Parse(resetURL); err == nil {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
			link = u.String()
		}
	}

	return fmt.Sprintf(
		"%s.\n\nRecebemos uma solicitação para redefinir sua senha.\n"+
			"Use o código abaixo em até %s:\n\n%s\n\n"+
			"Se você não fez esta solicitação, ignore este email.\n",
		greeting, ttl, link,
	)
}

// LogNotifier writes reset tokens to the log instead of sending them. For
// development only.
type LogNotifier struct{}

func (LogNotifier) SendPasswordReset(ctx context.Context, to domain.Principal, token string, ttl time.Duration) error {
	slogx.FromContext(ctx).Warn("reset token (development notifier)",
		slog.Int64("user_id", to.ID),
		slog.String("token", token),
		slog.Duration("ttl", ttl),
	)
	return nil
}
