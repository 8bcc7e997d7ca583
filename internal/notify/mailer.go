package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers fully built messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends the account e-mails (confirmation code, password reset)
type Mailer struct {
	from   string
	sender Sender
	logger *zap.Logger
}

// NewMailer creates an SMTP mailer. Without SMTP_HOST configured every send
// is skipped with a warning.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	m := &Mailer{from: cfg.From, logger: logger}
	if cfg.Enabled() {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// NewMailerWithSender creates a mailer over a custom transport
func NewMailerWithSender(from string, sender Sender, logger *zap.Logger) *Mailer {
	return &Mailer{from: from, sender: sender, logger: logger}
}

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Confirm your e-mail</h2>
    <p>Your confirmation code is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">{{.Code}}</div>
    <p>The code expires at {{.ExpiresAt}}.</p>
  </div>
</body>
</html>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset</h2>
    <p>Use this token to choose a new password:</p>
    <div style="font-size: 18px; font-weight: bold;">{{.Code}}</div>
    <p>The token expires at {{.ExpiresAt}}. If you did not ask for a reset, ignore this message.</p>
  </div>
</body>
</html>`))
)

type mailData struct {
	Code      string
	ExpiresAt string
}

// SendEmailConfirmation mails a 6-digit confirmation code
func (m *Mailer) SendEmailConfirmation(ctx context.Context, to, code string, expiresAt time.Time) error {
	return m.send(ctx, to, "Confirm your e-mail", confirmationTmpl, mailData{Code: code, ExpiresAt: expiresAt.UTC().Format(time.RFC1123)})
}

// SendPasswordReset mails a password reset token
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error {
	return m.send(ctx, to, "Password reset", resetTmpl, mailData{Code: token, ExpiresAt: expiresAt.UTC().Format(time.RFC1123)})
}

func (m *Mailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data mailData) error {
	if m.sender == nil {
		m.logger.Warn("smtp not configured, skip email", zap.String("subject", subject))
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("send email: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
