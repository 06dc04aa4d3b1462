package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const defaultCodeSubject = "Your PharmHub verification code"

// Mailer sends prepared messages. *mail.Client satisfies it.
type Mailer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
}

// NewSMTPMailer builds a go-mail client for cfg. Authentication is only
// configured when both username and password are set.
func NewSMTPMailer(cfg SMTPConfig) (*mail.Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return mail.NewClient(cfg.Host, opts...)
}

// EmailCodeSender mails step-up codes to the user's address.
type EmailCodeSender struct {
	Mailer  Mailer
	From    string
	Subject string
}

func (s EmailCodeSender) SendCode(ctx context.Context, u domain.User, c domain.Challenge, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(u.Email); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	subject := s.Subject
	if subject == "" {
		subject = defaultCodeSubject
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, codeBody(u, c, code))

	if err := s.Mailer.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send code email: %w", err)
	}
	slogx.FromContext(ctx).Info("step-up code mailed",
		slog.String("user_id", u.ID),
		slog.String("challenge_id", c.ID),
		slog.String("reason", c.Reason),
	)
	return nil
}

func codeBody(u domain.User, c domain.Challenge, code string) string {
	var b strings.Builder
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Your verification code is %s.\n", code)
	if !c.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "It expires at %s UTC.\n", c.ExpiresAt.UTC().Format("15:04"))
	}
	if c.IPAddress != "" {
		fmt.Fprintf(&b, "\nThe sign-in attempt came from %s.", c.IPAddress)
	}
	b.WriteString("\nIf this was not you, change your password and contact your administrator.\n")
	return b.String()
}
