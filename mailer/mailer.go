package mailer

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers account emails.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error
}

type Config struct {
	Driver         string // smtp, sendgrid or log
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	From           string
	FromName       string
	SendGridAPIKey string
}

// New picks the Mailer for cfg.Driver.
func New(cfg Config) (Mailer, error) {
	switch cfg.Driver {
	case "smtp":
		return &SMTPMailer{cfg: cfg}, nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail driver")
		}
		return &SendGridMailer{cfg: cfg, client: sendgrid.NewSendClient(cfg.SendGridAPIKey)}, nil
	case "log", "":
		return LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

const otpSubject = "Your verification code"

func otpBody(name, otp string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>Your verification code is <strong>%s</strong>.</p>
<p>It expires in %d minutes.</p>`, html.EscapeString(name), otp, int(ttl.Minutes()))
}

// SMTPMailer sends HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg Config
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.message(to, otpBody(name, otp, ttl))
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to, body string) string {
	var b strings.Builder
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", otpSubject)
	b.WriteString(body)
	return b.String()
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	cfg    Config
	client *sendgrid.Client
}

func (m *SendGridMailer) SendOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error {
	from := mail.NewEmail(m.cfg.FromName, m.cfg.From)
	recipient := mail.NewEmail(name, to)
	body := otpBody(name, otp, ttl)
	plain := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", otp, int(ttl.Minutes()))

	resp, err := m.client.SendWithContext(ctx, mail.NewSingleEmail(from, otpSubject, recipient, plain, body))
	if err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send OTP email: sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}

// LogMailer writes the code to the log instead of sending it. Used in
// development.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, to, _, otp string, ttl time.Duration) error {
	log.Printf("OTP for %s: %s (valid %s)", to, otp, ttl)
	return nil
}
