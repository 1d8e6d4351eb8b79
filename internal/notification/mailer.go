package notification

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

var ErrMailerDisabled = errors.New("mailer is not configured")

type MailerConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// Mailer sends approval e-mails over SMTP.
type Mailer struct {
	cfg  MailerConfig
	log  *zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg MailerConfig, log *zerolog.Logger) *Mailer {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *Mailer) SendApproval(_ context.Context, notice ApprovalNotice) error {
	if !m.Enabled() {
		m.log.Warn().Str("email", notice.Email).Msg("approval e-mail skipped, SMTP is not configured")
		return ErrMailerDisabled
	}

	msg := approvalMessage(m.cfg.From, notice)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{notice.Email}, msg); err != nil {
		m.log.Warn().Err(err).Str("email", notice.Email).Msg("failed to send approval e-mail")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().
		Str("email", notice.Email).
		Str("student_id", notice.StudentID).
		Msg("approval e-mail sent")
	return nil
}

func approvalMessage(from string, notice ApprovalNotice) []byte {
	subject := headerValue(fmt.Sprintf("Registration approved: %s", notice.EventTitle))

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", notice.FullName)
	fmt.Fprintf(&body, "Your registration for %q has been approved.\n", notice.EventTitle)
	fmt.Fprintf(&body, "Student ID: %s\n\n", notice.StudentID)
	body.WriteString("Use your student ID and password to download your entry pass.\n")

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		from, headerBreaks.Replace(notice.Email), subject, body.String(),
	))
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue keeps text on one header line and encodes non-ASCII.
func headerValue(s string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(s))
}
