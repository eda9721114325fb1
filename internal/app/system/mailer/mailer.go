// Package mailer sends transactional email over SMTP. Delivery failures
// are logged and never surfaced to the request path; an invite that fails
// to send can always be re-sent.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both plain-text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers email through a single SMTP endpoint.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	log  *zap.Logger
}

// New returns a Mailer. If host is empty the mailer is disabled and Send
// logs the message instead of delivering it, which keeps local
// development working without an SMTP server.
func New(host string, port int, user, pass, from string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from, log: logger}
}

// Enabled reports whether the mailer has an SMTP endpoint configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// Send delivers the email. Errors are logged and returned; callers on the
// request path typically log-and-continue.
func (m *Mailer) Send(e Email) error {
	if !m.Enabled() {
		m.log.Info("mailer disabled, dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	msg := buildMessage(m.from, e)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{e.To}, msg); err != nil {
		m.log.Error("smtp send failed",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	return nil
}

const mimeBoundary = "taskhive-alt-boundary"

func buildMessage(from string, e Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case e.HTMLBody != "" && e.TextBody != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(e.TextBody)
		fmt.Fprintf(&b, "\r\n--%s\r\n", mimeBoundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(e.HTMLBody)
		fmt.Fprintf(&b, "\r\n--%s--\r\n", mimeBoundary)
	case e.HTMLBody != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(e.HTMLBody)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(e.TextBody)
	}
	return []byte(b.String())
}
