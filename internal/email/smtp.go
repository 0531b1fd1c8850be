package email

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type smtpMailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
}

var headerReplacer = strings.NewReplacer("\r", "", "\n", "")

func (m *smtpMailer) Send(_ context.Context, msg Message) (string, error) {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	to := headerReplacer.Replace(msg.To)

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.host)
	body := m.build(msg, id, time.Now())

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, body); err != nil {
		return "", fmt.Errorf("smtp: send: %w", err)
	}
	return id, nil
}

// build renders the RFC 5322 message. Header values are stripped of CRLF to
// prevent header injection.
func (m *smtpMailer) build(msg Message, id string, now time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k + ": " + headerReplacer.Replace(v) + "\r\n")
	}

	header("From", address(m.fromName, m.from))
	header("To", address(msg.ToName, msg.To))
	if msg.ReplyTo != "" {
		header("Reply-To", address(msg.ReplyToName, msg.ReplyTo))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", id)
	header("MIME-Version", "1.0")
	header("Content-Type", "text/html; charset=utf-8")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLContent)
	b.WriteString("\r\n")
	return []byte(b.String())
}
