// Package email sends transactional mail through a configurable provider.
package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Message struct {
	To          string
	ToName      string
	Subject     string
	HTMLContent string
	ReplyTo     string
	ReplyToName string
}

// Mailer delivers a message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type MailerConfig struct {
	From     string
	FromName string

	BrevoAPIKey   string
	BrevoBaseURL  string
	ResendAPIKey  string
	ResendBaseURL string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

const (
	defaultBrevoBaseURL  = "https://api.brevo.com"
	defaultResendBaseURL = "https://api.resend.com"
)

func New(driver string, cfg MailerConfig, log *zap.Logger) (Mailer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch driver {
	case "brevo":
		base := cfg.BrevoBaseURL
		if base == "" {
			base = defaultBrevoBaseURL
		}
		return &brevoMailer{
			client:   newHTTPClient(cfg, log.Named("brevo")),
			baseURL:  base,
			apiKey:   cfg.BrevoAPIKey,
			from:     cfg.From,
			fromName: cfg.FromName,
		}, nil
	case "resend":
		base := cfg.ResendBaseURL
		if base == "" {
			base = defaultResendBaseURL
		}
		return &resendMailer{
			client:   newHTTPClient(cfg, log.Named("resend")),
			baseURL:  base,
			apiKey:   cfg.ResendAPIKey,
			from:     cfg.From,
			fromName: cfg.FromName,
		}, nil
	case "smtp":
		return &smtpMailer{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			user:     cfg.SMTPUser,
			pass:     cfg.SMTPPass,
			from:     cfg.From,
			fromName: cfg.FromName,
		}, nil
	case "log":
		return &logMailer{log: log.Named("mail")}, nil
	default:
		return nil, fmt.Errorf("unknown email driver: %q", driver)
	}
}

// ProviderError is returned when an HTTP provider answers with a non-2xx
// status. Message holds the provider's own explanation, if it sent one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, msg)
}

func (e *ProviderError) Details() string {
	return e.Message
}
