package email

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// logMailer writes messages to the log instead of sending them. Used in
// development when no provider is configured.
type logMailer struct {
	log *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	m.log.Info("email not sent (log driver)",
		zap.String("message_id", id),
		zap.String("to", msg.To),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTMLContent)))
	return id, nil
}
