package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// logTransport writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type logTransport struct {
	logger *zap.Logger
}

func newLogTransport(logger *zap.Logger) *logTransport {
	return &logTransport{logger: logger}
}

func (t *logTransport) name() string { return "log" }

func (t *logTransport) send(_ context.Context, msg *Message) (string, error) {
	id := "log-" + uuid.NewString()
	t.logger.Info("email (not delivered)",
		zap.String("message_id", id),
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To.Address),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return id, nil
}
