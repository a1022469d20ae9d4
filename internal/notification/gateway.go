package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogGateway is the default NotificationGateway: it records the notice in
// the application log. Deployments that integrate a campus messaging
// channel swap in their own gateway; the outbox keeps rows until some
// gateway delivers them.
type LogGateway struct {
	senderName string
	logger     *zap.Logger
}

// NewLogGateway creates a log-backed gateway
func NewLogGateway(senderName string, logger *zap.Logger) *LogGateway {
	return &LogGateway{
		senderName: senderName,
		logger:     logger,
	}
}

// Send logs the notice
func (g *LogGateway) Send(ctx context.Context, fromUserID, toUserID, title, body string) error {
	g.logger.Info("Notification delivered",
		zap.String("sender", g.senderName),
		zap.String("from", fromUserID),
		zap.String("to", toUserID),
		zap.String("title", title),
		zap.Int("body_length", len(body)))
	return nil
}
