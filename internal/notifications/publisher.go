package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"haven/internal/middleware"
	"haven/internal/models"
)

// Publisher pushes stored notifications to the recipient's Redis channel so
// connected websocket clients see them immediately. Best-effort: failures
// are logged, the notification is already persisted.
type Publisher struct {
	notifier *Notifier
}

// NewPublisher wraps a Notifier for use by the notification fan-out.
func NewPublisher(notifier *Notifier) *Publisher {
	return &Publisher{notifier: notifier}
}

// Publish serializes the notification and publishes it to the recipient's
// channel.
func (p *Publisher) Publish(ctx context.Context, n *models.Notification) {
	if p.notifier == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal notification",
			slog.Uint64("recipient_id", uint64(n.RecipientID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := p.notifier.PublishUser(ctx, n.RecipientID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.Uint64("recipient_id", uint64(n.RecipientID)),
			slog.String("error", err.Error()),
		)
	}
}
