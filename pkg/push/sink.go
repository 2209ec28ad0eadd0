package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// DeviceLookup resolves a user ID to their registered device tokens.
// An empty slice means the user has no devices registered.
type DeviceLookup func(ctx context.Context, userID string) ([]string, error)

// Sink delivers notifications over push. A user with no registered
// devices is handled without error: there is nothing to send.
type Sink struct {
	sender PushSender
	lookup DeviceLookup
	log    *slog.Logger
}

// NewSink wires a PushSender into the delivery fan-out.
func NewSink(sender PushSender, lookup DeviceLookup, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{sender: sender, lookup: lookup, log: log}
}

func (s *Sink) Channel() notification.Channel {
	return notification.ChannelPush
}

func (s *Sink) Send(ctx context.Context, n *notification.Notification) error {
	tokens, err := s.lookup(ctx, n.UserID)
	if err != nil {
		return errors.Join(ErrDeviceLookup, err)
	}
	if len(tokens) == 0 {
		s.log.InfoContext(ctx, "no devices registered, skipping push",
			logger.UserID(n.UserID),
			logger.NotificationID(n.ID),
		)
		return nil
	}

	data := map[string]string{"notification_id": n.ID}
	if n.Link != "" {
		data["link"] = n.Link
	}
	return s.sender.SendPush(ctx, PushParams{
		DeviceTokens: tokens,
		Title:        n.Type,
		Body:         n.Content,
		Data:         data,
	})
}
