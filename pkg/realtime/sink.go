package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Sink pushes notifications to a user's live connections. The in-app
// channel is best-effort on top of the persisted record: zero open
// connections, or connections that fail mid-send, never fail delivery.
type Sink struct {
	reg *Registry
	log *slog.Logger
}

// NewSink wires a Registry into the delivery fan-out.
func NewSink(reg *Registry, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{reg: reg, log: log}
}

func (s *Sink) Channel() notification.Channel {
	return notification.ChannelInApp
}

func (s *Sink) Send(ctx context.Context, n *notification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	delivered := s.reg.SendPersonal(ctx, n.UserID, payload)
	s.log.DebugContext(ctx, "realtime notification pushed",
		logger.UserID(n.UserID),
		logger.NotificationID(n.ID),
		slog.Int("connections", delivered),
	)
	return nil
}
