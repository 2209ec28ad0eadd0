package push

import (
	"context"
	"log/slog"
)

// DevSender implements PushSender for local development. It logs each
// message instead of delivering it to a push provider.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a logging push sender.
func NewDevSender(log *slog.Logger) PushSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSender{log: log}
}

func (d *DevSender) SendPush(ctx context.Context, params PushParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	d.log.InfoContext(ctx, "push notification",
		slog.Int("devices", len(params.DeviceTokens)),
		slog.String("title", params.Title),
		slog.String("body", params.Body),
	)
	return nil
}
