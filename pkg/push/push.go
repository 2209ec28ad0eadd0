package push

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrFailedToSendPush = errors.New("push.errors.failed_to_send_push")
	ErrInvalidParams    = errors.New("push.errors.invalid_params")
	ErrDeviceLookup     = errors.New("push.errors.device_lookup_failed")
)

// PushSender represents an interface for sending push notifications.
type PushSender interface {
	SendPush(ctx context.Context, params PushParams) error
}

// PushParams represents the parameters for one push message fanned out to
// all of a user's registered devices.
type PushParams struct {
	DeviceTokens []string          `json:"device_tokens"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"` // Optional key-value payload
}

// Validate checks the params for the minimum needed to send a push.
func (p PushParams) Validate() error {
	if len(p.DeviceTokens) == 0 {
		return fmt.Errorf("%w: at least one device token is required", ErrInvalidParams)
	}
	if p.Body == "" {
		return fmt.Errorf("%w: Body is required", ErrInvalidParams)
	}
	return nil
}
