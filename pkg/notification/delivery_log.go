package notification

import "time"

// DeliveryLogEntry is an append-only audit record of one delivery attempt.
// Written exclusively by the delivery coordinator; never mutated after insert.
type DeliveryLogEntry struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	AttemptedAt    time.Time `json:"attempted_at"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Channel        Channel   `json:"delivery_channel"`
}
