package orchestrator

import "github.com/dmitrymomot/notifykit/pkg/notification"

// Reason explains why a notification was suppressed instead of created.
type Reason string

const (
	ReasonQuietHours       Reason = "quiet_hours"
	ReasonNoChannels       Reason = "no_channels"
	ReasonCategoryDisabled Reason = "category_disabled"
)

// Result is the outcome of a create call: either a persisted
// notification or a suppression reason, never both.
type Result struct {
	Notification   *notification.Notification
	SuppressReason Reason
}

// Suppressed reports whether the notification was gated away.
func (r Result) Suppressed() bool {
	return r.Notification == nil
}

func created(n *notification.Notification) Result {
	return Result{Notification: n}
}

func suppressed(reason Reason) Result {
	return Result{SuppressReason: reason}
}
