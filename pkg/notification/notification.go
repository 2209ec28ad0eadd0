package notification

import (
	"time"
)

// Status represents the delivery status of a notification.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusRetrying  Status = "retrying"
)

// Priority represents the notification priority level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// Category classifies notifications for per-user category toggles.
type Category string

const (
	CategorySystem      Category = "system"
	CategorySocial      Category = "social"
	CategorySecurity    Category = "security"
	CategoryPromotional Category = "promotional"
	CategoryCommunity   Category = "community"
)

// Channel is one delivery medium. ChannelAll marks a delivery that went out
// across every enabled channel in one fan-out.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
	ChannelAll   Channel = "all"
)

// FailureReason is a structured snapshot of the error that failed a
// delivery attempt.
type FailureReason struct {
	NotificationID string    `json:"notification_id"`
	ErrorType      string    `json:"error_type"`
	ErrorMessage   string    `json:"error_message"`
	Timestamp      time.Time `json:"timestamp"`
}

// DefaultMaxRetries is applied when a notification is created without an
// explicit retry bound.
const DefaultMaxRetries = 3

// Notification is the unit of delivery.
type Notification struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Content      string         `json:"content"`
	Type         string         `json:"type"`
	Priority     Priority       `json:"priority"`
	Category     Category       `json:"category"`
	Status       Status         `json:"status"`
	Link         string         `json:"link,omitempty"`
	RelatedID    string         `json:"related_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	GroupID      string         `json:"group_id,omitempty"`
	IsRead       bool           `json:"is_read"`
	IsArchived   bool           `json:"is_archived"`
	IsDeleted    bool           `json:"is_deleted"`
	SeenAt       *time.Time     `json:"seen_at,omitempty"`
	ReadAt       *time.Time     `json:"read_at,omitempty"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`

	// Retry bookkeeping, owned by the delivery coordinator.
	RetryCount    int            `json:"retry_count"`
	MaxRetries    int            `json:"max_retries"`
	NextRetry     *time.Time     `json:"next_retry,omitempty"`
	LastRetry     *time.Time     `json:"last_retry,omitempty"`
	FailureReason *FailureReason `json:"failure_reason,omitempty"`

	// LastChannel is the channel of the most recent delivery attempt,
	// ChannelAll for a full multi-channel fan-out.
	LastChannel Channel `json:"channel,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkSeen stamps the first-seen time. No-op if already seen.
func (n *Notification) MarkSeen() {
	if n.SeenAt != nil {
		return
	}
	now := time.Now()
	n.SeenAt = &now
}

// MarkRead marks the notification as read. No-op if already read.
// A read notification counts as seen.
func (n *Notification) MarkRead() {
	if n.IsRead {
		return
	}
	n.IsRead = true
	now := time.Now()
	n.ReadAt = &now
	if n.SeenAt == nil {
		n.SeenAt = &now
	}
}

// Archive flags the notification as archived. No-op if already archived.
func (n *Notification) Archive() {
	n.IsArchived = true
}

// SoftDelete flags the notification as deleted. Deleted implies archived.
func (n *Notification) SoftDelete() {
	n.IsDeleted = true
	n.IsArchived = true
}

// IsTerminal reports whether the automated delivery path is finished with
// this notification. A terminal failed notification can only be reopened by
// an explicit operator retry.
func (n *Notification) IsTerminal() bool {
	return n.Status == StatusDelivered || n.Status == StatusFailed
}

// IsScheduled reports whether delivery is deferred to a future time.
func (n *Notification) IsScheduled(now time.Time) bool {
	return n.ScheduledFor != nil && n.ScheduledFor.After(now)
}

// RetriesExhausted reports whether one more failed attempt would exceed the
// retry bound.
func (n *Notification) RetriesExhausted() bool {
	return n.RetryCount+1 >= n.MaxRetries
}
