package notification

import (
	"context"
	"time"
)

// ListOptions provides filtering and pagination for listing notifications.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip for pagination
	OnlyUnread bool       // When true, only return unread notifications
	Categories []Category // If specified, only return notifications of these categories
	Since      *time.Time // If specified, only return notifications created after this time
}

// Storage handles notification persistence: records, groups, and the
// delivery audit log. Implementations must provide synchronous commit
// semantics; CreateBatch is all-or-nothing.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n *Notification) error

	// CreateBatch stores all notifications or none of them.
	CreateBatch(ctx context.Context, ns []*Notification) error

	// Get retrieves a single notification by id.
	Get(ctx context.Context, id string) (*Notification, error)

	// Update persists the current state of a notification.
	Update(ctx context.Context, n *Notification) error

	// List returns a user's notifications, newest first, excluding soft-deleted.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// CountUnread returns the unread count for a user.
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead marks notification(s) as read. Unknown ids are ignored.
	MarkRead(ctx context.Context, userID string, ids ...string) error

	// MarkAllRead marks every unread notification of the user as read.
	MarkAllRead(ctx context.Context, userID string) error

	// Delete soft-deletes notification(s). Deleted implies archived.
	Delete(ctx context.Context, userID string, ids ...string) error

	// PurgeArchived hard-deletes archived notifications older than the cutoff.
	// Returns the number of purged records. Used by the archival sweep only.
	PurgeArchived(ctx context.Context, olderThan time.Time) (int, error)

	// FindOrCreateGroup finds the group for (groupType, userID, relatedID),
	// creating it on first occurrence. On repeat it increments the count and
	// refreshes the last-updated stamp. The boolean reports whether the group
	// was created by this call.
	FindOrCreateGroup(ctx context.Context, groupType, userID, relatedID, sampleNotificationID string) (*Group, bool, error)

	// AppendDeliveryLog appends one delivery attempt audit record.
	AppendDeliveryLog(ctx context.Context, entry DeliveryLogEntry) error

	// DeliveryLog returns all recorded attempts for a notification, oldest first.
	DeliveryLog(ctx context.Context, notificationID string) ([]DeliveryLogEntry, error)
}
