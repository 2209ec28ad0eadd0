package notification

import "time"

// Group coalesces repeated notifications of the same (type, user, related id)
// so bursts of identical events do not spam the recipient. Created lazily on
// first occurrence, incremented on repeat.
type Group struct {
	ID                   string    `json:"id"`
	GroupType            string    `json:"group_type"`
	UserID               string    `json:"user_id"`
	RelatedID            string    `json:"related_id"`
	Count                int       `json:"count"`
	LastUpdated          time.Time `json:"last_updated"`
	SampleNotificationID string    `json:"sample_notification_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}
