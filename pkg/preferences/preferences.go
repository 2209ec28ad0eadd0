package preferences

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Frequency controls how often a user wants to be notified.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// QuietHoursDisabled marks an unset quiet-hours boundary.
const QuietHoursDisabled = -1

// Preferences holds one user's delivery preferences.
// Quiet hours boundaries are minutes from midnight in the user's local time;
// QuietHoursDisabled on either boundary disables the window.
type Preferences struct {
	UserID          string                         `json:"user_id"`
	EmailEnabled    bool                           `json:"email_enabled"`
	PushEnabled     bool                           `json:"push_enabled"`
	InAppEnabled    bool                           `json:"in_app_enabled"`
	QuietHoursStart int                            `json:"quiet_hours_start"`
	QuietHoursEnd   int                            `json:"quiet_hours_end"`
	Categories      map[notification.Category]bool `json:"categories"`
	AutoTranslate   bool                           `json:"auto_translate"`
	Language        string                         `json:"language"`
	Frequency       Frequency                      `json:"frequency"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

// Defaults returns safe default preferences for a user: every channel on,
// no quiet hours, every category allowed.
func Defaults(userID string) Preferences {
	return Preferences{
		UserID:          userID,
		EmailEnabled:    true,
		PushEnabled:     true,
		InAppEnabled:    true,
		QuietHoursStart: QuietHoursDisabled,
		QuietHoursEnd:   QuietHoursDisabled,
		Categories:      map[notification.Category]bool{},
		Frequency:       FrequencyImmediate,
	}
}

// InQuietHours reports whether t falls inside the user's quiet-hours window.
// Windows may cross midnight (e.g. 22:00-07:00).
func (p Preferences) InQuietHours(t time.Time) bool {
	if p.QuietHoursStart == QuietHoursDisabled || p.QuietHoursEnd == QuietHoursDisabled {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	if p.QuietHoursStart <= p.QuietHoursEnd {
		return minute >= p.QuietHoursStart && minute < p.QuietHoursEnd
	}
	// Window crosses midnight.
	return minute >= p.QuietHoursStart || minute < p.QuietHoursEnd
}

// CategoryEnabled reports whether the user accepts the given category.
// Categories absent from the map are allowed by default.
func (p Preferences) CategoryEnabled(c notification.Category) bool {
	enabled, ok := p.Categories[c]
	if !ok {
		return true
	}
	return enabled
}

// EnabledChannels returns the channels the user has switched on.
func (p Preferences) EnabledChannels() []notification.Channel {
	var channels []notification.Channel
	if p.EmailEnabled {
		channels = append(channels, notification.ChannelEmail)
	}
	if p.PushEnabled {
		channels = append(channels, notification.ChannelPush)
	}
	if p.InAppEnabled {
		channels = append(channels, notification.ChannelInApp)
	}
	return channels
}
