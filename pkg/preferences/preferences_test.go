package preferences_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, time.UTC)
}

func TestDefaults(t *testing.T) {
	p := preferences.Defaults("u1")

	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.EmailEnabled)
	assert.True(t, p.PushEnabled)
	assert.True(t, p.InAppEnabled)
	assert.Equal(t, preferences.QuietHoursDisabled, p.QuietHoursStart)
	assert.Equal(t, preferences.FrequencyImmediate, p.Frequency)
	assert.False(t, p.InQuietHours(at(3, 0)))
	assert.True(t, p.CategoryEnabled(notification.CategorySocial))
}

func TestInQuietHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		at         time.Time
		want       bool
	}{
		{"disabled window", preferences.QuietHoursDisabled, preferences.QuietHoursDisabled, at(23, 0), false},
		{"inside same-day window", 9 * 60, 17 * 60, at(12, 0), true},
		{"before same-day window", 9 * 60, 17 * 60, at(8, 59), false},
		{"at window start", 9 * 60, 17 * 60, at(9, 0), true},
		{"at window end is outside", 9 * 60, 17 * 60, at(17, 0), false},
		{"overnight window late evening", 22 * 60, 7 * 60, at(23, 30), true},
		{"overnight window early morning", 22 * 60, 7 * 60, at(6, 59), true},
		{"overnight window midday", 22 * 60, 7 * 60, at(12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := preferences.Defaults("u1")
			p.QuietHoursStart = tt.start
			p.QuietHoursEnd = tt.end
			assert.Equal(t, tt.want, p.InQuietHours(tt.at))
		})
	}
}

func TestCategoryEnabled(t *testing.T) {
	p := preferences.Defaults("u1")
	p.Categories = map[notification.Category]bool{
		notification.CategoryPromotional: false,
		notification.CategorySecurity:    true,
	}

	assert.False(t, p.CategoryEnabled(notification.CategoryPromotional))
	assert.True(t, p.CategoryEnabled(notification.CategorySecurity))
	assert.True(t, p.CategoryEnabled(notification.CategorySocial), "absent category defaults to allowed")
}

func TestEnabledChannels(t *testing.T) {
	p := preferences.Defaults("u1")
	assert.ElementsMatch(t, []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelPush,
		notification.ChannelInApp,
	}, p.EnabledChannels())

	p.PushEnabled = false
	assert.ElementsMatch(t, []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelInApp,
	}, p.EnabledChannels())

	p.EmailEnabled = false
	p.InAppEnabled = false
	assert.Empty(t, p.EnabledChannels())
}
