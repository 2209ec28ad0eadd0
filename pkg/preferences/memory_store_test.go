package preferences_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
)

func TestMemoryStore_GetCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	s := preferences.NewMemoryStore()

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.EmailEnabled)
	assert.True(t, p.PushEnabled)
	assert.True(t, p.InAppEnabled)
	assert.Equal(t, preferences.QuietHoursDisabled, p.QuietHoursStart)

	// A second read returns the same stored row.
	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.UserID, again.UserID)
}

func TestMemoryStore_GetEmptyUserID(t *testing.T) {
	s := preferences.NewMemoryStore()
	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, preferences.ErrMissingUserID)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := preferences.NewMemoryStore()

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	p.PushEnabled = false
	p.Categories = map[notification.Category]bool{
		notification.CategoryPromotional: false,
	}
	require.NoError(t, s.Update(ctx, p))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.PushEnabled)
	assert.False(t, got.CategoryEnabled(notification.CategoryPromotional))
	assert.True(t, got.CategoryEnabled(notification.CategorySystem))
}

func TestMemoryStore_UpdateIsolatesCategoryMap(t *testing.T) {
	ctx := context.Background()
	s := preferences.NewMemoryStore()

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	cats := map[notification.Category]bool{notification.CategorySocial: false}
	p.Categories = cats
	require.NoError(t, s.Update(ctx, p))

	// Mutating the caller's map must not leak into the store.
	cats[notification.CategorySocial] = true

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.CategoryEnabled(notification.CategorySocial))
}

func TestMemoryStore_UpdateMissingUserID(t *testing.T) {
	s := preferences.NewMemoryStore()
	err := s.Update(context.Background(), preferences.Preferences{})
	assert.ErrorIs(t, err, preferences.ErrMissingUserID)
}
