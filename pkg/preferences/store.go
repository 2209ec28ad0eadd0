package preferences

import (
	"context"
	"errors"
)

// ErrMissingUserID is returned when storing preferences without an owner.
var ErrMissingUserID = errors.New("user ID is required")

// Store reads and writes per-user preferences.
// Get follows the lookup-or-default contract: a user with no stored
// preferences gets Defaults, never an error.
type Store interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Update(ctx context.Context, p Preferences) error
}
