package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Suitable for development and testing.
type MemoryStore struct {
	prefs map[string]Preferences
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs: make(map[string]Preferences),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	p, ok := s.prefs[userID]
	s.mu.RUnlock()
	if ok {
		p.Categories = cloneCategories(p.Categories)
		return p, nil
	}

	// First access creates the row with defaults so later updates have a
	// stable base to modify.
	defaults := Defaults(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.prefs[userID]; ok {
		existing.Categories = cloneCategories(existing.Categories)
		return existing, nil
	}
	stored := defaults
	stored.Categories = cloneCategories(defaults.Categories)
	s.prefs[userID] = stored
	return defaults, nil
}

func (s *MemoryStore) Update(ctx context.Context, p Preferences) error {
	if p.UserID == "" {
		return ErrMissingUserID
	}

	p.UpdatedAt = time.Now()
	p.Categories = cloneCategories(p.Categories)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = p
	return nil
}

func cloneCategories(in map[notification.Category]bool) map[notification.Category]bool {
	out := make(map[notification.Category]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
