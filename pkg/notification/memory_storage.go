package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	notifications map[string]*Notification // id -> notification
	byUser        map[string][]string      // userID -> ids in insertion order
	groups        map[string]*Group        // composite key -> group
	deliveryLog   map[string][]DeliveryLogEntry
	mu            sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string]*Notification),
		byUser:        make(map[string][]string),
		groups:        make(map[string]*Group),
		deliveryLog:   make(map[string][]DeliveryLogEntry),
	}
}

func groupKey(groupType, userID, relatedID string) string {
	return groupType + "|" + userID + "|" + relatedID
}

func (s *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(n)
}

// Must be called with lock held.
func (s *MemoryStorage) createLocked(n *Notification) error {
	if n.ID == "" {
		return ErrMissingID
	}
	if n.UserID == "" {
		return ErrMissingUserID
	}

	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	stored := *n
	stored.Metadata = CloneMetadata(n.Metadata)
	s.notifications[n.ID] = &stored
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n.ID)
	return nil
}

func (s *MemoryStorage) CreateBatch(ctx context.Context, ns []*Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything up front so a mid-batch failure cannot leave a
	// partial write behind.
	for _, n := range ns {
		if n.ID == "" {
			return ErrMissingID
		}
		if n.UserID == "" {
			return ErrMissingUserID
		}
	}

	for _, n := range ns {
		if err := s.createLocked(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external mutation of stored data.
	n := *stored
	n.Metadata = CloneMetadata(stored.Metadata)
	return &n, nil
}

func (s *MemoryStorage) Update(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[n.ID]; !ok {
		return ErrNotFound
	}

	n.UpdatedAt = time.Now()
	stored := *n
	stored.Metadata = CloneMetadata(n.Metadata)
	s.notifications[n.ID] = &stored
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, id := range s.byUser[userID] {
		n := s.notifications[id]
		if n.IsDeleted {
			continue
		}
		if opts.OnlyUnread && n.IsRead {
			continue
		}
		if len(opts.Categories) > 0 {
			found := false
			for _, c := range opts.Categories {
				if n.Category == c {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}

		copied := *n
		copied.Metadata = CloneMetadata(n.Metadata)
		filtered = append(filtered, copied)
	}

	// Newest first.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, id := range s.byUser[userID] {
		n := s.notifications[id]
		if !n.IsRead && !n.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		n, ok := s.notifications[id]
		if !ok || n.UserID != userID {
			continue
		}
		n.MarkRead()
		n.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byUser[userID] {
		n := s.notifications[id]
		if n.IsRead || n.IsDeleted {
			continue
		}
		n.MarkRead()
		n.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		n, ok := s.notifications[id]
		if !ok || n.UserID != userID {
			continue
		}
		n.SoftDelete()
		n.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStorage) PurgeArchived(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, n := range s.notifications {
		if !n.IsArchived || n.CreatedAt.After(olderThan) {
			continue
		}
		delete(s.notifications, id)
		delete(s.deliveryLog, id)
		s.byUser[n.UserID] = removeID(s.byUser[n.UserID], id)
		purged++
	}
	return purged, nil
}

func (s *MemoryStorage) FindOrCreateGroup(ctx context.Context, groupType, userID, relatedID, sampleNotificationID string) (*Group, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := groupKey(groupType, userID, relatedID)
	now := time.Now()

	if g, ok := s.groups[key]; ok {
		g.Count++
		g.LastUpdated = now
		copied := *g
		return &copied, false, nil
	}

	g := &Group{
		ID:                   uuid.New().String(),
		GroupType:            groupType,
		UserID:               userID,
		RelatedID:            relatedID,
		Count:                1,
		LastUpdated:          now,
		SampleNotificationID: sampleNotificationID,
		CreatedAt:            now,
	}
	s.groups[key] = g
	copied := *g
	return &copied, true, nil
}

func (s *MemoryStorage) AppendDeliveryLog(ctx context.Context, entry DeliveryLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.AttemptedAt.IsZero() {
		entry.AttemptedAt = time.Now()
	}
	s.deliveryLog[entry.NotificationID] = append(s.deliveryLog[entry.NotificationID], entry)
	return nil
}

func (s *MemoryStorage) DeliveryLog(ctx context.Context, notificationID string) ([]DeliveryLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.deliveryLog[notificationID]
	out := make([]DeliveryLogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
