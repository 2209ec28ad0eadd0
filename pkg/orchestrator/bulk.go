package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// CreateBulk persists many notifications at once. Unlike Create it is
// strict: metadata that fails validation rejects the whole batch, and
// nothing is gated or translated. Requests whose full tuple repeats
// within the batch resolve to the first request's record. Persistence
// is all-or-nothing.
func (o *Orchestrator) CreateBulk(ctx context.Context, params []CreateParams) ([]*notification.Notification, error) {
	if len(params) == 0 {
		return nil, nil
	}

	now := time.Now()
	results := make([]*notification.Notification, 0, len(params))
	seen := make(map[string]*notification.Notification, len(params))
	toCreate := make([]*notification.Notification, 0, len(params))

	for _, p := range params {
		if p.UserID == "" {
			return nil, notification.ErrMissingUserID
		}
		if err := notification.ValidateMetadata(p.Metadata); err != nil {
			return nil, err
		}
		meta := notification.NormalizeMetadata(p.Metadata)

		key, err := dedupKey(p, meta)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[key]; ok {
			results = append(results, existing)
			continue
		}

		n := &notification.Notification{
			ID:           uuid.New().String(),
			UserID:       p.UserID,
			Content:      p.Content,
			Type:         p.Type,
			Priority:     p.Priority,
			Category:     p.Category,
			Status:       notification.StatusPending,
			Link:         p.Link,
			RelatedID:    p.RelatedID,
			Metadata:     meta,
			ScheduledFor: p.ScheduledFor,
			MaxRetries:   notification.DefaultMaxRetries,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		seen[key] = n
		toCreate = append(toCreate, n)
		results = append(results, n)
	}

	if err := o.storage.CreateBatch(ctx, toCreate); err != nil {
		return nil, err
	}

	o.log.InfoContext(ctx, "bulk notifications created",
		slog.Int("requested", len(params)),
		slog.Int("persisted", len(toCreate)),
	)
	return results, nil
}

// dedupKey builds the in-batch identity tuple. Metadata is part of the
// tuple through its canonical JSON encoding (map keys sorted).
func dedupKey(p CreateParams, meta map[string]any) (string, error) {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return "", notification.ErrMetadataNotSerializable
	}

	scheduled := ""
	if p.ScheduledFor != nil {
		scheduled = p.ScheduledFor.UTC().Format(time.RFC3339Nano)
	}

	return fmt.Sprintf("%s|%s|%s|%d|%s|%s|%s|%s",
		p.UserID, p.Content, p.Type, p.Priority, p.Category, p.Link, scheduled, encoded), nil
}
