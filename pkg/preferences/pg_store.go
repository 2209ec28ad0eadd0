package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// PGStore is the PostgreSQL implementation of the Store interface.
// Schema lives in notification.MigrationsFS.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed preference store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, userID string) (Preferences, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, email_enabled, push_enabled, in_app_enabled,
			quiet_hours_start, quiet_hours_end, categories,
			auto_translate, language, frequency, updated_at
		FROM notification_preferences
		WHERE user_id = $1`,
		userID,
	)

	var (
		p          Preferences
		categories []byte
		frequency  string
	)
	err := row.Scan(
		&p.UserID, &p.EmailEnabled, &p.PushEnabled, &p.InAppEnabled,
		&p.QuietHoursStart, &p.QuietHoursEnd, &categories,
		&p.AutoTranslate, &p.Language, &frequency, &p.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			// Lookup-or-default: create the row on first access.
			defaults := Defaults(userID)
			if err := s.Update(ctx, defaults); err != nil {
				return Preferences{}, err
			}
			return defaults, nil
		}
		return Preferences{}, fmt.Errorf("get preferences for user %s: %w", userID, err)
	}

	p.Frequency = Frequency(frequency)
	p.Categories = map[notification.Category]bool{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &p.Categories); err != nil {
			return Preferences{}, fmt.Errorf("decode category preferences: %w", err)
		}
	}
	return p, nil
}

func (s *PGStore) Update(ctx context.Context, p Preferences) error {
	if p.UserID == "" {
		return ErrMissingUserID
	}

	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("encode category preferences: %w", err)
	}

	p.UpdatedAt = time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notification_preferences
			(user_id, email_enabled, push_enabled, in_app_enabled,
			 quiet_hours_start, quiet_hours_end, categories,
			 auto_translate, language, frequency, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			in_app_enabled = EXCLUDED.in_app_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			categories = EXCLUDED.categories,
			auto_translate = EXCLUDED.auto_translate,
			language = EXCLUDED.language,
			frequency = EXCLUDED.frequency,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.EmailEnabled, p.PushEnabled, p.InAppEnabled,
		p.QuietHoursStart, p.QuietHoursEnd, categories,
		p.AutoTranslate, p.Language, string(p.Frequency), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update preferences for user %s: %w", p.UserID, err)
	}
	return nil
}
