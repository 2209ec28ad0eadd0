package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// pgExecutor is the query surface shared by *pgxpool.Pool and pgx.Tx, so the
// same statement helpers serve both the direct and the transactional path.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStorage is the PostgreSQL implementation of the Storage interface.
// Schema lives in MigrationsFS; apply it with pg.Migrate before use.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a PostgreSQL-backed notification storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const notificationColumns = `id, user_id, content, type, priority, category, status, link, related_id,
	metadata, group_id, is_read, is_archived, is_deleted, seen_at, read_at, scheduled_for,
	retry_count, max_retries, next_retry, last_retry, failure_reason, last_channel, created_at, updated_at`

func (s *PGStorage) Create(ctx context.Context, n *Notification) error {
	return insertNotification(ctx, s.pool, n)
}

func (s *PGStorage) CreateBatch(ctx context.Context, ns []*Notification) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch create: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, n := range ns {
		if err := insertNotification(ctx, tx, n); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertNotification(ctx context.Context, db pgExecutor, n *Notification) error {
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

	metadata, failureReason, err := encodeJSONColumns(n)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`,
		n.ID, n.UserID, n.Content, n.Type, int(n.Priority), string(n.Category), string(n.Status), n.Link, n.RelatedID,
		metadata, nullableID(n.GroupID), n.IsRead, n.IsArchived, n.IsDeleted, n.SeenAt, n.ReadAt, n.ScheduledFor,
		n.RetryCount, n.MaxRetries, n.NextRetry, n.LastRetry, failureReason, string(n.LastChannel), n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

func (s *PGStorage) Update(ctx context.Context, n *Notification) error {
	n.UpdatedAt = time.Now()

	metadata, failureReason, err := encodeJSONColumns(n)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET
			content = $2, status = $3, metadata = $4, group_id = $5,
			is_read = $6, is_archived = $7, is_deleted = $8,
			seen_at = $9, read_at = $10, scheduled_for = $11,
			retry_count = $12, max_retries = $13, next_retry = $14, last_retry = $15,
			failure_reason = $16, last_channel = $17, updated_at = $18
		WHERE id = $1`,
		n.ID, n.Content, string(n.Status), metadata, nullableID(n.GroupID),
		n.IsRead, n.IsArchived, n.IsDeleted,
		n.SeenAt, n.ReadAt, n.ScheduledFor,
		n.RetryCount, n.MaxRetries, n.NextRetry, n.LastRetry,
		failureReason, string(n.LastChannel), n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", n.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 AND NOT is_deleted`
	args := []any{userID}

	if opts.OnlyUnread {
		query += ` AND NOT is_read`
	}
	if len(opts.Categories) > 0 {
		cats := make([]string, len(opts.Categories))
		for i, c := range opts.Categories {
			cats[i] = string(c)
		}
		args = append(args, cats)
		query += fmt.Sprintf(` AND category = ANY($%d)`, len(args))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *PGStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read AND NOT is_deleted`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *PGStorage) MarkRead(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now(), seen_at = COALESCE(seen_at, now()), updated_at = now()
		WHERE user_id = $1 AND id = ANY($2) AND NOT is_read`,
		userID, ids,
	)
	if err != nil {
		return fmt.Errorf("mark read for user %s: %w", userID, err)
	}
	return nil
}

func (s *PGStorage) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now(), seen_at = COALESCE(seen_at, now()), updated_at = now()
		WHERE user_id = $1 AND NOT is_read AND NOT is_deleted`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all read for user %s: %w", userID, err)
	}
	return nil
}

func (s *PGStorage) Delete(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_deleted = TRUE, is_archived = TRUE, updated_at = now()
		WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids,
	)
	if err != nil {
		return fmt.Errorf("delete notifications for user %s: %w", userID, err)
	}
	return nil
}

func (s *PGStorage) PurgeArchived(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE is_archived AND created_at <= $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("purge archived notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PGStorage) FindOrCreateGroup(ctx context.Context, groupType, userID, relatedID, sampleNotificationID string) (*Group, bool, error) {
	// ON CONFLICT increment resolves the concurrent-first-occurrence race in
	// the database rather than in application code. xmax = 0 distinguishes a
	// fresh insert from a conflict-update.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO notification_groups (id, group_type, user_id, related_id, count, last_updated, sample_notification_id, created_at)
		VALUES ($1, $2, $3, $4, 1, now(), $5, now())
		ON CONFLICT (group_type, user_id, related_id)
		DO UPDATE SET count = notification_groups.count + 1, last_updated = now()
		RETURNING id, group_type, user_id, related_id, count, last_updated, sample_notification_id, created_at, (xmax = 0) AS inserted`,
		uuid.New().String(), groupType, userID, relatedID, nullableID(sampleNotificationID),
	)

	var (
		g        Group
		sample   *string
		inserted bool
	)
	if err := row.Scan(&g.ID, &g.GroupType, &g.UserID, &g.RelatedID, &g.Count, &g.LastUpdated, &sample, &g.CreatedAt, &inserted); err != nil {
		return nil, false, fmt.Errorf("find or create group (%s, %s, %s): %w", groupType, userID, relatedID, err)
	}
	if sample != nil {
		g.SampleNotificationID = *sample
	}
	return &g, inserted, nil
}

func (s *PGStorage) AppendDeliveryLog(ctx context.Context, entry DeliveryLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.AttemptedAt.IsZero() {
		entry.AttemptedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_delivery_log (id, notification_id, attempted_at, status, error_message, delivery_channel)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.NotificationID, entry.AttemptedAt, string(entry.Status), entry.ErrorMessage, string(entry.Channel),
	)
	if err != nil {
		return fmt.Errorf("append delivery log for %s: %w", entry.NotificationID, err)
	}
	return nil
}

func (s *PGStorage) DeliveryLog(ctx context.Context, notificationID string) ([]DeliveryLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, notification_id, attempted_at, status, error_message, delivery_channel
		FROM notification_delivery_log
		WHERE notification_id = $1
		ORDER BY attempted_at`,
		notificationID,
	)
	if err != nil {
		return nil, fmt.Errorf("delivery log for %s: %w", notificationID, err)
	}
	defer rows.Close()

	var out []DeliveryLogEntry
	for rows.Next() {
		var (
			e       DeliveryLogEntry
			status  string
			channel string
		)
		if err := rows.Scan(&e.ID, &e.NotificationID, &e.AttemptedAt, &status, &e.ErrorMessage, &channel); err != nil {
			return nil, fmt.Errorf("scan delivery log entry: %w", err)
		}
		e.Status = Status(status)
		e.Channel = Channel(channel)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeJSONColumns(n *Notification) (metadata []byte, failureReason []byte, err error) {
	meta := n.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metadata, err = json.Marshal(meta)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMetadataNotSerializable, err)
	}

	if n.FailureReason != nil {
		failureReason, err = json.Marshal(n.FailureReason)
		if err != nil {
			return nil, nil, fmt.Errorf("encode failure reason: %w", err)
		}
	}
	return metadata, failureReason, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

type notificationScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row notificationScanner) (*Notification, error) {
	var (
		n             Notification
		priority      int
		category      string
		status        string
		channel       string
		groupID       *string
		metadata      []byte
		failureReason []byte
	)

	err := row.Scan(
		&n.ID, &n.UserID, &n.Content, &n.Type, &priority, &category, &status, &n.Link, &n.RelatedID,
		&metadata, &groupID, &n.IsRead, &n.IsArchived, &n.IsDeleted, &n.SeenAt, &n.ReadAt, &n.ScheduledFor,
		&n.RetryCount, &n.MaxRetries, &n.NextRetry, &n.LastRetry, &failureReason, &channel, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Priority = Priority(priority)
	n.Category = Category(category)
	n.Status = Status(status)
	n.LastChannel = Channel(channel)
	if groupID != nil {
		n.GroupID = *groupID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(failureReason) > 0 {
		n.FailureReason = &FailureReason{}
		if err := json.Unmarshal(failureReason, n.FailureReason); err != nil {
			return nil, fmt.Errorf("decode failure reason: %w", err)
		}
	}
	return &n, nil
}
