package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/scheduler"
)

// Deliverer drives the multi-channel fan-out for a persisted
// notification. Satisfied by delivery.Coordinator.
type Deliverer interface {
	Deliver(ctx context.Context, n *notification.Notification) (bool, error)
}

// DefaultGatingTTL bounds how long a (user, category) gating decision
// is reused before re-evaluating preferences.
const DefaultGatingTTL = 30 * time.Second

// CreateParams describes one notification to create.
type CreateParams struct {
	UserID       string
	Content      string
	Type         string
	Priority     notification.Priority
	Category     notification.Category
	Link         string
	RelatedID    string
	Metadata     map[string]any
	ScheduledFor *time.Time
}

// Orchestrator owns notification creation: gating, translation,
// grouping, persistence, and handing off to delivery.
type Orchestrator struct {
	storage    notification.Storage
	prefs      preferences.Store
	deliverer  Deliverer
	translator Translator
	sched      scheduler.Scheduler
	gating     *cache.TTLCache[string, Reason]
	gatingTTL  time.Duration
	log        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTranslator enables automatic content translation for users who
// opted in.
func WithTranslator(t Translator) Option {
	return func(o *Orchestrator) {
		o.translator = t
	}
}

// WithScheduler enables deferred delivery of scheduled notifications.
// Without one, a scheduled notification is persisted and waits for an
// external sweep to deliver it.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(o *Orchestrator) {
		o.sched = s
	}
}

// WithGatingTTL overrides how long gating decisions are cached.
func WithGatingTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.gatingTTL = ttl
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// New creates an Orchestrator. When prefs is a CachedStore, preference
// updates automatically invalidate the user's cached gating decisions.
func New(storage notification.Storage, prefs preferences.Store, deliverer Deliverer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		storage:   storage,
		prefs:     prefs,
		deliverer: deliverer,
		gatingTTL: DefaultGatingTTL,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.gating = cache.NewTTLCache[string, Reason](o.gatingTTL)

	if cs, ok := prefs.(*preferences.CachedStore); ok {
		cs.OnInvalidate(o.InvalidateGating)
	}
	return o
}

// Close releases the gating cache.
func (o *Orchestrator) Close() {
	o.gating.Close()
}

// InvalidateGating drops every cached gating decision for the user.
// Called automatically on preference updates through a CachedStore;
// other preference-change collaborators call it directly.
func (o *Orchestrator) InvalidateGating(userID string) {
	prefix := "gating_" + userID + "_"
	o.gating.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func gatingKey(userID string, category notification.Category) string {
	return fmt.Sprintf("gating_%s_%s", userID, category)
}

// Create runs the full creation pipeline for one notification. A gated
// notification returns a suppressed Result with a nil error; errors are
// reserved for storage and preference lookups failing.
func (o *Orchestrator) Create(ctx context.Context, p CreateParams) (Result, error) {
	if p.UserID == "" {
		return Result{}, notification.ErrMissingUserID
	}

	reason, err := o.gate(ctx, p.UserID, p.Category, p.Priority)
	if err != nil {
		return Result{}, err
	}
	if reason != "" {
		o.log.InfoContext(ctx, "notification suppressed",
			logger.UserID(p.UserID),
			logger.Category(string(p.Category)),
			slog.String("reason", string(reason)),
		)
		return suppressed(reason), nil
	}

	now := time.Now()
	n := &notification.Notification{
		ID:           uuid.New().String(),
		UserID:       p.UserID,
		Content:      o.translate(ctx, p.UserID, p.Content),
		Type:         p.Type,
		Priority:     p.Priority,
		Category:     p.Category,
		Status:       notification.StatusPending,
		Link:         p.Link,
		RelatedID:    p.RelatedID,
		Metadata:     notification.NormalizeMetadata(p.Metadata),
		ScheduledFor: p.ScheduledFor,
		MaxRetries:   notification.DefaultMaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if p.RelatedID != "" {
		group, createdNow, err := o.storage.FindOrCreateGroup(ctx, p.Type, p.UserID, p.RelatedID, n.ID)
		if err != nil {
			return Result{}, err
		}
		n.GroupID = group.ID
		if !createdNow {
			o.log.DebugContext(ctx, "notification coalesced into group",
				logger.GroupID(group.ID),
				slog.Int("count", group.Count),
			)
		}
	}

	if err := o.storage.Create(ctx, n); err != nil {
		return Result{}, err
	}

	if n.IsScheduled(now) {
		o.deferDelivery(ctx, n)
		return created(n), nil
	}

	if err := o.deliverNow(ctx, n); err != nil {
		return created(n), err
	}
	return created(n), nil
}

// deliverNow drives synchronous delivery and finalizes the
// zero-channels case: a false outcome with the notification still
// Pending means nothing was attempted and nothing will retry it.
func (o *Orchestrator) deliverNow(ctx context.Context, n *notification.Notification) error {
	if o.deliverer == nil {
		return nil
	}

	ok, err := o.deliverer.Deliver(ctx, n)
	if err != nil {
		return err
	}
	if !ok && n.Status == notification.StatusPending {
		n.Status = notification.StatusFailed
		n.UpdatedAt = time.Now()
		if err := o.storage.Update(ctx, n); err != nil {
			return err
		}
		o.log.WarnContext(ctx, "notification failed with no channels attempted",
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
		)
	}
	return nil
}

// deferDelivery schedules delivery at the notification's time. The
// closure re-reads the record so a notification read, archived, or
// delivered through another path in the meantime is left alone.
func (o *Orchestrator) deferDelivery(ctx context.Context, n *notification.Notification) {
	if o.sched == nil {
		return
	}

	o.sched.At(context.WithoutCancel(ctx), *n.ScheduledFor, func(ctx context.Context) {
		fresh, err := o.storage.Get(ctx, n.ID)
		if err != nil {
			o.log.ErrorContext(ctx, "scheduled delivery load failed",
				logger.NotificationID(n.ID),
				logger.Error(err),
			)
			return
		}
		if fresh.Status != notification.StatusPending {
			return
		}
		if err := o.deliverNow(ctx, fresh); err != nil {
			o.log.ErrorContext(ctx, "scheduled delivery failed",
				logger.NotificationID(n.ID),
				logger.Error(err),
			)
		}
	})
}

// gate evaluates suppression for (user, category), caching the
// non-urgent decision. An urgent notification that would only be gated
// by quiet hours re-evaluates the remaining gates instead.
func (o *Orchestrator) gate(ctx context.Context, userID string, category notification.Category, priority notification.Priority) (Reason, error) {
	key := gatingKey(userID, category)
	if reason, ok := o.gating.Get(key); ok {
		if reason == ReasonQuietHours && priority == notification.PriorityUrgent {
			return o.evaluateGate(ctx, userID, category, true)
		}
		return reason, nil
	}

	reason, err := o.evaluateGate(ctx, userID, category, false)
	if err != nil {
		return "", err
	}
	o.gating.Set(key, reason)

	if reason == ReasonQuietHours && priority == notification.PriorityUrgent {
		return o.evaluateGate(ctx, userID, category, true)
	}
	return reason, nil
}

func (o *Orchestrator) evaluateGate(ctx context.Context, userID string, category notification.Category, skipQuietHours bool) (Reason, error) {
	p, err := o.prefs.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	if !skipQuietHours && p.InQuietHours(time.Now()) {
		return ReasonQuietHours, nil
	}
	if len(p.EnabledChannels()) == 0 {
		return ReasonNoChannels, nil
	}
	if !p.CategoryEnabled(category) {
		return ReasonCategoryDisabled, nil
	}
	return "", nil
}

// translate replaces content with its translation when the user opted
// into auto-translate and the detected language differs from their
// target. Every failure falls back to the original content.
func (o *Orchestrator) translate(ctx context.Context, userID, content string) string {
	if o.translator == nil || content == "" {
		return content
	}

	p, err := o.prefs.Get(ctx, userID)
	if err != nil || !p.AutoTranslate || p.Language == "" {
		return content
	}

	target, err := language.Parse(p.Language)
	if err != nil {
		return content
	}

	source, err := o.translator.Detect(ctx, content)
	if err != nil || source == target {
		return content
	}

	translated, err := o.translator.Translate(ctx, content, source, target)
	if err != nil {
		o.log.DebugContext(ctx, "translation failed, keeping original content",
			logger.UserID(userID),
			logger.Error(err),
		)
		return content
	}
	return translated
}
