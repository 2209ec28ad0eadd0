package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/scheduler"
)

// Sink sends a notification over one channel. Implementations handle
// their own "nothing to do" cases (no address on file, no devices, no
// open connections) by logging and returning nil.
type Sink interface {
	Channel() notification.Channel
	Send(ctx context.Context, n *notification.Notification) error
}

// DefaultRetryDelays is the escalating backoff table indexed by retry
// count; attempts past the table clamp to the last entry.
var DefaultRetryDelays = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
	40 * time.Minute,
	80 * time.Minute,
}

// DefaultIdempotencyTTL bounds how long a delivery outcome suppresses
// re-sends of the same attempt.
const DefaultIdempotencyTTL = 10 * time.Minute

// Coordinator fans one notification out across its enabled channels and
// owns the status state machine and retry bookkeeping.
type Coordinator struct {
	storage notification.Storage
	prefs   preferences.Store
	sinks   map[notification.Channel]Sink
	fsm     *StatusMachine

	idempotency    *cache.TTLCache[string, bool]
	idempotencyTTL time.Duration
	retryDelays    []time.Duration
	sched          scheduler.Scheduler
	log            *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSinks registers channel sinks. A later sink for the same channel
// replaces the earlier one.
func WithSinks(sinks ...Sink) Option {
	return func(c *Coordinator) {
		for _, s := range sinks {
			if s != nil {
				c.sinks[s.Channel()] = s
			}
		}
	}
}

// WithScheduler enables deferred re-delivery of retrying notifications.
// Without one, a failed attempt still records its retry state; something
// external has to call Deliver again.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(c *Coordinator) {
		c.sched = s
	}
}

// WithRetryDelays replaces the backoff table.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Coordinator) {
		if len(delays) > 0 {
			c.retryDelays = delays
		}
	}
}

// WithIdempotencyTTL overrides how long delivery outcomes are cached.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.idempotencyTTL = ttl
		}
	}
}

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(log *slog.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCoordinator creates a Coordinator over the given storage and
// preference store.
func NewCoordinator(storage notification.Storage, prefs preferences.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		storage:        storage,
		prefs:          prefs,
		sinks:          make(map[notification.Channel]Sink),
		fsm:            NewStatusMachine(),
		idempotencyTTL: DefaultIdempotencyTTL,
		retryDelays:    DefaultRetryDelays,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.idempotency = cache.NewTTLCache[string, bool](c.idempotencyTTL)
	return c
}

// Close releases the idempotency cache.
func (c *Coordinator) Close() {
	c.idempotency.Close()
}

// deliveryKey versions the idempotency key by retry count so a bumped
// retry is never short-circuited by the previous attempt's outcome.
func deliveryKey(n *notification.Notification) string {
	return fmt.Sprintf("delivery_%s_%d", n.ID, n.RetryCount)
}

// sendResult is one channel's outcome within a fan-out.
type sendResult struct {
	Channel notification.Channel
	Err     error
}

// Deliver attempts the notification across every enabled channel and
// returns whether all attempted sends succeeded. A concurrent or repeat
// call for the same attempt returns the cached outcome without
// re-sending. The returned error reports storage problems only; channel
// failures are absorbed into retry bookkeeping.
func (c *Coordinator) Deliver(ctx context.Context, n *notification.Notification) (bool, error) {
	if n == nil {
		return false, ErrNilNotification
	}

	key := deliveryKey(n)
	if cached, ok := c.idempotency.Get(key); ok {
		c.log.DebugContext(ctx, "delivery short-circuited by idempotency cache",
			logger.NotificationID(n.ID),
			slog.Bool("cached_result", cached),
		)
		return cached, nil
	}
	// Claim the attempt up front so the immediate path and a racing
	// retry timer cannot both fan out. The claim is overwritten with
	// the real outcome below.
	c.idempotency.Set(key, true)

	prefs, err := c.prefs.Get(ctx, n.UserID)
	if err != nil {
		return false, c.fail(ctx, n, key, notification.CloneMetadata(n.Metadata), []sendResult{
			{Channel: notification.ChannelAll, Err: err},
		})
	}

	sinks := c.enabledSinks(prefs)
	if len(sinks) == 0 {
		// Not a retryable failure: there was nothing to attempt.
		n.UpdatedAt = time.Now()
		if err := c.storage.Update(ctx, n); err != nil {
			return false, err
		}
		c.idempotency.Set(key, false)
		c.log.InfoContext(ctx, "no channels enabled, delivery skipped",
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
		)
		return false, nil
	}

	snapshot := notification.CloneMetadata(n.Metadata)

	futures := make([]*Future[sendResult], len(sinks))
	for i, s := range sinks {
		futures[i] = Async(ctx, s, func(ctx context.Context, s Sink) (sendResult, error) {
			return sendResult{Channel: s.Channel(), Err: s.Send(ctx, n)}, nil
		})
	}
	results, waitErrs := WaitAll(futures...)

	var failed []sendResult
	for i, res := range results {
		if res.Channel == "" {
			res.Channel = sinks[i].Channel()
		}
		if res.Err == nil {
			res.Err = waitErrs[i]
		}
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	if len(failed) > 0 {
		return false, c.fail(ctx, n, key, snapshot, failed)
	}

	to, err := c.fsm.Transition(n.Status, EventDelivered)
	if err != nil {
		return false, err
	}

	channel := sinks[0].Channel()
	if len(sinks) > 1 {
		channel = notification.ChannelAll
	}

	now := time.Now()
	if err := c.storage.AppendDeliveryLog(ctx, notification.DeliveryLogEntry{
		NotificationID: n.ID,
		AttemptedAt:    now,
		Status:         notification.StatusDelivered,
		Channel:        channel,
	}); err != nil {
		return false, err
	}

	n.Status = to
	n.LastChannel = channel
	n.UpdatedAt = now
	if err := c.storage.Update(ctx, n); err != nil {
		return false, err
	}

	c.idempotency.Set(key, true)
	c.log.InfoContext(ctx, "notification delivered",
		logger.NotificationID(n.ID),
		logger.UserID(n.UserID),
		logger.Channel(string(channel)),
		logger.RetryCount(n.RetryCount),
	)
	return true, nil
}

// RetryFailed reopens a terminally failed notification for exactly one
// more fan-out. Operator-triggered; the automated path never calls it.
func (c *Coordinator) RetryFailed(ctx context.Context, n *notification.Notification) (bool, error) {
	if n == nil {
		return false, ErrNilNotification
	}
	if n.Status != notification.StatusFailed {
		return false, fmt.Errorf("%w: status %s", ErrNotFailed, n.Status)
	}

	to, err := c.fsm.Transition(n.Status, EventReopen)
	if err != nil {
		return false, err
	}

	n.Status = to
	n.FailureReason = nil
	n.NextRetry = nil
	n.UpdatedAt = time.Now()
	if err := c.storage.Update(ctx, n); err != nil {
		return false, err
	}

	// The terminal attempt cached its outcome under the same retry
	// count; drop it so the manual retry actually sends.
	c.idempotency.Delete(deliveryKey(n))

	c.log.InfoContext(ctx, "failed notification reopened by operator",
		logger.NotificationID(n.ID),
		logger.UserID(n.UserID),
	)
	return c.Deliver(ctx, n)
}

// enabledSinks returns the registered sinks for the user's enabled
// channels, in stable channel order.
func (c *Coordinator) enabledSinks(p preferences.Preferences) []Sink {
	var sinks []Sink
	for _, ch := range p.EnabledChannels() {
		if s, ok := c.sinks[ch]; ok {
			sinks = append(sinks, s)
		}
	}
	return sinks
}

// errorType names the concrete error behind a channel failure for the
// structured failure snapshot.
func errorType(err error) string {
	if u := errors.Unwrap(err); u != nil {
		return fmt.Sprintf("%T", u)
	}
	return fmt.Sprintf("%T", err)
}

// fail commits the outcome of a failed attempt: metadata restored to
// its pre-attempt snapshot, per-channel audit entries, and either a
// terminal Failed or a Retrying with scheduled re-delivery.
func (c *Coordinator) fail(ctx context.Context, n *notification.Notification, key string, snapshot map[string]any, failed []sendResult) error {
	n.Metadata = snapshot

	now := time.Now()
	msgs := make([]string, 0, len(failed))
	for _, f := range failed {
		msgs = append(msgs, fmt.Sprintf("%s: %v", f.Channel, f.Err))
		if err := c.storage.AppendDeliveryLog(ctx, notification.DeliveryLogEntry{
			NotificationID: n.ID,
			AttemptedAt:    now,
			Status:         notification.StatusFailed,
			ErrorMessage:   f.Err.Error(),
			Channel:        f.Channel,
		}); err != nil {
			return err
		}
	}

	reason := &notification.FailureReason{
		NotificationID: n.ID,
		ErrorType:      errorType(failed[0].Err),
		ErrorMessage:   strings.Join(msgs, "; "),
		Timestamp:      now,
	}

	if n.RetriesExhausted() {
		to, err := c.fsm.Transition(n.Status, EventFail)
		if err != nil {
			return err
		}
		n.Status = to
		n.FailureReason = reason
		n.LastRetry = &now
		n.NextRetry = nil
		n.UpdatedAt = now
		if err := c.storage.Update(ctx, n); err != nil {
			return err
		}
		c.idempotency.Set(key, false)
		c.log.ErrorContext(ctx, "notification permanently failed",
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
			logger.RetryCount(n.RetryCount),
			slog.String("reason", reason.ErrorMessage),
		)
		return nil
	}

	to, err := c.fsm.Transition(n.Status, EventRetry)
	if err != nil {
		return err
	}

	n.RetryCount++
	delay := c.retryDelays[min(n.RetryCount-1, len(c.retryDelays)-1)]
	next := now.Add(delay)

	n.Status = to
	n.FailureReason = reason
	n.LastRetry = &now
	n.NextRetry = &next
	n.UpdatedAt = now
	if err := c.storage.Update(ctx, n); err != nil {
		return err
	}
	c.idempotency.Set(key, false)

	c.log.WarnContext(ctx, "delivery failed, retry scheduled",
		logger.NotificationID(n.ID),
		logger.UserID(n.UserID),
		logger.RetryCount(n.RetryCount),
		slog.Duration("delay", delay),
	)

	if c.sched != nil {
		c.sched.After(context.WithoutCancel(ctx), delay, func(ctx context.Context) {
			fresh, err := c.storage.Get(ctx, n.ID)
			if err != nil {
				c.log.ErrorContext(ctx, "retry load failed",
					logger.NotificationID(n.ID),
					logger.Error(err),
				)
				return
			}
			if fresh.Status != notification.StatusRetrying {
				return
			}
			if _, err := c.Deliver(ctx, fresh); err != nil {
				c.log.ErrorContext(ctx, "scheduled retry failed",
					logger.NotificationID(n.ID),
					logger.Error(err),
				)
			}
		})
	}
	return nil
}
