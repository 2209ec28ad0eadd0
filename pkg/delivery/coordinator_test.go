package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/scheduler"
)

// fakeSink counts sends and can fail or mutate the notification.
type fakeSink struct {
	ch     notification.Channel
	mu     sync.Mutex
	calls  int
	err    error
	mutate func(n *notification.Notification)
}

func (s *fakeSink) Channel() notification.Channel { return s.ch }

func (s *fakeSink) Send(ctx context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.mutate != nil {
		s.mutate(n)
	}
	return s.err
}

func (s *fakeSink) sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newPending(t *testing.T, store notification.Storage, userID string) *notification.Notification {
	t.Helper()
	n := &notification.Notification{
		ID:         uuid.New().String(),
		UserID:     userID,
		Content:    "hello",
		Type:       "test",
		Category:   notification.CategorySocial,
		Status:     notification.StatusPending,
		MaxRetries: notification.DefaultMaxRetries,
		Metadata:   map[string]any{"post_id": "p1"},
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.Create(context.Background(), n))
	return n
}

func setup(t *testing.T, opts ...delivery.Option) (*delivery.Coordinator, notification.Storage, *preferences.MemoryStore) {
	t.Helper()
	store := notification.NewMemoryStorage()
	prefs := preferences.NewMemoryStore()
	c := delivery.NewCoordinator(store, prefs, opts...)
	t.Cleanup(c.Close)
	return c, store, prefs
}

func TestCoordinator_DeliverAllChannels(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail}
	pu := &fakeSink{ch: notification.ChannelPush}
	ia := &fakeSink{ch: notification.ChannelInApp}
	c, store, _ := setup(t, delivery.WithSinks(em, pu, ia))

	n := newPending(t, store, "u1")
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, em.sends())
	assert.Equal(t, 1, pu.sends())
	assert.Equal(t, 1, ia.sends())

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDelivered, stored.Status)
	assert.Equal(t, notification.ChannelAll, stored.LastChannel)

	log, err := store.DeliveryLog(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, log, 1, "full fan-out success records one entry")
	assert.Equal(t, notification.ChannelAll, log[0].Channel)
	assert.Equal(t, notification.StatusDelivered, log[0].Status)
}

func TestCoordinator_SingleChannelLogsThatChannel(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail}
	c, store, prefs := setup(t, delivery.WithSinks(em))

	p, err := prefs.Get(ctx, "u1")
	require.NoError(t, err)
	p.PushEnabled = false
	p.InAppEnabled = false
	require.NoError(t, prefs.Update(ctx, p))

	n := newPending(t, store, "u1")
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)

	log, err := store.DeliveryLog(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, notification.ChannelEmail, log[0].Channel)
}

func TestCoordinator_Idempotency(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail}
	c, store, _ := setup(t, delivery.WithSinks(em))

	n := newPending(t, store, "u1")
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	require.True(t, ok)

	// Same notification, same retry count: cached outcome, no re-send.
	again, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.True(t, again)
	assert.Equal(t, 1, em.sends())
}

func TestCoordinator_ZeroChannelsNotRetryable(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail}
	c, store, prefs := setup(t, delivery.WithSinks(em))

	p, err := prefs.Get(ctx, "u1")
	require.NoError(t, err)
	p.EmailEnabled = false
	p.PushEnabled = false
	p.InAppEnabled = false
	require.NoError(t, prefs.Update(ctx, p))

	n := newPending(t, store, "u1")
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, em.sends())

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, stored.Status, "no status change beyond the commit")
	assert.Equal(t, 0, stored.RetryCount)

	// Cached as a final false outcome.
	again, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestCoordinator_FailureSchedulesRetry(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("smtp down")}
	ia := &fakeSink{ch: notification.ChannelInApp}
	c, store, prefs := setup(t, delivery.WithSinks(em, ia))

	p, err := prefs.Get(ctx, "u1")
	require.NoError(t, err)
	p.PushEnabled = false
	require.NoError(t, prefs.Update(ctx, p))

	n := newPending(t, store, "u1")
	before := time.Now()
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.False(t, ok)

	// The healthy channel still attempted.
	assert.Equal(t, 1, ia.sends())

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.NextRetry)
	assert.WithinDuration(t, before.Add(5*time.Minute), *stored.NextRetry, 5*time.Second)
	require.NotNil(t, stored.FailureReason)
	assert.Contains(t, stored.FailureReason.ErrorMessage, "smtp down")

	// Only the failed channel gets a failure audit entry.
	log, err := store.DeliveryLog(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, notification.ChannelEmail, log[0].Channel)
	assert.Equal(t, notification.StatusFailed, log[0].Status)
	assert.Contains(t, log[0].ErrorMessage, "smtp down")
}

func TestCoordinator_MetadataRestoredOnFailure(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{
		ch:  notification.ChannelEmail,
		err: errors.New("boom"),
		mutate: func(n *notification.Notification) {
			n.Metadata["scratch"] = "partial render state"
		},
	}
	c, store, _ := setup(t, delivery.WithSinks(em))

	n := newPending(t, store, "u1")
	_, err := c.Deliver(ctx, n)
	require.NoError(t, err)

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"post_id": "p1"}, stored.Metadata, "pre-attempt metadata snapshot restored")
}

func TestCoordinator_RetriesExhaustedGoesTerminal(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("boom")}
	c, store, _ := setup(t, delivery.WithSinks(em))

	n := newPending(t, store, "u1")
	n.MaxRetries = 1
	require.NoError(t, store.Update(ctx, n))

	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, 0, stored.RetryCount, "terminal failure does not burn a retry increment")
	require.NotNil(t, stored.FailureReason)
	require.NotNil(t, stored.LastRetry)
	assert.Nil(t, stored.NextRetry)
}

func TestCoordinator_RetryCountNeverExceedsMax(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("boom")}
	c, store, _ := setup(t, delivery.WithSinks(em))

	n := newPending(t, store, "u1")

	// Drive the full retry ladder by hand, the way an external caller
	// would after each recorded next_retry elapses.
	for range n.MaxRetries + 2 {
		fresh, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		if fresh.Status == notification.StatusFailed {
			break
		}
		_, err = c.Deliver(ctx, fresh)
		require.NoError(t, err)
	}

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.LessOrEqual(t, stored.RetryCount, stored.MaxRetries)
}

func TestCoordinator_ScheduledRetryRecovers(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("transient")}
	sched := scheduler.NewTimerScheduler()
	defer sched.Close()

	c, store, _ := setup(t,
		delivery.WithSinks(em),
		delivery.WithScheduler(sched),
		delivery.WithRetryDelays([]time.Duration{20 * time.Millisecond}),
	)

	n := newPending(t, store, "u1")
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	require.False(t, ok)

	// Outage ends before the scheduled retry fires.
	em.setErr(nil)

	require.Eventually(t, func() bool {
		stored, err := store.Get(ctx, n.ID)
		return err == nil && stored.Status == notification.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, em.sends())
}

func TestCoordinator_RetryFailed(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("boom")}
	c, store, _ := setup(t, delivery.WithSinks(em))

	n := newPending(t, store, "u1")
	n.MaxRetries = 1
	require.NoError(t, store.Update(ctx, n))

	_, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	require.Equal(t, notification.StatusFailed, n.Status)

	// Operator reopens after the outage clears.
	em.setErr(nil)
	ok, err := c.RetryFailed(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDelivered, stored.Status)
	assert.Nil(t, stored.FailureReason)
}

func TestCoordinator_RetryFailedRejectsNonFailed(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t, delivery.WithSinks(&fakeSink{ch: notification.ChannelEmail}))

	n := newPending(t, store, "u1")
	_, err := c.RetryFailed(ctx, n)
	assert.ErrorIs(t, err, delivery.ErrNotFailed)
}

func TestCoordinator_NilNotification(t *testing.T) {
	c, _, _ := setup(t)
	_, err := c.Deliver(context.Background(), nil)
	assert.ErrorIs(t, err, delivery.ErrNilNotification)
}

func TestCoordinator_WithConfig(t *testing.T) {
	ctx := context.Background()
	em := &fakeSink{ch: notification.ChannelEmail, err: errors.New("smtp down")}
	c, store, prefs := setup(t,
		delivery.WithSinks(em),
		delivery.WithConfig(delivery.Config{
			RetryDelays:    []time.Duration{time.Minute},
			IdempotencyTTL: time.Minute,
		}),
	)

	p, err := prefs.Get(ctx, "u1")
	require.NoError(t, err)
	p.PushEnabled = false
	p.InAppEnabled = false
	require.NoError(t, prefs.Update(ctx, p))

	n := newPending(t, store, "u1")
	before := time.Now()
	ok, err := c.Deliver(ctx, n)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextRetry)
	assert.WithinDuration(t, before.Add(time.Minute), *stored.NextRetry, 5*time.Second)
}
