package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/orchestrator"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
)

func TestCreateBulk_PersistsAll(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStorage()
	o := orchestrator.New(store, preferences.NewMemoryStore(), nil)
	defer o.Close()

	batch := []orchestrator.CreateParams{
		params("u1"),
		params("u2"),
		params("u3"),
	}

	results, err := o.CreateBulk(ctx, batch)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		stored, err := store.Get(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, batch[i].UserID, stored.UserID)
		assert.Equal(t, notification.StatusPending, stored.Status)
	}
}

func TestCreateBulk_DedupesIdenticalRequests(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStorage()
	o := orchestrator.New(store, preferences.NewMemoryStore(), nil)
	defer o.Close()

	p := params("u1")
	results, err := o.CreateBulk(ctx, []orchestrator.CreateParams{p, p, p})
	require.NoError(t, err)
	require.Len(t, results, 3, "every request resolves to a record")

	assert.Same(t, results[0], results[1])
	assert.Same(t, results[0], results[2])

	list, err := store.List(ctx, "u1", notification.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "duplicates collapse onto one persisted record")
}

func TestCreateBulk_DifferentContentIsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStorage()
	o := orchestrator.New(store, preferences.NewMemoryStore(), nil)
	defer o.Close()

	a := params("u1")
	b := params("u1")
	b.Content = "bob commented on your post"

	results, err := o.CreateBulk(ctx, []orchestrator.CreateParams{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].ID, results[1].ID)
}

func TestCreateBulk_OversizeMetadataRejectsBatch(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStorage()
	o := orchestrator.New(store, preferences.NewMemoryStore(), nil)
	defer o.Close()

	good := params("u1")
	bad := params("u2")
	bad.Metadata = map[string]any{"blob": string(make([]byte, notification.MaxMetadataSize+1))}

	_, err := o.CreateBulk(ctx, []orchestrator.CreateParams{good, bad})
	require.ErrorIs(t, err, notification.ErrMetadataTooLarge)

	list, err := store.List(ctx, "u1", notification.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list, "a rejected batch persists nothing")
}

func TestCreateBulk_MissingUserIDRejectsBatch(t *testing.T) {
	o := orchestrator.New(notification.NewMemoryStorage(), preferences.NewMemoryStore(), nil)
	defer o.Close()

	_, err := o.CreateBulk(context.Background(), []orchestrator.CreateParams{
		params("u1"),
		{Content: "orphan"},
	})
	assert.ErrorIs(t, err, notification.ErrMissingUserID)
}

func TestCreateBulk_Empty(t *testing.T) {
	o := orchestrator.New(notification.NewMemoryStorage(), preferences.NewMemoryStore(), nil)
	defer o.Close()

	results, err := o.CreateBulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}
