package batch_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/batch"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// collector is a Processor that records every flushed group.
type collector struct {
	mu     sync.Mutex
	groups [][]batch.Entry
}

func (c *collector) process(ctx context.Context, entries []batch.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = append(c.groups, entries)
}

func (c *collector) groupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups)
}

func (c *collector) all() [][]batch.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]batch.Entry, len(c.groups))
	copy(out, c.groups)
	return out
}

func entry(ch notification.Channel, recipient, title, content string) batch.Entry {
	return batch.Entry{Channel: ch, Recipient: recipient, Title: title, Content: content}
}

func TestBatcher_SizeThresholdFlush(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithMaxBatchSize(3),
		batch.WithMaxWait(time.Hour),
		batch.WithProcessor(c.process),
	)
	defer b.Close()

	b.Add(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	b.Add(ctx, entry(notification.ChannelEmail, "u2", "b", "2"))
	assert.Equal(t, 0, c.groupCount(), "under threshold, nothing flushes")

	b.Add(ctx, entry(notification.ChannelEmail, "u3", "c", "3"))

	require.Eventually(t, func() bool { return c.groupCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, c.all()[0], 3)
}

func TestBatcher_GroupsByChannel(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithMaxBatchSize(100),
		batch.WithProcessor(c.process),
	)

	b.Add(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	b.Add(ctx, entry(notification.ChannelPush, "u1", "b", "2"))
	b.Add(ctx, entry(notification.ChannelEmail, "u2", "c", "3"))
	b.Flush(ctx)
	b.Close()

	groups := c.all()
	require.Len(t, groups, 2)
	sizes := map[notification.Channel]int{}
	for _, g := range groups {
		sizes[g[0].Channel] = len(g)
	}
	assert.Equal(t, 2, sizes[notification.ChannelEmail])
	assert.Equal(t, 1, sizes[notification.ChannelPush])
}

func TestBatcher_TimeThresholdFlush(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithMaxBatchSize(100),
		batch.WithMaxWait(20*time.Millisecond),
		batch.WithProcessor(c.process),
	)
	defer b.Close()

	b.Add(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	time.Sleep(30 * time.Millisecond)
	b.Add(ctx, entry(notification.ChannelEmail, "u2", "b", "2"))

	require.Eventually(t, func() bool { return c.groupCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, c.all()[0], 2)
}

func TestBatcher_FlushEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(batch.WithProcessor(c.process))

	b.Flush(ctx)
	b.FlushDigests(ctx)
	b.Close()

	assert.Equal(t, 0, c.groupCount())
}

func TestBatcher_DigestSizeFlush(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithDigestMaxSize(3),
		batch.WithDigestWindow(time.Hour),
		batch.WithProcessor(c.process),
	)
	defer b.Close()

	for i := 1; i <= 3; i++ {
		b.AddDigest(ctx, entry(notification.ChannelEmail, "u1", fmt.Sprintf("comment %d", i), fmt.Sprintf("body %d", i)))
	}

	require.Eventually(t, func() bool { return c.groupCount() == 1 }, time.Second, 10*time.Millisecond)
	group := c.all()[0]
	require.Len(t, group, 1, "bucket flushes as one combined entry")

	combined := group[0]
	assert.Equal(t, "u1", combined.Recipient)
	assert.Equal(t, "3 new notifications", combined.Title)
	assert.Contains(t, combined.Content, "comment 1: body 1")
	assert.Contains(t, combined.Content, "comment 3: body 3")
}

func TestBatcher_DigestBucketsPerRecipient(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithDigestMaxSize(10),
		batch.WithProcessor(c.process),
	)

	b.AddDigest(ctx, entry(notification.ChannelEmail, "alice", "a", "1"))
	b.AddDigest(ctx, entry(notification.ChannelEmail, "alice", "b", "2"))
	b.AddDigest(ctx, entry(notification.ChannelEmail, "bob", "c", "3"))
	b.FlushDigests(ctx)
	b.Close()

	groups := c.all()
	var combined []batch.Entry
	for _, g := range groups {
		combined = append(combined, g...)
	}
	require.Len(t, combined, 2, "one combined entry per recipient")

	byRecipient := map[string]batch.Entry{}
	for _, e := range combined {
		byRecipient[e.Recipient] = e
	}
	assert.Contains(t, byRecipient["alice"].Content, "a: 1")
	assert.Contains(t, byRecipient["alice"].Content, "b: 2")
	assert.Equal(t, "3", byRecipient["bob"].Content, "single-item bucket keeps the original entry")
}

func TestBatcher_DigestWindowFlush(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithDigestMaxSize(100),
		batch.WithDigestWindow(20*time.Millisecond),
		batch.WithProcessor(c.process),
	)
	defer b.Close()

	b.AddDigest(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	time.Sleep(30 * time.Millisecond)
	b.AddDigest(ctx, entry(notification.ChannelEmail, "u1", "b", "2"))

	require.Eventually(t, func() bool { return c.groupCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Len(t, c.all()[0], 1)
	assert.Contains(t, c.all()[0][0].Content, "b: 2")
}

func TestBatcher_ClosedRejectsEntries(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(batch.WithProcessor(c.process))
	b.Close()

	b.Add(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	b.Flush(ctx)
	assert.Equal(t, 0, c.groupCount())
}

func TestSummary(t *testing.T) {
	mk := func(titles ...string) []batch.Entry {
		out := make([]batch.Entry, len(titles))
		for i, title := range titles {
			out[i] = batch.Entry{Title: title, Content: "content of " + title}
		}
		return out
	}

	tests := []struct {
		name    string
		entries []batch.Entry
		want    string
	}{
		{name: "empty", entries: nil, want: ""},
		{name: "single item shows content", entries: mk("a"), want: "content of a"},
		{name: "three items list titles", entries: mk("a", "b", "c"), want: "a, b, c"},
		{name: "four items truncate with count", entries: mk("a", "b", "c", "d"), want: "a, b, c… and 1 more"},
		{name: "seven items", entries: mk("a", "b", "c", "d", "e", "f", "g"), want: "a, b, c… and 4 more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batch.Summary(tt.entries))
		})
	}
}

func TestBatcher_WithConfig(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	b := batch.New(
		batch.WithConfig(batch.Config{
			MaxBatchSize: 2,
			MaxWait:      time.Hour,
		}),
		batch.WithProcessor(c.process),
	)
	defer b.Close()

	b.Add(ctx, entry(notification.ChannelEmail, "u1", "a", "1"))
	assert.Equal(t, 0, c.groupCount())

	b.Add(ctx, entry(notification.ChannelEmail, "u2", "b", "2"))
	require.Eventually(t, func() bool { return c.groupCount() == 1 }, time.Second, 10*time.Millisecond)
}
