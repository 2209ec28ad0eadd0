package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Entry is one outbound notification queued for batching.
type Entry struct {
	Channel   notification.Channel
	Recipient string
	Title     string
	Content   string
	BatchID   string
}

// Processor handles a flushed group of entries. Each call receives
// entries for a single channel.
type Processor func(ctx context.Context, entries []Entry)

const (
	DefaultMaxBatchSize  = 50
	DefaultMaxWait       = 30 * time.Second
	DefaultDigestMaxSize = 10
	DefaultDigestWindow  = 15 * time.Minute
)

// Batcher accumulates entries and flushes them on size or time
// thresholds. Safe for concurrent use.
type Batcher struct {
	mu        sync.Mutex
	entries   []Entry
	lastFlush time.Time

	digestMu sync.Mutex
	digests  map[string][]Entry
	openedAt map[string]time.Time

	maxBatchSize  int
	maxWait       time.Duration
	digestMaxSize int
	digestWindow  time.Duration
	processor     Processor

	wg     sync.WaitGroup
	closed bool
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithMaxBatchSize sets the ordinary-path size threshold.
func WithMaxBatchSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.maxBatchSize = n
		}
	}
}

// WithMaxWait sets how long the ordinary batch may sit before the next
// Add flushes it regardless of size.
func WithMaxWait(d time.Duration) Option {
	return func(b *Batcher) {
		if d > 0 {
			b.maxWait = d
		}
	}
}

// WithDigestMaxSize sets the per-recipient digest bucket size cap.
func WithDigestMaxSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.digestMaxSize = n
		}
	}
}

// WithDigestWindow sets how long a digest bucket may stay open before
// the next AddDigest flushes it.
func WithDigestWindow(d time.Duration) Option {
	return func(b *Batcher) {
		if d > 0 {
			b.digestWindow = d
		}
	}
}

// WithProcessor sets the downstream handler for flushed entries.
func WithProcessor(p Processor) Option {
	return func(b *Batcher) {
		b.processor = p
	}
}

// New creates a Batcher. Without WithProcessor flushed entries are
// silently dropped, which is only useful in tests.
func New(opts ...Option) *Batcher {
	b := &Batcher{
		digests:       make(map[string][]Entry),
		openedAt:      make(map[string]time.Time),
		maxBatchSize:  DefaultMaxBatchSize,
		maxWait:       DefaultMaxWait,
		digestMaxSize: DefaultDigestMaxSize,
		digestWindow:  DefaultDigestWindow,
		lastFlush:     time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add queues an entry on the ordinary path. When the batch reaches the
// size cap, or the previous flush was longer than the max wait ago, the
// current batch is swapped out and processed asynchronously so the
// caller never blocks on downstream sends.
func (b *Batcher) Add(ctx context.Context, e Entry) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.entries = append(b.entries, e)
	var flushed []Entry
	if len(b.entries) >= b.maxBatchSize || time.Since(b.lastFlush) >= b.maxWait {
		flushed = b.swapLocked()
	}
	b.mu.Unlock()

	b.process(ctx, flushed)
}

// Flush processes whatever is queued on the ordinary path. Empty batch
// is a no-op.
func (b *Batcher) Flush(ctx context.Context) {
	b.mu.Lock()
	flushed := b.swapLocked()
	b.mu.Unlock()

	b.process(ctx, flushed)
}

// swapLocked exchanges the live batch for an empty one. Caller holds mu.
func (b *Batcher) swapLocked() []Entry {
	flushed := b.entries
	b.entries = nil
	b.lastFlush = time.Now()
	return flushed
}

// process groups a swapped-out batch by channel and hands each group to
// the processor on its own goroutine.
func (b *Batcher) process(ctx context.Context, entries []Entry) {
	if len(entries) == 0 || b.processor == nil {
		return
	}

	groups := make(map[notification.Channel][]Entry)
	for _, e := range entries {
		groups[e.Channel] = append(groups[e.Channel], e)
	}

	for _, group := range groups {
		b.wg.Add(1)
		go func(group []Entry) {
			defer b.wg.Done()
			b.processor(ctx, group)
		}(group)
	}
}

// AddDigest queues an entry into the recipient's digest bucket. A bucket
// that reaches the size cap, or has been open longer than the digest
// window, is flushed as one combined entry.
func (b *Batcher) AddDigest(ctx context.Context, e Entry) {
	b.digestMu.Lock()
	if b.closed {
		b.digestMu.Unlock()
		return
	}
	if len(b.digests[e.Recipient]) == 0 {
		b.openedAt[e.Recipient] = time.Now()
	}
	b.digests[e.Recipient] = append(b.digests[e.Recipient], e)

	var combined []Entry
	bucket := b.digests[e.Recipient]
	if len(bucket) >= b.digestMaxSize || time.Since(b.openedAt[e.Recipient]) >= b.digestWindow {
		combined = append(combined, combine(bucket))
		delete(b.digests, e.Recipient)
		delete(b.openedAt, e.Recipient)
	}
	b.digestMu.Unlock()

	b.process(ctx, combined)
}

// FlushDigests flushes every open digest bucket, one combined entry per
// recipient. No open buckets is a no-op.
func (b *Batcher) FlushDigests(ctx context.Context) {
	b.digestMu.Lock()
	var combined []Entry
	for recipient, bucket := range b.digests {
		if len(bucket) == 0 {
			continue
		}
		combined = append(combined, combine(bucket))
		delete(b.digests, recipient)
		delete(b.openedAt, recipient)
	}
	b.digestMu.Unlock()

	b.process(ctx, combined)
}

// Close flushes both paths and waits for in-flight processing. The
// Batcher rejects entries afterwards.
func (b *Batcher) Close() {
	b.mu.Lock()
	alreadyClosed := b.closed
	b.closed = true
	b.mu.Unlock()
	if alreadyClosed {
		return
	}

	ctx := context.Background()
	b.Flush(ctx)
	b.FlushDigests(ctx)
	b.wg.Wait()
}

// combine merges one recipient's bucket into a single entry whose body
// concatenates each item's title and content.
func combine(bucket []Entry) Entry {
	if len(bucket) == 1 {
		return bucket[0]
	}

	var sb strings.Builder
	for i, e := range bucket {
		if i > 0 {
			sb.WriteString("\n")
		}
		if e.Title != "" {
			sb.WriteString(e.Title)
			sb.WriteString(": ")
		}
		sb.WriteString(e.Content)
	}

	return Entry{
		Channel:   bucket[0].Channel,
		Recipient: bucket[0].Recipient,
		Title:     fmt.Sprintf("%d new notifications", len(bucket)),
		Content:   sb.String(),
		BatchID:   bucket[0].BatchID,
	}
}

// Summary renders a short body for a flushed group: one item shows its
// content, up to three list their titles, more than three list the
// first three with an aggregate count.
func Summary(entries []Entry) string {
	switch {
	case len(entries) == 0:
		return ""
	case len(entries) == 1:
		return entries[0].Content
	case len(entries) <= 3:
		titles := make([]string, len(entries))
		for i, e := range entries {
			titles[i] = e.Title
		}
		return strings.Join(titles, ", ")
	default:
		titles := make([]string, 3)
		for i := range titles {
			titles[i] = entries[i].Title
		}
		return fmt.Sprintf("%s… and %d more", strings.Join(titles, ", "), len(entries)-3)
	}
}
