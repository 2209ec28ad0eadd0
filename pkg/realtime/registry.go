package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Connection is one live client attachment (an SSE stream, a websocket,
// a test double). Send must not block indefinitely; a connection that
// cannot accept the message returns an error and gets pruned.
type Connection interface {
	Send(ctx context.Context, msg []byte) error
	Close() error
}

const (
	// DefaultMaxConnectionsPerUser bounds how many simultaneous streams
	// one user may hold before new ones are rejected.
	DefaultMaxConnectionsPerUser = 8

	// DefaultPresenceTTL keeps stale presence keys from outliving
	// crashed processes. Refreshed on every connect.
	DefaultPresenceTTL = 5 * time.Minute

	presenceKeyPrefix = "presence:"
)

// Registry tracks open connections per user and fans messages out to
// them. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string][]Connection
	maxPerUser  int
	presence    *redis.Client
	presenceTTL time.Duration
	log         *slog.Logger
	closed      bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxConnectionsPerUser overrides the per-user connection cap.
// Non-positive values keep the default.
func WithMaxConnectionsPerUser(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxPerUser = n
		}
	}
}

// WithPresenceMirror publishes per-user presence keys to Redis.
// Mirror failures are logged and ignored.
func WithPresenceMirror(rdb *redis.Client) RegistryOption {
	return func(r *Registry) {
		r.presence = rdb
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty connection registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:       make(map[string][]Connection),
		maxPerUser:  DefaultMaxConnectionsPerUser,
		presenceTTL: DefaultPresenceTTL,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect registers a connection for the user. It returns false and
// closes conn when the registry is shut down or the user is at the cap.
func (r *Registry) Connect(ctx context.Context, userID string, conn Connection) bool {
	if userID == "" || conn == nil {
		return false
	}

	r.mu.Lock()
	if r.closed || len(r.conns[userID]) >= r.maxPerUser {
		r.mu.Unlock()
		_ = conn.Close()
		return false
	}
	first := len(r.conns[userID]) == 0
	r.conns[userID] = append(r.conns[userID], conn)
	r.mu.Unlock()

	if first {
		r.mirrorPresence(ctx, userID, true)
	}
	return true
}

// Disconnect removes and closes the connection. Unknown connections are
// ignored.
func (r *Registry) Disconnect(ctx context.Context, userID string, conn Connection) {
	r.mu.Lock()
	conns := r.conns[userID]
	for i, c := range conns {
		if c == conn {
			r.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	last := len(r.conns[userID]) == 0
	if last {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	_ = conn.Close()
	if last {
		r.mirrorPresence(ctx, userID, false)
	}
}

// SendPersonal delivers msg to every connection the user currently
// holds and returns how many accepted it. Connections that fail the
// send are pruned afterwards, not during the fan-out, so one dead
// stream never stalls the others.
func (r *Registry) SendPersonal(ctx context.Context, userID string, msg []byte) int {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0
	}
	conns := make([]Connection, len(r.conns[userID]))
	copy(conns, r.conns[userID])
	r.mu.RUnlock()

	var failed []Connection
	delivered := 0
	for _, c := range conns {
		if err := c.Send(ctx, msg); err != nil {
			failed = append(failed, c)
			r.log.DebugContext(ctx, "dropping dead connection",
				logger.UserID(userID),
				logger.Error(err),
			)
			continue
		}
		delivered++
	}

	for _, c := range failed {
		r.Disconnect(ctx, userID, c)
	}
	return delivered
}

// Broadcast sends msg to every connected user and returns the total
// delivered count. Membership is re-read per user, so users who
// disconnect mid-broadcast are simply skipped.
func (r *Registry) Broadcast(ctx context.Context, msg []byte) int {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0
	}
	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	r.mu.RUnlock()

	total := 0
	for _, userID := range users {
		total += r.SendPersonal(ctx, userID, msg)
	}
	return total
}

// Connections reports how many connections the user currently holds.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// Close shuts the registry down, closing every connection. Subsequent
// Connect calls are rejected.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	conns := r.conns
	r.conns = make(map[string][]Connection)
	r.mu.Unlock()

	ctx := context.Background()
	for userID, cs := range conns {
		for _, c := range cs {
			_ = c.Close()
		}
		r.mirrorPresence(ctx, userID, false)
	}
}

func (r *Registry) mirrorPresence(ctx context.Context, userID string, online bool) {
	if r.presence == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	key := presenceKeyPrefix + userID
	var err error
	if online {
		err = r.presence.Set(ctx, key, "1", r.presenceTTL).Err()
	} else {
		err = r.presence.Del(ctx, key).Err()
	}
	if err != nil {
		r.log.WarnContext(ctx, "presence mirror update failed",
			logger.UserID(userID),
			logger.Error(err),
		)
	}
}
