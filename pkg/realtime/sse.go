package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// sseSendBuffer is how many pending messages an SSE stream may hold
// before it is considered a slow consumer and pruned.
const sseSendBuffer = 16

// sseConnection bridges the registry to one HTTP response stream.
type sseConnection struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSSEConnection() *sseConnection {
	return &sseConnection{
		ch:   make(chan []byte, sseSendBuffer),
		done: make(chan struct{}),
	}
}

func (c *sseConnection) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.ch <- msg:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (c *sseConnection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Routes returns the SSE streaming endpoint mounted at
// GET /stream/{userID}. The stream stays open until the client
// disconnects, the registry rejects or prunes the connection, or the
// server shuts down.
func Routes(reg *Registry) chi.Router {
	r := chi.NewRouter()
	r.Get("/stream/{userID}", StreamHandler(reg))
	return r
}

// StreamHandler serves one SSE stream per request.
func StreamHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			http.Error(w, "missing user id", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		conn := newSSEConnection()
		if !reg.Connect(r.Context(), userID, conn) {
			http.Error(w, "too many connections", http.StatusTooManyRequests)
			return
		}
		defer reg.Disconnect(r.Context(), userID, conn)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-conn.done:
				return
			case msg := <-conn.ch:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
