// Package realtime tracks live client connections and pushes in-app
// notifications to them.
//
// Registry keeps the set of open connections per user. A user may hold
// several connections at once (multiple tabs or devices) up to a
// configurable cap; connecting past the cap is rejected. Sends that fail
// mark the connection for pruning, so a dead client disappears from the
// registry on the next write rather than blocking it.
//
// An optional presence mirror publishes per-user presence keys to Redis so
// other processes can see who is online. Mirror writes are best-effort and
// never fail the send path.
//
// Routes exposes an SSE endpoint streaming a user's notifications over a
// plain HTTP response; Sink adapts the registry to the delivery fan-out.
package realtime
