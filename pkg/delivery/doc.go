// Package delivery fans a single logical notification out across its
// enabled channels and manages the retry state machine.
//
// Coordinator.Deliver resolves the user's enabled channels, sends to
// every matching Sink concurrently, waits for all sends to finish, and
// then commits exactly one outcome: Delivered with an audit log entry,
// Retrying with a scheduled re-attempt, or terminal Failed with a
// structured failure snapshot. A TTL cache keyed by notification id and
// retry count makes concurrent calls for the same attempt idempotent; a
// bumped retry count versions the key so a fresh retry is never
// short-circuited by a stale result.
//
// Sinks own their "nothing to do" cases. No email address on file or
// zero open realtime connections is a successful send, not a failure;
// absence of a destination never burns a retry.
package delivery
