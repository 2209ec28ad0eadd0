// Package orchestrator decides whether, how, and when a notification is
// created and sent.
//
// Create runs the full pipeline for one notification: lenient metadata
// normalization, preference gating (quiet hours, enabled channels,
// category toggles) with a short-TTL decision cache, optional automatic
// translation, group coalescing for repeated events on the same related
// entity, persistence in Pending, and either synchronous delivery or a
// deferred one when the notification is scheduled for the future.
//
// Gating returns a suppressed Result rather than an error: a user who
// turned a category off is a normal outcome, not a failure. Urgent
// notifications bypass quiet hours but still honor channel and category
// settings.
//
// CreateBulk is the strict batch path: metadata that would be silently
// dropped on Create rejects the whole batch here, duplicate requests
// within the batch collapse onto the first record, and persistence is
// all-or-nothing.
package orchestrator
