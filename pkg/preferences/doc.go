// Package preferences manages per-user delivery preferences: channel
// toggles, quiet hours, category toggles, and auto-translation settings.
//
// Preferences follow a lookup-or-default contract: reading preferences for a
// user who never configured any returns safe defaults (all channels enabled,
// no quiet hours, all categories allowed) rather than an error.
//
// CachedStore wraps any Store with short-TTL memoization so the hot gating
// path of the orchestrator does not hit persistence on every create. Updates
// through the wrapper invalidate the cached entry and notify registered
// listeners, which the orchestrator uses to drop its gating decisions for
// the affected user.
package preferences
