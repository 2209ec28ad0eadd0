// Package scheduler provides deferred execution for scheduled
// notifications and delivery retries.
//
// Scheduler is the collaborator interface the delivery layer depends on:
// run a function after a delay or at a point in time. TimerScheduler is
// the in-process implementation on top of time.AfterFunc with a drain on
// Close. QueueScheduler is the heavier variant: tasks go through an
// in-memory store and a claim loop with bounded concurrency and panic
// recovery, and named handlers can be registered so payload-carrying
// tasks survive being enqueued before their handler code runs.
package scheduler
