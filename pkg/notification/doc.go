// Package notification defines the core domain model of the delivery engine:
// the Notification record with its status lifecycle, notification groups
// that coalesce repeated events, the append-only delivery log, and the
// Storage contract with in-memory and PostgreSQL implementations.
//
// # Lifecycle
//
// A notification is created in StatusPending and moved by the delivery
// coordinator to StatusDelivered, StatusRetrying, or StatusFailed. Delivered
// and exhausted-Failed are terminal for the automated path. Read/seen/
// archive/delete mutators are idempotent; soft-deleting implies archiving.
//
// # Metadata
//
// Metadata is a bounded key/value payload (MaxMetadataSize bytes when JSON
// encoded). NormalizeMetadata is the lenient policy used by single creates:
// invalid or oversize metadata is dropped to an empty map so persistence is
// never blocked by decoration. ValidateMetadata is the strict policy used by
// the bulk API: it rejects instead of dropping.
package notification
