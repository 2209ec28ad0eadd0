// Package batch coalesces bursts of outbound notifications into fewer
// messages.
//
// Batcher keeps two independent accumulators. The ordinary batch collects
// entries across recipients and flushes on size or elapsed time, handing
// the swapped-out entries to the processor grouped by channel so producers
// never wait on downstream sends. The digest path buckets entries per
// recipient and flushes each bucket as a single combined entry once it
// reaches the size cap or its window elapses, bounding outbound volume
// when one user receives many notifications in a short burst.
//
// Thresholds are evaluated on Add/AddDigest; callers that need purely
// time-driven flushing drive Flush and FlushDigests from a ticker.
package batch
