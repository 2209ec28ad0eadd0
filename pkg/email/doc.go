// Package email provides outbound email delivery for notifications.
//
// The package exposes the EmailSender interface with two implementations:
// PostmarkClient for production (transactional API via Postmark) and
// DevSender for local development, which writes each email to disk as an
// HTML file plus a JSON metadata file instead of sending it.
//
// Sink adapts an EmailSender to the delivery fan-out: it resolves the
// recipient address through an AddressLookup and treats a missing address
// as "nothing to do" rather than a failure.
//
// Digest helpers assemble a single summary email from multiple buffered
// notification entries, used by the batching layer for users on hourly or
// daily frequency.
//
// Example:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//		return err
//	}
//	sink := email.NewSink(sender, lookupAddress, logger)
package email
