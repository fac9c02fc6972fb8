// Package mailer provides a provider-agnostic delivery client for
// transactional email with built-in Postmark support and an in-process
// retry wrapper.
//
// The package is built around the Sender interface so providers can be
// swapped without changing the processing path. Two implementations ship:
//   - PostmarkSender for production delivery with open/click tracking
//   - DevSender for local development (saves emails to disk)
//
// Send converts every provider or transport failure into a Result value
// rather than an error: the notification processor persists outcomes, it
// does not branch on error types. SendWithRetry layers exponential backoff
// (1s base, doubling) on top of any Sender.
package mailer
