// Package notification implements the asynchronous email notification
// lifecycle: queueing, batch processing with persisted retries, and
// reconciliation of provider delivery events.
//
// The package is organised around four components:
//
//   - Service    — validates and queues notification records
//   - Processor  — claims due rows in bounded batches and drives each one
//     to sent, a scheduled retry, or failed
//   - Reconciler — folds provider webhook events back into stored rows
//   - Storage    — the persistence interface, with Postgres and in-memory
//     implementations
//
// A notification moves through pending, sending, sent, failed, and bounced
// states. Rows in pending or failed with remaining retry slots are eligible
// for processing once their scheduled retry time passes. The processor runs
// one tick per invocation and owns no timers; an external periodic trigger
// supplies the cadence, so several trigger sources can coexist safely
// because claiming uses row locks that skip contended rows.
package notification
