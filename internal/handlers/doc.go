// Package handlers wires the notification subsystem to HTTP: enqueue and
// status queries, the provider webhook, the scheduler-driven processing
// trigger, and an optional development send endpoint.
package handlers
