// Package notify consumes task events and delivers a human-readable message
// for each one to the configured sinks. Delivery is best effort: failures are
// logged and counted, never retried.
package notify
