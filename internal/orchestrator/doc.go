// Package orchestrator accepts content-production requests, admits them
// against the per-tenant ceiling, schedules them on the worker pool, drives
// each task to a terminal state and announces the outcome as an event.
package orchestrator
