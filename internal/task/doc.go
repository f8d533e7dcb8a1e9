// Package task tracks the lifecycle of content-production tasks and runs
// their work out of band. It defines the task state machine, the Registry
// contract with its per-tenant admission ceiling and retention window, an
// in-memory Registry, and the bounded queue and worker pool that execute
// scheduled jobs.
package task
