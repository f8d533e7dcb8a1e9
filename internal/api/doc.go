// Package api is the HTTP boundary of the service. It decodes and validates
// requests, resolves the tenant a request acts for, calls the orchestrator and
// maps its errors to status codes with sanitized messages.
package api
