// Package domain contains the content-production entities shared by the
// pipeline, orchestrator and delivery layers: the incoming request with its
// brand context, the structured analysis of a news item, per-platform drafts
// and the media plan that a finished task carries as its result.
package domain
