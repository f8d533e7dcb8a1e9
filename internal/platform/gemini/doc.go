// Package gemini implements generation.Reasoner on Google's Gemini API
// through the google.golang.org/genai SDK.
//
// Calls are retried with exponential backoff and jitter when the API reports a
// transient failure. Permanent failures (content blocked by safety filters,
// empty candidates) are returned immediately.
//
// Example:
//
//	r, err := gemini.New(ctx, cfg.LLM, logger)
//	reply, err := r.Complete(ctx, generation.Prompt{User: "...", JSON: true})
package gemini
