// Package pipeline runs the four content-production stages for one task:
// Analyze, Retrieve-Context, Compose and Enrich.
//
// Stages receive a Context by value and return a new one. Once any stage has
// recorded an error the Pipeline stops invoking later stages, so a failed run
// carries its error list and nothing else forward.
package pipeline
