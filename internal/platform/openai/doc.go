// Package openai implements generation.Reasoner against OpenAI-compatible chat
// completion endpoints. It is used for the models hosted on OpenRouter.
package openai
