// Package generation provides the boundary between the pipeline and external
// reasoning services (LLMs). It defines the Reasoner port that providers such
// as Gemini and OpenRouter-hosted models implement, the decode contract that
// turns a raw model reply into a structured domain.Analysis, the helpers that
// split a composed draft from its illustration prompt, and the prompt builders
// for the analysis and compose steps.
package generation
