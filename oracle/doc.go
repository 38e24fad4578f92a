// Package oracle provides ready-made aspectree.Oracle implementations.
//
// Two backends are included: an OpenAI-compatible chat completions client
// (works with OpenAI itself and anything speaking the same API) and an Ollama
// client for local models. Both rate-limit themselves, retry transient
// failures with exponential backoff, and are safe for concurrent use, so a
// single client can be shared across an engine's concurrent runs.
package oracle
