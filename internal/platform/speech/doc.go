// Package speech adapts the OpenAI audio endpoints to the generation
// package's Synthesizer and Transcriber interfaces.
package speech
