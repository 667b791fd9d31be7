// Package generation defines the opaque producer interfaces (speech
// synthesis, transcription, document chunk extraction and chat completion)
// that workers depend on, and the validated generation pipeline that turns
// unreliable model text into schema-checked JSON.
//
// Concrete producers live under internal/platform (gemini, openai, pdf) and
// are constructed once at process start and injected, so every consumer can
// be tested with fakes.
package generation
