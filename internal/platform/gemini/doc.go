// Package gemini adapts Google's Gemini API to the generation.ChatCompleter
// interface.
//
// A Completer is constructed once at startup with the LLM configuration and
// injected into the validated pipeline and services. Calls are paced by a
// client-side token bucket so a burst of scoring or chunk-metadata jobs does
// not trip the provider's rate limits. API errors are translated into the
// generation package's sentinel errors.
package gemini
