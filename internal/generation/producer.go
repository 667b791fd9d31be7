package generation

import "context"

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ChunkExtractor turns a document into ordered text chunks.
type ChunkExtractor interface {
	ExtractChunks(ctx context.Context, documentPath string) ([]string, error)
}

// ChatCompleter returns the model's text reply to a single-turn prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatCompleterFunc adapts a function to ChatCompleter.
type ChatCompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements ChatCompleter.
func (f ChatCompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
