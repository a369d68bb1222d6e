package port

import "context"

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// TextGenerator produces derived text from a transcript.
type TextGenerator interface {
	// Summarize returns a short abstractive summary of the transcript.
	Summarize(ctx context.Context, transcript string) (string, error)
	// FormatParagraphs inserts paragraph breaks into a raw transcript
	// without altering its wording.
	FormatParagraphs(ctx context.Context, transcript string) (string, error)
}

// Embedder returns one fixed-length vector per input text, in input
// order. Transient upstream failures are reported as
// domain.RetryableError so callers can apply backoff.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
