package ports

import "context"

// Generator produces text from a prompt. Implementations wrap a language
// model; the pipeline treats the call as a black box and applies its own
// retry budget around it.
type Generator interface {
	// Generate returns the model's reply for the prompt, bounded by
	// maxTokens (0 means the adapter's default).
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}
