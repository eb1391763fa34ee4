package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion indicates the provider answered without any text.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completer turns a prompt into generated text. Implementations perform a single blocking
// call and never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f(ctx, prompt).
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
