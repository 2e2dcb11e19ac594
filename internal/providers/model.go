// Package providers implements the model backends. The rest of the system
// sees only the Model interface; perception and planning use it identically
// and never branch on which backend is active.
package providers

import "context"

// Model is the text-in/text-out contract every backend satisfies.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
