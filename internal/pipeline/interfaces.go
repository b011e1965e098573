package pipeline

import "context"

// Generator issues one model call for a rendered prompt. Implemented by
// ai.Client; mocked in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
