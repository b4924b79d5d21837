package ports

import "context"

// Completer is an opaque text completion service.
// The orchestrator uses it to phrase engine messages; it never drives state.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
