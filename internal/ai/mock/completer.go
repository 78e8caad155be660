package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/recruitai/internal/ai"
)

// CompleterCall is one recorded Completer invocation.
type CompleterCall struct {
	Prompt         string
	CompletionType string
	Overrides      map[string]any
}

// Completer satisfies ai.Completer for service and batch tests.
type Completer struct {
	CompleteFunc func(ctx context.Context, prompt, completionType string, overrides map[string]any) (string, error)

	mu    sync.Mutex
	calls []CompleterCall
}

func (c *Completer) Complete(ctx context.Context, prompt, completionType string, overrides map[string]any) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, CompleterCall{Prompt: prompt, CompletionType: completionType, Overrides: overrides})
	c.mu.Unlock()

	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, prompt, completionType, overrides)
	}
	return "", nil
}

// Calls returns a copy of the recorded invocations.
func (c *Completer) Calls() []CompleterCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CompleterCall(nil), c.calls...)
}

// NewCompleterByType answers each completion type with a fixed text. Unknown
// types return an exhaustion error.
func NewCompleterByType(responses map[string]string) *Completer {
	return &Completer{
		CompleteFunc: func(_ context.Context, _ string, completionType string, _ map[string]any) (string, error) {
			if text, ok := responses[completionType]; ok {
				return text, nil
			}
			return "", &ai.ExhaustionError{CompletionType: completionType, Last: ai.ErrProviderUnavailable}
		},
	}
}

var _ ai.Completer = (*Completer)(nil)
