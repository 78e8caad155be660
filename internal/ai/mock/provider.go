package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// Backend satisfies models.CompletionBackend for testing. Every request is
// recorded so tests can assert the model/key order the gateway walked.
type Backend struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []models.CompletionRequest
}

func (b *Backend) Name() string { return b.Name_ }

func (b *Backend) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()

	if b.CompleteFunc != nil {
		return b.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Calls returns a copy of the recorded requests.
func (b *Backend) Calls() []models.CompletionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.CompletionRequest(nil), b.calls...)
}

// NewBackend returns a Backend that answers every request with text.
func NewBackend(text string) *Backend {
	return &Backend{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return text, nil
		},
	}
}

// NewFailingBackend returns a Backend whose attempts all fail with the given kind.
func NewFailingBackend(kind models.ErrorKind, err error) *Backend {
	return &Backend{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			return "", &models.ProviderError{Kind: kind, Provider: "mock-failing", Model: req.Model, Err: err}
		},
	}
}

// NewTimeoutBackend returns a Backend that blocks until the attempt context ends.
func NewTimeoutBackend() *Backend {
	return &Backend{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, req models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", &models.ProviderError{Kind: models.KindTimeout, Provider: "mock-timeout", Model: req.Model, Err: ctx.Err()}
		},
	}
}

// Script routes each request by model and API key. Keys missing from the
// script fall through to Default.
type Script struct {
	// Responses[model][apiKey] is the outcome for that pair.
	Responses map[string]map[string]Outcome
	Default   Outcome
}

// Outcome is either a text or a failure kind.
type Outcome struct {
	Text string
	Fail bool
	Kind models.ErrorKind
}

// OK is a successful outcome.
func OK(text string) Outcome { return Outcome{Text: text} }

// Fail is a failed outcome of the given kind.
func Fail(kind models.ErrorKind) Outcome { return Outcome{Fail: true, Kind: kind} }

// NewScriptedBackend returns a Backend driven by s.
func NewScriptedBackend(s Script) *Backend {
	return &Backend{
		Name_: "mock-scripted",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			out := s.Default
			if byKey, ok := s.Responses[req.Model]; ok {
				if o, ok := byKey[req.APIKey]; ok {
					out = o
				}
			}
			if out.Fail {
				return "", &models.ProviderError{Kind: out.Kind, Provider: "mock-scripted", Model: req.Model, Err: errScripted(out.Kind)}
			}
			return out.Text, nil
		},
	}
}

type errScripted models.ErrorKind

func (e errScripted) Error() string { return "scripted " + models.ErrorKind(e).String() + " failure" }

// Compile-time check that Backend implements CompletionBackend.
var _ models.CompletionBackend = (*Backend)(nil)
