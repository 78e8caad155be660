// Package gemini is a completion backend for the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/kiranshivaraju/recruitai/pkg/models"
	"google.golang.org/genai"
)

// Client implements models.CompletionBackend. One genai client is kept per API
// key because the key is bound at genai client construction.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewClient creates a Gemini backend. baseURL is optional and mainly used by tests.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSpace(baseURL),
		httpClient: httpClient,
		clients:    make(map[string]*genai.Client),
	}
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gc, ok := c.clients[apiKey]; ok {
		return gc, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.clients[apiKey] = gc
	return gc, nil
}

// Complete maps the chat exchange onto a system instruction plus user content.
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", &models.ProviderError{Kind: models.KindAuth, Provider: c.Name(), Model: req.Model, Err: errors.New("gemini api key is required")}
	}
	gc, err := c.clientFor(ctx, req.APIKey)
	if err != nil {
		return "", &models.ProviderError{Kind: models.KindOther, Provider: c.Name(), Model: req.Model, Err: err}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	var user []string
	for _, m := range req.Messages {
		if m.Role == models.RoleSystem {
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
			continue
		}
		user = append(user, m.Content)
	}

	resp, err := gc.Models.GenerateContent(ctx, req.Model, genai.Text(strings.Join(user, "\n\n")), cfg)
	if err != nil {
		return "", c.classify(ctx, req.Model, err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", &models.ProviderError{Kind: models.KindOther, Provider: c.Name(), Model: req.Model, Err: errors.New("gemini api returned empty response")}
	}
	return output, nil
}

func (c *Client) classify(ctx context.Context, model string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	pe := &models.ProviderError{Provider: c.Name(), Model: model, Err: err}
	var apiErr genai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Kind = models.KindTimeout
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
		pe.Kind = kindForAPIError(apiErr)
	default:
		pe.Kind = models.ClassifyMessage(err.Error())
	}
	return pe
}

func kindForAPIError(e genai.APIError) models.ErrorKind {
	switch {
	case e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED":
		return models.KindRateLimit
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden,
		e.Status == "UNAUTHENTICATED", e.Status == "PERMISSION_DENIED":
		return models.KindAuth
	case e.Code == http.StatusNotFound || e.Status == "NOT_FOUND":
		return models.KindModelUnavailable
	case e.Code == http.StatusGatewayTimeout || e.Status == "DEADLINE_EXCEEDED":
		return models.KindTimeout
	case e.Code >= 500:
		return models.KindOther
	default:
		return models.ClassifyMessage(e.Message)
	}
}

var _ models.CompletionBackend = (*Client)(nil)
