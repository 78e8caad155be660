// Package openai is a completion backend for OpenAI-compatible chat APIs
// such as Groq and OpenAI itself.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/recruitai/pkg/models"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"

	maxErrorBody = 4096
)

// Client implements models.CompletionBackend. The API key travels with each
// request so one client serves the whole credential pool.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. Per-attempt deadlines come from the caller's
// context, so httpClient should not carry its own timeout.
func NewClient(name, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Name() string { return c.name }

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message models.Message `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.transportError(ctx, req.Model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", c.statusError(req.Model, resp.StatusCode, raw)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &models.ProviderError{Kind: models.KindOther, Provider: c.name, Model: req.Model, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &models.ProviderError{Kind: models.KindOther, Provider: c.name, Model: req.Model, Err: errors.New("empty completion")}
	}
	return out.Choices[0].Message.Content, nil
}

// transportError keeps parent cancellation visible to the caller and maps
// deadline and network timeouts onto KindTimeout.
func (c *Client) transportError(ctx context.Context, model string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	kind := models.KindOther
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = models.KindTimeout
	}
	return &models.ProviderError{Kind: kind, Provider: c.name, Model: model, Err: fmt.Errorf("executing request: %w", err)}
}

func (c *Client) statusError(model string, status int, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	var body apiErrorBody
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}
	code, _ := body.Error.Code.(string)

	var kind models.ErrorKind
	switch {
	case status == http.StatusTooManyRequests:
		kind = models.KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = models.KindAuth
	case status == http.StatusNotFound, code == "model_not_found", code == "model_decommissioned":
		kind = models.KindModelUnavailable
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = models.KindTimeout
	case status >= 500:
		kind = models.KindOther
	default:
		kind = models.ClassifyMessage(msg)
	}
	return &models.ProviderError{Kind: kind, Provider: c.name, Model: model, StatusCode: status, Err: errors.New(msg)}
}

var _ models.CompletionBackend = (*Client)(nil)
