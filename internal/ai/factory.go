package ai

import (
	"fmt"
	"os"

	"github.com/kiranshivaraju/recruitai/internal/ai/gemini"
	"github.com/kiranshivaraju/recruitai/internal/ai/openai"
	"github.com/kiranshivaraju/recruitai/internal/config"
	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// NewBackend constructs the completion backend named by cfg.Provider.
// Called once at startup.
func NewBackend(cfg config.AIConfig) (models.CompletionBackend, error) {
	switch cfg.Provider {
	case "groq":
		return openai.NewClient("groq", orDefault(cfg.BaseURL, openai.GroqBaseURL), nil), nil
	case "openai":
		return openai.NewClient("openai", orDefault(cfg.BaseURL, openai.OpenAIBaseURL), nil), nil
	case "gemini":
		return gemini.NewClient(cfg.BaseURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of groq, openai, gemini", cfg.Provider)
	}
}

// NewKeySource reads numbered keys from the keys file and falls back to the
// process environment.
func NewKeySource(cfg config.AIConfig) keys.Source {
	chain := keys.ChainSource{}
	if cfg.KeysFile != "" {
		chain = append(chain, keys.FileSource{Path: cfg.KeysFile, Prefix: cfg.KeyPrefix})
	}
	return append(chain, keys.EnvSource{Prefix: cfg.KeyPrefix, Lookup: os.LookupEnv})
}

// GatewayConfigFrom maps the AI section of the process config onto a GatewayConfig.
func GatewayConfigFrom(cfg config.AIConfig) GatewayConfig {
	return GatewayConfig{
		Models:         cfg.Models,
		Timeout:        cfg.RequestTimeout,
		RetryDelay:     cfg.RetryDelay,
		BackoffBase:    cfg.BackoffBase,
		MaxRetries:     cfg.MaxRetries,
		ReloadEachCall: cfg.ReloadEachCall,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
