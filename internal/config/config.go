package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the RecruitAI server and CLI.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Batch    BatchConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL disables caching and rate limiting.
type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider       string
	BaseURL        string
	Models         []string
	KeyPrefix      string
	KeysFile       string
	RequestTimeout time.Duration
	RetryDelay     time.Duration
	BackoffBase    time.Duration
	MaxRetries     int
	KeyCooldown    time.Duration
	ReloadEachCall bool
	CacheTTL       time.Duration
}

type BatchConfig struct {
	MaxItems         int
	MinimumScore     float64
	MaxMissingSkills int
	EventPace        time.Duration
	Deadline         time.Duration
	MinEmailLength   int
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

// DefaultModels is the fallback order tried by the completion gateway.
var DefaultModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"openai/gpt-oss-120b",
	"openai/gpt-oss-20b",
	"meta-llama/llama-guard-4-12b",
}

var validProviders = map[string]bool{
	"groq":   true,
	"openai": true,
	"gemini": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("PORT", 8080),
			Env:                envString("RECRUITAI_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             envString("DATABASE_URL", "sqlite://recruitai.db"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:       envString("AI_PROVIDER", "groq"),
			BaseURL:        os.Getenv("AI_BASE_URL"),
			Models:         envList("AI_MODELS", DefaultModels),
			KeyPrefix:      envString("AI_KEY_PREFIX", "GROQ_API_KEY"),
			KeysFile:       envString("AI_KEYS_FILE", ".env"),
			RequestTimeout: envDuration("AI_REQUEST_TIMEOUT", 10*time.Second),
			RetryDelay:     envDuration("AI_RETRY_DELAY", time.Second),
			BackoffBase:    envDuration("AI_BACKOFF_BASE", time.Second),
			MaxRetries:     envInt("AI_MAX_RETRIES", 3),
			KeyCooldown:    envDuration("AI_KEY_COOLDOWN", time.Hour),
			ReloadEachCall: envBool("AI_RELOAD_KEYS_EACH_CALL", true),
			CacheTTL:       envDuration("AI_CACHE_TTL", 24*time.Hour),
		},
		Batch: BatchConfig{
			MaxItems:         envInt("BATCH_MAX_ITEMS", 10),
			MinimumScore:     envFloat("BATCH_MIN_SCORE", 70),
			MaxMissingSkills: envInt("BATCH_MAX_MISSING_SKILLS", 3),
			EventPace:        envDuration("BATCH_EVENT_PACE", 100*time.Millisecond),
			Deadline:         envDuration("BATCH_DEADLINE", 10*time.Minute),
			MinEmailLength:   envInt("MIN_EMAIL_LENGTH", 50),
		},
		Log: LogConfig{
			JSON:  envBool("LOG_JSON", true),
			Debug: envBool("LOG_DEBUG", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseDriver reports which store backend the database URL selects.
func (c *Config) DatabaseDriver() string {
	switch {
	case strings.HasPrefix(c.Database.URL, "postgres://"), strings.HasPrefix(c.Database.URL, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(c.Database.URL, "sqlite://"):
		return "sqlite"
	default:
		return ""
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseDriver() == "" {
		return fmt.Errorf("DATABASE_URL must start with postgres://, postgresql:// or sqlite://, got %q", c.Database.URL)
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of groq, openai, gemini; got %q", c.AI.Provider)
	}
	if c.AI.BaseURL != "" && !strings.HasPrefix(c.AI.BaseURL, "http://") && !strings.HasPrefix(c.AI.BaseURL, "https://") {
		return fmt.Errorf("AI_BASE_URL must start with http:// or https://, got %q", c.AI.BaseURL)
	}
	if len(c.AI.Models) == 0 {
		return fmt.Errorf("AI_MODELS must list at least one model")
	}
	if c.AI.KeyPrefix == "" {
		return fmt.Errorf("AI_KEY_PREFIX is required")
	}
	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("AI_MAX_RETRIES must be at least 1, got %d", c.AI.MaxRetries)
	}
	if c.AI.RequestTimeout <= 0 {
		return fmt.Errorf("AI_REQUEST_TIMEOUT must be positive")
	}

	if c.Batch.MaxItems < 1 {
		return fmt.Errorf("BATCH_MAX_ITEMS must be at least 1, got %d", c.Batch.MaxItems)
	}
	if c.Batch.MinimumScore < 0 || c.Batch.MinimumScore > 100 {
		return fmt.Errorf("BATCH_MIN_SCORE must be between 0 and 100, got %v", c.Batch.MinimumScore)
	}
	if c.Batch.MaxMissingSkills < 0 {
		return fmt.Errorf("BATCH_MAX_MISSING_SKILLS must not be negative, got %d", c.Batch.MaxMissingSkills)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// envList splits a comma-separated variable, dropping blank entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
