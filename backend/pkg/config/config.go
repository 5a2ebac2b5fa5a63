package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "cose-ai/backend/pkg/errors"
)

// Retrieval strategies
const (
	StrategyEpisode = "episode"
	StrategyLiteral = "literal"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Language model. An empty OpenAIAPIKey puts the gateway in demo mode.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ModelID       string
	MaxTokens     int

	// Retrieval
	RetrievalStrategy string
	ContextLimit      int

	// Timeouts for the two external calls
	LLMTimeout   time.Duration
	StoreTimeout time.Duration

	// HTTP
	CORSOrigins []string

	// Persona
	AssistantName        string
	AssistantDomain      string
	AssistantDomainShort string
	AssistantPurpose     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8000"),
		Env:                  getEnv("ENV", "development"),
		Neo4jURI:             getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:        getEnv("NEO4J_DATABASE", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		ModelID:              getEnv("MODEL_ID", "gpt-4"),
		MaxTokens:            getEnvInt("MAX_TOKENS", 1024),
		RetrievalStrategy:    strings.ToLower(getEnv("RETRIEVAL_STRATEGY", StrategyEpisode)),
		ContextLimit:         getEnvInt("CONTEXT_LIMIT", 5),
		LLMTimeout:           getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		StoreTimeout:         getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		CORSOrigins:          getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:3003"}),
		AssistantName:        getEnv("ASSISTANT_NAME", "COSE AI"),
		AssistantDomain:      getEnv("ASSISTANT_DOMAIN", "Revenue Cycle Management (RCM)"),
		AssistantDomainShort: getEnv("ASSISTANT_DOMAIN_SHORT", "RCM"),
		AssistantPurpose:     getEnv("ASSISTANT_PURPOSE", "You help healthcare providers optimize their revenue cycles through AI-powered solutions."),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.ModelID == "" {
		return apperrors.NewConfigMissingRequired("MODEL_ID")
	}
	if c.MaxTokens < 1 {
		return apperrors.NewConfigValidationFailed("MAX_TOKENS", "must be positive")
	}
	if c.ContextLimit < 0 {
		return apperrors.NewConfigValidationFailed("CONTEXT_LIMIT", "must not be negative")
	}
	if c.RetrievalStrategy != StrategyEpisode && c.RetrievalStrategy != StrategyLiteral {
		return apperrors.NewConfigValidationFailed("RETRIEVAL_STRATEGY",
			fmt.Sprintf("must be %q or %q, got %q", StrategyEpisode, StrategyLiteral, c.RetrievalStrategy))
	}
	if c.LLMTimeout <= 0 || c.StoreTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("LLM_TIMEOUT/STORE_TIMEOUT", "must be positive durations")
	}
	// OPENAI_API_KEY is optional: without it the gateway answers in demo mode
	return nil
}

// HasLLMCredential reports whether a language-model API key is configured
func (c *Config) HasLLMCredential() bool {
	return c.OpenAIAPIKey != ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
