package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cose-ai/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "NEO4J_URI", "OPENAI_API_KEY", "RETRIEVAL_STRATEGY", "CONTEXT_LIMIT", "CORS_ORIGINS", "LLM_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, StrategyEpisode, cfg.RetrievalStrategy)
	assert.Equal(t, 5, cfg.ContextLimit)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3003"}, cfg.CORSOrigins)
	assert.False(t, cfg.HasLLMCredential())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RETRIEVAL_STRATEGY", "Literal")
	t.Setenv("CONTEXT_LIMIT", "3")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("CORS_ORIGINS", " https://app.example , ,http://localhost:3000")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StrategyLiteral, cfg.RetrievalStrategy)
	assert.Equal(t, 3, cfg.ContextLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, []string{"https://app.example", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.HasLLMCredential())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CONTEXT_LIMIT", "five")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ContextLimit)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
}

func TestLoad_UnknownStrategy(t *testing.T) {
	t.Setenv("RETRIEVAL_STRATEGY", "vector")

	_, err := Load()

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "RETRIEVAL_STRATEGY")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Neo4jURI:          "bolt://localhost:7687",
			Neo4jUser:         "neo4j",
			Neo4jPassword:     "password",
			ModelID:           "gpt-4",
			MaxTokens:         1024,
			RetrievalStrategy: StrategyEpisode,
			ContextLimit:      5,
			LLMTimeout:        time.Second,
			StoreTimeout:      time.Second,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing uri", func(c *Config) { c.Neo4jURI = "" }, "NEO4J_URI"},
		{"missing model", func(c *Config) { c.ModelID = "" }, "MODEL_ID"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "MAX_TOKENS"},
		{"negative limit", func(c *Config) { c.ContextLimit = -1 }, "CONTEXT_LIMIT"},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }, "STORE_TIMEOUT"},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MODEL_ID=gpt-4o-mini\nENV=production\n"), 0o600))
	t.Chdir(dir)

	for _, key := range []string{"MODEL_ID", "ENV"} {
		prev, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelID)
	assert.True(t, cfg.IsProduction())
}
