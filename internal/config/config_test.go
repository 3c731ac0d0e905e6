package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LLM_PROVIDER", "LLM_API_KEY", "ARK_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"ARK_ACCESS_KEY", "ARK_SECRET_KEY", "LLM_MODEL", "LLM_BASE_URL", "LLM_TEMPERATURE",
		"LLM_TOP_P", "LLM_TOP_K", "LLM_MAX_TOKENS", "LLM_STREAM", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, DefaultTemperature, cfg.AI.Temperature)
	assert.Equal(t, DefaultTopP, cfg.AI.TopP)
	assert.Equal(t, DefaultTopK, cfg.AI.TopK)
	assert.Equal(t, DefaultMaxTokens, cfg.AI.MaxTokens)
	assert.True(t, cfg.AI.StreamResponse)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.Telemetry.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadProviderKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadGenericKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "generic")
	t.Setenv("ANTHROPIC_API_KEY", "specific")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.AI.APIKey)
}

func TestArkRequiresModel(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk, APIKey: "key"}
	assert.False(t, cfg.Enabled())

	cfg.Model = "ep-123"
	assert.True(t, cfg.Enabled())

	cfg = AIConfig{Provider: ProviderArk, Model: "ep-123", AccessKey: "ak", SecretKey: "sk"}
	assert.True(t, cfg.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"LLM_PROVIDER":    "gemini",
		"LLM_TEMPERATURE": "warm",
		"LLM_TOP_K":       "many",
		"LLM_MAX_TOKENS":  "0",
		"LLM_STREAM":      "sometimes",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadServerAddrVerbatim(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := AIConfig{Provider: ProviderOpenAI}.NewChatModel(context.Background())
	assert.Error(t, err)
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://tutor.example.com ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://tutor.example.com"}, cfg.CORS.AllowedOrigins)
}
