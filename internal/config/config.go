package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/algomentor/dsa-tutor/backend/internal/service/llm"
)

// Supported model providers.
const (
	ProviderArk       = "ark"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Generation defaults used by the tutor unless overridden.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.8
	DefaultTopK        = 40
	DefaultMaxTokens   = 4096
)

// Config aggregates all service settings.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Telemetry TelemetryConfig
	CORS      CORSConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Telemetry: loadTelemetryConfig(),
		CORS:      loadCORSConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the language model provider.
type AIConfig struct {
	Provider       string
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    float64
	TopP           float64
	TopK           int
	MaxTokens      int
	StreamResponse bool
}

// Enabled reports whether the provider credential and model are configured.
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderArk {
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
	return c.APIKey != ""
}

// NewChatModel builds the provider client described by the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", c.Provider)
	}

	switch c.Provider {
	case ProviderArk:
		temperature := float32(c.Temperature)
		topP := float32(c.TopP)
		maxTokens := c.MaxTokens
		// One provider call per turn.
		retryTimes := 0
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			TopP:        &topP,
			RetryTimes:  &retryTimes,
		})
	case ProviderOpenAI:
		return llm.NewOpenAIChatModel(c.llmOptions())
	case ProviderAnthropic:
		return llm.NewAnthropicChatModel(c.llmOptions())
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", c.Provider)
	}
}

func (c AIConfig) llmOptions() llm.Options {
	return llm.Options{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		TopP:        c.TopP,
		TopK:        c.TopK,
		MaxTokens:   c.MaxTokens,
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderArk))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderAnthropic:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature, err := parseFloatEnv("LLM_TEMPERATURE", DefaultTemperature)
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseFloatEnv("LLM_TOP_P", DefaultTopP)
	if err != nil {
		return AIConfig{}, err
	}

	topK, err := parseIntEnv("LLM_TOP_K", DefaultTopK)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseIntEnv("LLM_MAX_TOKENS", DefaultMaxTokens)
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens < 1 {
		return AIConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value %d: must be positive", maxTokens)
	}

	stream, err := parseBoolEnv("LLM_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(providerKeyEnv(provider)))
	}

	return AIConfig{
		Provider:       provider,
		APIKey:         apiKey,
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          getEnvOrDefault("LLM_MODEL", defaultModel(provider)),
		BaseURL:        getEnvOrDefault("LLM_BASE_URL", defaultBaseURL(provider)),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		TopK:           topK,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

func providerKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "ARK_API_KEY"
	}
}

// defaultModel is empty for ark: endpoints are account specific.
func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	default:
		return ""
	}
}

func defaultBaseURL(provider string) string {
	if provider == ProviderArk {
		return "https://ark.cn-beijing.volces.com/api/v3"
	}
	return ""
}

// TelemetryConfig describes the OTLP trace exporter.
type TelemetryConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether an OTLP endpoint is configured.
func (c TelemetryConfig) Enabled() bool {
	return c.Endpoint != ""
}

func loadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Endpoint:       strings.TrimSuffix(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")), "/"),
		Headers:        strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		ServiceName:    getEnvOrDefault("OTEL_SERVICE_NAME", "dsa-tutor"),
		ServiceVersion: getEnvOrDefault("SERVICE_VERSION", "dev"),
	}
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
