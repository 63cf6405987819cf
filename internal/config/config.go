package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/relie-app/relie/backend/internal/llm/gemini"
	"github.com/relie-app/relie/backend/internal/llm/groq"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderArk    = "ark"
)

// ErrNoProvider is returned when no LLM credentials are configured.
var ErrNoProvider = errors.New("no llm provider configured")

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	// RulesFile points at an optional YAML document with trigger words and topic guidance.
	RulesFile string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Session:   session,
		RulesFile: strings.TrimSpace(os.Getenv("RELAY_RULES_FILE")),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域来源。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// SessionConfig bounds the per-user history held in memory.
type SessionConfig struct {
	MaxTurns int
}

func loadSessionConfig() (SessionConfig, error) {
	maxTurns := 10
	override, err := parseOptionalIntEnv("SESSION_MAX_TURNS")
	if err != nil {
		return SessionConfig{}, err
	}
	if override != nil {
		// one exchange stores a user turn and a reply
		if *override < 2 {
			return SessionConfig{}, fmt.Errorf("invalid SESSION_MAX_TURNS value %d: must be at least 2", *override)
		}
		maxTurns = *override
	}
	return SessionConfig{MaxTurns: maxTurns}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider       string
	Model          string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	PromptStyle    string
	PersonaID      string
	Timeout        time.Duration

	GroqAPIKey  string
	GroqBaseURL string

	GeminiAPIKey  string
	GeminiBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkBaseURL   string
	ArkRegion    string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Provider != ""
}

// resolveProvider picks the provider named by AI_PROVIDER, or the first one with credentials.
func resolveProvider(requested string, c AIConfig) (string, error) {
	switch strings.ToLower(requested) {
	case ProviderGemini, ProviderGroq, ProviderArk:
		return strings.ToLower(requested), nil
	case "":
	default:
		return "", fmt.Errorf("invalid AI_PROVIDER value %q", requested)
	}

	switch {
	case c.GeminiAPIKey != "":
		return ProviderGemini, nil
	case c.GroqAPIKey != "":
		return ProviderGroq, nil
	case c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""):
		return ProviderArk, nil
	default:
		return "", nil
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)
	httpClient := &http.Client{Timeout: c.Timeout}

	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %s", c.Provider)
		}
		cm, err := gemini.NewChatModel(gemini.Config{
			APIKey:      c.GeminiAPIKey,
			BaseURL:     c.GeminiBaseURL,
			Model:       c.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   c.MaxTokens,
			HTTPClient:  httpClient,
		})
		if err != nil {
			return nil, err
		}
		return cm, nil
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for provider %s", c.Provider)
		}
		cm, err := groq.NewChatModel(groq.Config{
			APIKey:      c.GroqAPIKey,
			BaseURL:     c.GroqBaseURL,
			Model:       c.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   c.MaxTokens,
			HTTPClient:  httpClient,
		})
		if err != nil {
			return nil, err
		}
		return cm, nil
	case ProviderArk:
		if c.Model == "" || (c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "")) {
			return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
		}
		timeout := c.Timeout
		cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
			Timeout:     &timeout,
		})
		if err != nil {
			return nil, err
		}
		return cm, nil
	default:
		return nil, ErrNoProvider
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	style := strings.ToLower(getEnvOrDefault("AI_PROMPT_STYLE", "detailed"))
	if style != "basic" && style != "detailed" {
		return AIConfig{}, fmt.Errorf("invalid AI_PROMPT_STYLE value %q", style)
	}

	cfg := AIConfig{
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		PromptStyle:    style,
		PersonaID:      getEnvOrDefault("AI_PERSONA", "relie"),
		Timeout:        time.Duration(timeoutSeconds) * time.Second,

		GroqAPIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqBaseURL: getEnvOrDefault("GROQ_BASE_URL", groq.DefaultBaseURL),

		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", gemini.DefaultBaseURL),

		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}

	provider, err := resolveProvider(strings.TrimSpace(os.Getenv("AI_PROVIDER")), cfg)
	if err != nil {
		return AIConfig{}, err
	}
	cfg.Provider = provider

	cfg.Model = strings.TrimSpace(os.Getenv("AI_MODEL"))
	if cfg.Model == "" {
		switch provider {
		case ProviderGemini:
			cfg.Model = gemini.DefaultModel
		case ProviderGroq:
			cfg.Model = groq.DefaultModel
		case ProviderArk:
			cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		}
	}

	return cfg, nil
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
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

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
