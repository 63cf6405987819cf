package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "AI_PROVIDER", "AI_MODEL", "AI_TEMPERATURE", "AI_TOP_P",
		"AI_MAX_TOKENS", "AI_STREAM", "AI_PROMPT_STYLE", "AI_TIMEOUT_SECONDS", "AI_PERSONA",
		"GROQ_API_KEY", "GROQ_BASE_URL", "GEMINI_API_KEY", "GEMINI_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "ARK_BASE_URL", "ARK_REGION",
		"SESSION_MAX_TURNS", "RELAY_RULES_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":5000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Session.MaxTurns != 10 {
		t.Fatalf("expected 10 turns, got %d", cfg.Session.MaxTurns)
	}
	if cfg.AI.Enabled() {
		t.Fatalf("expected no provider, got %s", cfg.AI.Provider)
	}
	if cfg.AI.PromptStyle != "detailed" {
		t.Fatalf("unexpected prompt style: %s", cfg.AI.PromptStyle)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AI.Timeout)
	}
}

func TestLoadPrefersGeminiWhenUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Provider != ProviderGemini {
		t.Fatalf("expected gemini, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected model: %s", cfg.AI.Model)
	}
}

func TestLoadExplicitProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "Groq")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("AI_MODEL", "mixtral-8x7b-32768")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Provider != ProviderGroq {
		t.Fatalf("expected groq, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Model != "mixtral-8x7b-32768" {
		t.Fatalf("unexpected model: %s", cfg.AI.Model)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"provider":    {"AI_PROVIDER", "openai"},
		"temperature": {"AI_TEMPERATURE", "warm"},
		"max turns":   {"SESSION_MAX_TURNS", "0"},
		"single turn": {"SESSION_MAX_TURNS", "1"},
		"port":        {"PORT", "50 00"},
		"style":       {"AI_PROMPT_STYLE", "poetic"},
		"stream":      {"AI_STREAM", "sometimes"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", kv[0], kv[1])
			}
		})
	}
}

func TestLoadServerOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://relie.app ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://relie.app" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestNewChatModelWithoutProvider(t *testing.T) {
	_, err := AIConfig{}.NewChatModel(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestNewChatModelGroq(t *testing.T) {
	cm, err := AIConfig{Provider: ProviderGroq, GroqAPIKey: "key", Model: "llama3-8b-8192"}.NewChatModel(context.Background())
	if err != nil {
		t.Fatalf("NewChatModel err: %v", err)
	}
	if cm == nil {
		t.Fatal("expected chat model")
	}
}

func TestNewChatModelMissingKey(t *testing.T) {
	if _, err := (AIConfig{Provider: ProviderGemini}).NewChatModel(context.Background()); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := []byte(`
trigger_words:
  - suicide
  - "  end it all  "
  - ""
topics:
  - keyword: exam
    guidance: Encourage a realistic study plan.
replies:
  limit: Take a break and come back later.
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules err: %v", err)
	}
	if len(rules.TriggerWords) != 2 || rules.TriggerWords[1] != "end it all" {
		t.Fatalf("unexpected trigger words: %q", rules.TriggerWords)
	}
	if len(rules.Topics) != 1 || rules.Topics[0].Keyword != "exam" {
		t.Fatalf("unexpected topics: %+v", rules.Topics)
	}
	if rules.Replies.Limit != "Take a break and come back later." || rules.Replies.Safety != "" {
		t.Fatalf("unexpected replies: %+v", rules.Replies)
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules err: %v", err)
	}
	if len(rules.TriggerWords) != 0 || len(rules.Topics) != 0 {
		t.Fatalf("expected empty rules, got %+v", rules)
	}
}

func TestParseRulesRejectsTopicWithoutGuidance(t *testing.T) {
	if _, err := ParseRules([]byte("topics:\n  - keyword: sleep\n")); err == nil {
		t.Fatal("expected error for topic without guidance")
	}
}
