// Package gemini talks to Google's Gemini generateContent endpoint and exposes it as an eino chat model.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"

	roleUser  = "user"
	roleModel = "model"

	maxResponseBytes = 4 << 20
)

// Config describes how to reach the Gemini API.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	HTTPClient  *http.Client
}

// ChatModel implements model.BaseChatModel for Gemini.
type ChatModel struct {
	cfg    Config
	client *http.Client
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel validates cfg and fills defaults.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &ChatModel{cfg: cfg, client: client}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// Generate performs one generateContent round trip.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
	}, opts...)

	modelName := m.cfg.Model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	payload := buildRequest(input)
	if options.Temperature != nil || options.TopP != nil || options.MaxTokens != nil || len(options.Stop) > 0 {
		payload.GenerationConfig = &generationConfig{
			Temperature:     options.Temperature,
			TopP:            options.TopP,
			MaxOutputTokens: options.MaxTokens,
			StopSequences:   options.Stop,
		}
	}
	if len(payload.Contents) == 0 {
		return nil, errors.New("gemini: no user or model turns to send")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(m.cfg.BaseURL, "/"), url.PathEscape(modelName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, msg)
	}

	return parseResponse(raw)
}

// Stream wraps Generate; the reply arrives as a single chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// buildRequest folds system messages into systemInstruction and merges
// consecutive turns of the same role into one content entry.
func buildRequest(input []*schema.Message) generateRequest {
	var req generateRequest
	var system []part

	for _, msg := range input {
		if msg == nil || msg.Content == "" {
			continue
		}

		if msg.Role == schema.System {
			system = append(system, part{Text: msg.Content})
			continue
		}

		role := roleUser
		if msg.Role == schema.Assistant {
			role = roleModel
		}

		if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == role {
			req.Contents[n-1].Parts = append(req.Contents[n-1].Parts, part{Text: msg.Content})
			continue
		}
		req.Contents = append(req.Contents, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}

	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: system}
	}
	return req
}

func parseResponse(raw []byte) (*schema.Message, error) {
	result := gjson.ParseBytes(raw)

	candidate := result.Get("candidates.0")
	if !candidate.Exists() {
		if reason := result.Get("promptFeedback.blockReason").String(); reason != "" {
			return nil, fmt.Errorf("gemini: prompt blocked: %s", reason)
		}
		return nil, errors.New("gemini: empty candidates in response")
	}

	var text strings.Builder
	for _, p := range candidate.Get("content.parts.#.text").Array() {
		text.WriteString(p.String())
	}

	finish := candidate.Get("finishReason").String()
	if text.Len() == 0 && finish != "" && finish != "STOP" {
		return nil, fmt.Errorf("gemini: no text returned, finish reason %s", finish)
	}

	usage := result.Get("usageMetadata")
	return &schema.Message{
		Role:    schema.Assistant,
		Content: text.String(),
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: finish,
			Usage: &schema.TokenUsage{
				PromptTokens:     int(usage.Get("promptTokenCount").Int()),
				CompletionTokens: int(usage.Get("candidatesTokenCount").Int()),
				TotalTokens:      int(usage.Get("totalTokenCount").Int()),
			},
		},
	}, nil
}
