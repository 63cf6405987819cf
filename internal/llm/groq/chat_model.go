// Package groq adapts Groq's OpenAI-compatible chat completions API to the eino chat model interface.
package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"
)

// Config describes how to reach the Groq API.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	HTTPClient  *http.Client
}

// ChatModel implements model.BaseChatModel on top of go-openai.
type ChatModel struct {
	client *openai.Client
	cfg    Config
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel validates cfg and builds a client.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &ChatModel{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

// Generate sends the conversation and returns the first choice.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(input, opts...)

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("groq: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("groq: empty choices in response")
	}

	choice := resp.Choices[0]
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream relays delta chunks as they arrive.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(input, opts...)

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("groq: open stream: %w", err)
	}

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[groq] stream panic: %v", r)
				sw.Send(nil, fmt.Errorf("groq: stream panic: %v", r))
			}
			stream.Close()
			sw.Close()
		}()

		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				sw.Send(nil, fmt.Errorf("groq: stream recv: %w", recvErr))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			msg := &schema.Message{Role: schema.Assistant, Content: choice.Delta.Content}
			if choice.FinishReason != "" {
				msg.ResponseMeta = &schema.ResponseMeta{FinishReason: string(choice.FinishReason)}
			}
			if closed := sw.Send(msg, nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts ...model.Option) openai.ChatCompletionRequest {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.cfg.Model,
		Messages: toAPIMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	return req
}

func toAPIMessages(msgs []*schema.Message) []openai.ChatCompletionMessage {
	res := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		res = append(res, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return res
}
