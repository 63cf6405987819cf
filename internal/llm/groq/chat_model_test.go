package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Auth string
	Body struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Stream      bool    `json:"stream"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
}

func newServer(t *testing.T, captured *capturedRequest, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		captured.Auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Body))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateSendsOpenAIShape(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, &captured, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"llama3-8b-8192",
			"choices":[{"index":0,"message":{"role":"assistant","content":"I'm here for you."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":5,"total_tokens":17}}`)
	})

	cm, err := NewChatModel(Config{APIKey: "secret", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	msg, err := cm.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are Relie."),
		schema.UserMessage("hello"),
		schema.AssistantMessage("hi there", nil),
		schema.UserMessage("I feel low"),
	})
	require.NoError(t, err)

	require.Equal(t, "I'm here for you.", msg.Content)
	require.Equal(t, schema.Assistant, msg.Role)
	require.Equal(t, "stop", msg.ResponseMeta.FinishReason)
	require.Equal(t, 17, msg.ResponseMeta.Usage.TotalTokens)

	require.Equal(t, "Bearer secret", captured.Auth)
	require.Equal(t, DefaultModel, captured.Body.Model)
	require.Len(t, captured.Body.Messages, 4)
	require.Equal(t, "system", captured.Body.Messages[0].Role)
	require.Equal(t, "assistant", captured.Body.Messages[2].Role)
	require.Equal(t, "I feel low", captured.Body.Messages[3].Content)
}

func TestGenerateAppliesOptions(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, &captured, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	})

	cm, err := NewChatModel(Config{APIKey: "secret", BaseURL: srv.URL + "/v1", Model: "mixtral-8x7b-32768"})
	require.NoError(t, err)

	_, err = cm.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, model.WithTemperature(0.4))
	require.NoError(t, err)
	require.Equal(t, "mixtral-8x7b-32768", captured.Body.Model)
	require.InDelta(t, 0.4, captured.Body.Temperature, 0.0001)
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, &captured, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`)
	})

	cm, err := NewChatModel(Config{APIKey: "bad", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = cm.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid API Key")
}

func TestGenerateEmptyChoices(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, &captured, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	})

	cm, err := NewChatModel(Config{APIKey: "secret", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = cm.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.ErrorContains(t, err, "empty choices")
}

func TestStreamRelaysDeltas(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, &captured, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Take ", "a deep ", "breath."} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	})

	cm, err := NewChatModel(Config{APIKey: "secret", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	sr, err := cm.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer sr.Close()

	var chunks []*schema.Message
	for {
		chunk, recvErr := sr.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		require.NoError(t, recvErr)
		chunks = append(chunks, chunk)
	}

	require.True(t, captured.Body.Stream)
	full, err := schema.ConcatMessages(chunks)
	require.NoError(t, err)
	require.Equal(t, "Take a deep breath.", full.Content)
}

func TestNewChatModelRequiresKey(t *testing.T) {
	_, err := NewChatModel(Config{})
	require.Error(t, err)
}
