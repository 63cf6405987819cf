package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/relie-app/relie/backend/internal/analysis/safety"
	"github.com/relie-app/relie/backend/internal/analysis/topic"
	"github.com/relie-app/relie/backend/internal/model/chat"
	"github.com/relie-app/relie/backend/internal/service/session"
)

// Canned replies returned without an LLM answer.
const (
	DefaultSafetyReply   = "I'm sensing something serious. Please talk to a professional or call a helpline."
	DefaultLimitReply    = "That’s all for now. I’m here if you need to talk again later."
	DefaultFallbackReply = "⚠️ I couldn't connect to the support assistant right now. Please try again later."
)

// ErrEmptyMessage rejects blank input.
var ErrEmptyMessage = errors.New("message is required")

// Responder is the slice of the AI service the relay depends on.
type Responder interface {
	GenerateResponse(ctx context.Context, userID string, history []chat.Turn, guidance []string, userMessage string) (*schema.Message, error)
	StreamResponse(ctx context.Context, userID string, history []chat.Turn, guidance []string, userMessage string) (*schema.StreamReader[*schema.Message], error)
	StreamingEnabled() bool
}

// Delta is one piece of a streamed reply. Reset tells the client to drop
// the text received so far; the deltas that follow replace it.
type Delta struct {
	Content string
	Reset   bool
}

// Replies overrides the canned texts; empty fields keep the defaults.
type Replies struct {
	Safety   string
	Limit    string
	Fallback string
}

// Service relays user messages to the LLM with safety triage and a bounded history.
type Service struct {
	store    *session.Store
	detector *safety.Detector
	guide    *topic.Guide
	ai       Responder
	replies  Replies
}

// NewService wires the relay. ai may be nil, in which case every message
// that passes triage gets the fallback reply.
func NewService(store *session.Store, detector *safety.Detector, guide *topic.Guide, ai Responder, replies Replies) *Service {
	if replies.Safety == "" {
		replies.Safety = DefaultSafetyReply
	}
	if replies.Limit == "" {
		replies.Limit = DefaultLimitReply
	}
	if replies.Fallback == "" {
		replies.Fallback = DefaultFallbackReply
	}

	return &Service{
		store:    store,
		detector: detector,
		guide:    guide,
		ai:       ai,
		replies:  replies,
	}
}

// Store exposes the session memory for transcript routes.
func (s *Service) Store() *session.Store {
	return s.store
}

// exchange carries the state of one relayed message between steps.
type exchange struct {
	userID   string
	message  string
	prior    []chat.Turn
	guidance []string
	reply    *chat.Reply
}

// begin runs validation, triage and the history check. When it returns an
// exchange with reply set, the provider must not be called.
func (s *Service) begin(userID, message string) (*exchange, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}

	ex := &exchange{userID: userID, message: message}

	if match, ok := s.detector.Detect(message); ok {
		log.Printf("[chat] safety trigger %q for user=%s", match.Trigger, userID)
		ex.reply = &chat.Reply{
			UserID:  userID,
			Content: s.replies.Safety,
			Kind:    chat.KindSafety,
			Turns:   len(s.store.History(userID)),
		}
		return ex, nil
	}

	prior, err := s.store.Begin(userID, message)
	if errors.Is(err, session.ErrLimitReached) {
		ex.reply = &chat.Reply{
			UserID:  userID,
			Content: s.replies.Limit,
			Kind:    chat.KindLimit,
			Turns:   s.store.MaxTurns(),
		}
		return ex, nil
	}
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	ex.prior = prior
	ex.guidance = s.guide.Lookup(message)
	return ex, nil
}

// finish stores the assistant turn and builds the reply.
func (s *Service) finish(ex *exchange, content string, kind chat.ReplyKind) chat.Reply {
	turns := s.store.Append(ex.userID, chat.Turn{Role: chat.RoleAssistant, Content: content})
	return chat.Reply{
		UserID:  ex.userID,
		Content: content,
		Kind:    kind,
		Turns:   turns,
	}
}

// Respond relays one message and returns the reply.
func (s *Service) Respond(ctx context.Context, userID, message string) (chat.Reply, error) {
	ex, err := s.begin(userID, message)
	if err != nil {
		return chat.Reply{}, err
	}
	if ex.reply != nil {
		return *ex.reply, nil
	}

	if s.ai == nil {
		log.Printf("[chat] no ai provider configured, fallback for user=%s", ex.userID)
		return s.finish(ex, s.replies.Fallback, chat.KindFallback), nil
	}

	response, err := s.ai.GenerateResponse(ctx, ex.userID, ex.prior, ex.guidance, ex.message)
	if err != nil || response == nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[chat] provider error for user=%s: %v", ex.userID, providerErr(err, response))
		return s.finish(ex, s.replies.Fallback, chat.KindFallback), nil
	}

	return s.finish(ex, response.Content, chat.KindReply), nil
}

// RespondStream relays one message, passing reply text to onDelta as it
// arrives. Canned replies are delivered as a single delta.
func (s *Service) RespondStream(ctx context.Context, userID, message string, onDelta func(Delta)) (chat.Reply, error) {
	ex, err := s.begin(userID, message)
	if err != nil {
		return chat.Reply{}, err
	}
	if ex.reply != nil {
		onDelta(Delta{Content: ex.reply.Content})
		return *ex.reply, nil
	}

	if s.ai == nil {
		onDelta(Delta{Content: s.replies.Fallback})
		return s.finish(ex, s.replies.Fallback, chat.KindFallback), nil
	}

	if !s.ai.StreamingEnabled() {
		response, err := s.ai.GenerateResponse(ctx, ex.userID, ex.prior, ex.guidance, ex.message)
		if err != nil || response == nil || strings.TrimSpace(response.Content) == "" {
			log.Printf("[chat] provider error for user=%s: %v", ex.userID, providerErr(err, response))
			onDelta(Delta{Content: s.replies.Fallback})
			return s.finish(ex, s.replies.Fallback, chat.KindFallback), nil
		}
		onDelta(Delta{Content: response.Content})
		return s.finish(ex, response.Content, chat.KindReply), nil
	}

	content, sent, err := s.drain(ctx, ex, onDelta)
	if err != nil {
		log.Printf("[chat] provider stream error for user=%s after %d bytes: %v", ex.userID, len(content), err)
		if sent {
			onDelta(Delta{Reset: true})
		}
		onDelta(Delta{Content: s.replies.Fallback})
		return s.finish(ex, s.replies.Fallback, chat.KindFallback), nil
	}
	return s.finish(ex, content, chat.KindReply), nil
}

// drain forwards stream chunks to onDelta and reports whether any text
// reached the client before the stream ended.
func (s *Service) drain(ctx context.Context, ex *exchange, onDelta func(Delta)) (string, bool, error) {
	stream, err := s.ai.StreamResponse(ctx, ex.userID, ex.prior, ex.guidance, ex.message)
	if err != nil {
		return "", false, err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return b.String(), b.Len() > 0, recvErr
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		b.WriteString(chunk.Content)
		onDelta(Delta{Content: chunk.Content})
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", b.Len() > 0, errors.New("empty streamed reply")
	}
	return b.String(), true, nil
}

func providerErr(err error, response *schema.Message) error {
	if err != nil {
		return err
	}
	if response == nil {
		return errors.New("nil response")
	}
	return errors.New("empty response content")
}
