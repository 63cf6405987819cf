package stream

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	chatHandler "github.com/relie-app/relie/backend/internal/handler/chat"
	"github.com/relie-app/relie/backend/internal/model/chat"
	chatService "github.com/relie-app/relie/backend/internal/service/chat"
	"github.com/relie-app/relie/backend/pkg/utils"
)

// Handler streams relayed replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// Event is one SSE payload.
type Event struct {
	Event    string         `json:"event"`
	UserID   string         `json:"user_id,omitempty"`
	Content  string         `json:"content,omitempty"`
	Kind     chat.ReplyKind `json:"kind,omitempty"`
	Turns    int            `json:"turns,omitempty"`
	Finished bool           `json:"finished,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RegisterRoutes 注册流式聊天路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var payload chatHandler.Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, chatService.ErrEmptyMessage.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// the id is announced on start, so mint it before the relay does
	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		userID = uuid.NewString()
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEChunk(w, flusher, Event{Event: "start", UserID: userID})

	reply, err := h.chatSvc.RespondStream(r.Context(), userID, payload.Message, func(delta chatService.Delta) {
		if delta.Reset {
			// partial text already sent is superseded by the deltas that follow
			utils.SendSSEChunk(w, flusher, Event{Event: "reset", UserID: userID})
			return
		}
		utils.SendSSEChunk(w, flusher, Event{Event: "delta", Content: delta.Content})
	})
	if err != nil {
		if !errors.Is(err, chatService.ErrEmptyMessage) {
			log.Printf("[stream] relay failed: %v", err)
		}
		utils.SendSSEChunk(w, flusher, Event{Event: "error", Error: err.Error()})
		return
	}

	utils.SendSSEChunk(w, flusher, Event{
		Event:   "message",
		UserID:  reply.UserID,
		Content: reply.Content,
		Kind:    reply.Kind,
		Turns:   reply.Turns,
	})
	utils.SendSSEChunk(w, flusher, Event{Event: "end", UserID: reply.UserID, Finished: true})

	log.Printf("[stream] completed reply for user=%s kind=%s", reply.UserID, reply.Kind)
}
