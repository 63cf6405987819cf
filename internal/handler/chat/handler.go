package chat

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/relie-app/relie/backend/internal/model/chat"
	chatService "github.com/relie-app/relie/backend/internal/service/chat"
	"github.com/relie-app/relie/backend/pkg/utils"
)

// Request is the body accepted by the chat endpoints.
type Request struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Get("/sessions/{userID}", h.handleGetSession)
	r.Delete("/sessions/{userID}", h.handleResetSession)
}

// HandleChat relays one message and answers with {response, user_id, kind, turns}.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatSvc.Respond(r.Context(), payload.UserID, payload.Message)
	if err != nil {
		if errors.Is(err, chatService.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[chat] relay failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleGetSession 返回用户的会话历史
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userID is required")
		return
	}

	store := h.chatSvc.Store()
	utils.RespondJSON(w, http.StatusOK, chat.Transcript{
		UserID: userID,
		Turns:  store.History(userID),
		Limit:  store.MaxTurns(),
	})
}

// handleResetSession 清空用户的会话历史
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if !h.chatSvc.Store().Reset(userID) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
