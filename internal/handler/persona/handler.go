package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relie-app/relie/backend/internal/model/persona"
	"github.com/relie-app/relie/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas  persona.Store
	defaultID string
}

// New 创建persona处理器
func New(personas persona.Store, defaultID string) *Handler {
	return &Handler{
		personas:  personas,
		defaultID: defaultID,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/persona", h.handleActivePersona)
}

// handleListPersonas 列出所有persona
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

// handleActivePersona returns the persona the relay answers as, including its opening line.
func (h *Handler) handleActivePersona(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Resolve(h.defaultID))
}
