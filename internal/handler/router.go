package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/relie-app/relie/backend/internal/handler/chat"
	"github.com/relie-app/relie/backend/internal/handler/persona"
	"github.com/relie-app/relie/backend/internal/handler/stream"
	personaModel "github.com/relie-app/relie/backend/internal/model/persona"
	chatService "github.com/relie-app/relie/backend/internal/service/chat"
	"github.com/relie-app/relie/backend/pkg/utils"
)

// Options carries the settings the router needs beyond its services.
type Options struct {
	AllowedOrigins []string
	PersonaID      string
	// Provider names the LLM vendor, empty when none is configured.
	Provider string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(opts Options, personas personaModel.Store, chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	personaHandler := persona.New(personas, opts.PersonaID)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(chatSvc)

	// Path used by the original web client.
	r.Post("/chat", chatHandler.HandleChat)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			status := "ok"
			if opts.Provider == "" {
				status = "degraded"
			}
			stats := chatSvc.Store().Stats()
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   status,
				"provider": opts.Provider,
				"users":    stats.Users,
				"turns":    stats.Turns,
			})
		})
	})

	return r
}
