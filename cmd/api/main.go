package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/relie-app/relie/backend/internal/analysis/safety"
	"github.com/relie-app/relie/backend/internal/analysis/topic"
	"github.com/relie-app/relie/backend/internal/config"
	"github.com/relie-app/relie/backend/internal/handler"
	"github.com/relie-app/relie/backend/internal/model/persona"
	"github.com/relie-app/relie/backend/internal/service/ai"
	"github.com/relie-app/relie/backend/internal/service/chat"
	"github.com/relie-app/relie/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatalf("failed to load relay rules: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	// Initialize AI service; without it every message gets the fallback reply.
	var responder chat.Responder
	provider := ""
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, personaStore, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality")
		} else {
			responder = aiService
			provider = cfg.AI.Provider
			log.Printf("AI service initialized: provider=%s model=%s", cfg.AI.Provider, cfg.AI.Model)
		}
	} else {
		log.Println("no LLM credentials configured (GEMINI_API_KEY / GROQ_API_KEY / ARK_API_KEY), replies will use the fallback text")
	}

	topics := make([]topic.Topic, 0, len(rules.Topics))
	for _, t := range rules.Topics {
		topics = append(topics, topic.Topic{Keyword: t.Keyword, Guidance: t.Guidance})
	}

	chatService := chat.NewService(
		session.NewStore(cfg.Session.MaxTurns),
		safety.NewDetector(rules.TriggerWords),
		topic.NewGuide(topics),
		responder,
		chat.Replies{
			Safety:   rules.Replies.Safety,
			Limit:    rules.Replies.Limit,
			Fallback: rules.Replies.Fallback,
		},
	)

	router := handler.NewRouter(handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PersonaID:      cfg.AI.PersonaID,
		Provider:       provider,
	}, personaStore, chatService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Relie backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
