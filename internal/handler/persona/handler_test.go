package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/relie-app/relie/backend/internal/model/persona"
)

func TestActivePersona(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed()), "relie").RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/persona", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got persona.Persona
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.Name != "Relie" || got.OpeningLine == "" {
		t.Fatalf("unexpected persona: %+v", got)
	}
}

func TestListPersonas(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed()), "relie").RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var got []persona.Persona
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one persona, got %d", len(got))
	}
}
