package persona

// Store exposes persona retrieval for HTTP handlers and the prompt builder.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Resolve(id string) Persona
}

// MemoryStore implements Store over a fixed in-memory list.
type MemoryStore struct {
	items []Persona
	byID  map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// The first persona acts as the default for Resolve.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{
		items: append([]Persona(nil), items...),
		byID:  make(map[string]int, len(items)),
	}
	for i, item := range s.items {
		if _, dup := s.byID[item.ID]; !dup {
			s.byID[item.ID] = i
		}
	}
	return s
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Persona{}, false
	}
	return s.items[idx], true
}

// Resolve returns the persona with the given id, or the default one.
// An empty store resolves to the first seeded persona.
func (s *MemoryStore) Resolve(id string) Persona {
	if p, ok := s.FindByID(id); ok {
		return p
	}
	if len(s.items) > 0 {
		return s.items[0]
	}
	return Seed()[0]
}
