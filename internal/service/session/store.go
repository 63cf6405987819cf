package session

import (
	"errors"
	"sync"
	"time"

	"github.com/relie-app/relie/backend/internal/model/chat"
)

// DefaultMaxTurns caps the stored history per user.
const DefaultMaxTurns = 10

// ErrLimitReached is returned by Begin once a user's history is full.
var ErrLimitReached = errors.New("session turn limit reached")

// Stats summarises what the store holds.
type Stats struct {
	Users int `json:"users"`
	Turns int `json:"turns"`
}

// Store keeps per-user conversation history in process memory.
// Keys are never evicted; each history is capped at MaxTurns entries,
// counting the replies still owed to exchanges in flight.
type Store struct {
	mu       sync.RWMutex
	maxTurns int
	history  map[string][]chat.Turn
	pending  map[string]int
	now      func() time.Time
}

// NewStore bootstraps an empty store. maxTurns < 1 uses DefaultMaxTurns.
func NewStore(maxTurns int) *Store {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		maxTurns: maxTurns,
		history:  make(map[string][]chat.Turn),
		pending:  make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MaxTurns reports the per-user cap.
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

// Begin appends the user's message and reserves a slot for the reply,
// failing with ErrLimitReached when both no longer fit under the cap.
// It returns the turns recorded before the new one.
func (s *Store) Begin(userID, content string) ([]chat.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.history[userID]
	if len(turns)+s.pending[userID]+2 > s.maxTurns {
		return nil, ErrLimitReached
	}

	prior := make([]chat.Turn, len(turns))
	copy(prior, turns)

	s.history[userID] = append(turns, chat.Turn{
		Role:      chat.RoleUser,
		Content:   content,
		CreatedAt: s.now(),
	})
	s.pending[userID]++
	return prior, nil
}

// Append records an assistant turn into the slot reserved by Begin and
// returns the history length. Without an open exchange, as after a Reset
// mid-flight, or when the cap is already met, the turn is dropped.
func (s *Store) Append(userID string, turn chat.Turn) int {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.history[userID]
	n := s.pending[userID]
	if n == 0 {
		return len(turns)
	}
	if n == 1 {
		delete(s.pending, userID)
	} else {
		s.pending[userID] = n - 1
	}

	if len(turns) >= s.maxTurns {
		return len(turns)
	}
	s.history[userID] = append(turns, turn)
	return len(s.history[userID])
}

// History returns a copy of the stored turns; unknown users get an empty slice.
func (s *Store) History(userID string) []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.history[userID]
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied
}

// Reset drops a user's history and reports whether it existed.
func (s *Store) Reset(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.history[userID]; !ok {
		return false
	}
	delete(s.history, userID)
	delete(s.pending, userID)
	return true
}

// Stats counts users and turns currently held.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Users: len(s.history)}
	for _, turns := range s.history {
		stats.Turns += len(turns)
	}
	return stats
}
