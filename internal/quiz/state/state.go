package state

import (
	"encoding/json"
	"sync"

	"github.com/quizwire/quizsync/internal/quiz/events"
)

// Phase is the session lifecycle phase.
type Phase string

const (
	PhaseLoading Phase = "LOADING"
	PhaseReady   Phase = "READY"
	PhaseFailed  Phase = "FAILED"
)

// Snapshot is one immutable view of the session. Mutations never touch a
// published snapshot; the store swaps in a freshly built value instead, so a
// reader holding an older reference keeps seeing a consistent state.
type Snapshot struct {
	Phase     Phase
	Err       string
	Game      *events.GameState
	Questions json.RawMessage
}

// Store holds the last-known authoritative snapshot. It is the single
// mutation point; only the reconciliation engine writes to it.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore returns a store in the Loading phase with no game state.
func NewStore() *Store {
	return &Store{snap: &Snapshot{Phase: PhaseLoading}}
}

// Snapshot returns the current snapshot. The returned value must be treated
// as read-only; it is shared with every other reader holding the same
// reference.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetInitial installs the initialization payload and moves the session to
// Ready. A repeated call fully replaces the previous state.
func (s *Store) SetInitial(game *events.GameState, questions json.RawMessage) {
	s.swap(&Snapshot{
		Phase:     PhaseReady,
		Game:      game,
		Questions: questions,
	})
}

// Fail moves the session to the terminal Failed phase with a human-readable
// message. Game state and questions stay unset.
func (s *Store) Fail(msg string) {
	s.swap(&Snapshot{
		Phase: PhaseFailed,
		Err:   msg,
	})
}

// Replace swaps in a complete new game state. No field-level merging happens;
// the previous state is discarded wholesale.
func (s *Store) Replace(game *events.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snap
	s.snap = &Snapshot{
		Phase:     prev.Phase,
		Err:       prev.Err,
		Game:      game,
		Questions: prev.Questions,
	}
}

// PatchScore replaces a single player's score, copying the player list so the
// prior snapshot stays intact. Patching an unknown player, or patching before
// any game state exists, is a no-op.
func (s *Store) PatchScore(playerID string, newScore int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snap
	if prev.Game == nil {
		return
	}
	game, ok := prev.Game.WithScore(playerID, newScore)
	if !ok {
		return
	}
	s.snap = &Snapshot{
		Phase:     prev.Phase,
		Err:       prev.Err,
		Game:      game,
		Questions: prev.Questions,
	}
}

func (s *Store) swap(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}
