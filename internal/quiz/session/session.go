package session

import (
	"encoding/json"
	"fmt"
	gosync "sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quizwire/quizsync/internal/quiz/audio"
	"github.com/quizwire/quizsync/internal/quiz/channel"
	"github.com/quizwire/quizsync/internal/quiz/events"
	"github.com/quizwire/quizsync/internal/quiz/state"
	"github.com/quizwire/quizsync/internal/quiz/sync"
)

// Session owns one connected game: the state store, the reconciliation
// engine, and the audio controller, scoped from Start to Close. The read
// accessors are the only surface the rendering layer sees.
type Session struct {
	id       string
	ch       channel.Channel
	provider audio.Provider
	audioCfg audio.Config

	store  *state.Store
	cues   *audio.Controller
	engine *sync.Engine

	mu     gosync.Mutex
	active bool
	failed bool
	closed bool
}

// New prepares a session on the given channel. Nothing is subscribed and no
// audio resource exists until Start.
func New(ch channel.Channel, provider audio.Provider, audioCfg audio.Config) *Session {
	return &Session{
		id:       uuid.New().String()[:8], // short ID for logging
		ch:       ch,
		provider: provider,
		audioCfg: audioCfg,
		store:    state.NewStore(),
	}
}

// Start acquires both cue resources and registers the event handlers. A
// failure here marks the session Failed and leaves nothing registered, so
// Close never has dangling work from a failed start.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active || s.closed {
		return fmt.Errorf("session %s: already started", s.id)
	}

	cues, err := audio.NewController(s.provider, s.audioCfg)
	if err != nil {
		s.store.Fail(fmt.Sprintf("session setup failed: %v", err))
		s.failed = true
		return fmt.Errorf("session %s: %w", s.id, err)
	}
	s.cues = cues

	s.engine = sync.NewEngine(s.ch, s.store, s.cues)
	s.engine.Subscribe()
	s.active = true

	log.Info().Str("session", s.id).Msg("session started")
	return nil
}

// Close tears the session down: every event handler is deregistered first,
// then the audio resources are released, so no handler can ever fire on a
// released cue. A second Close is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.active {
		s.engine.Unsubscribe()
		s.active = false
	}

	var err error
	if s.cues != nil {
		err = s.cues.Close()
	}

	log.Info().Str("session", s.id).Msg("session closed")
	return err
}

// Phase returns the current session phase.
func (s *Session) Phase() state.Phase {
	return s.snapshot().Phase
}

// Err returns the initialization failure message, empty unless the phase is
// Failed.
func (s *Session) Err() string {
	return s.snapshot().Err
}

// GameState returns the last-known authoritative game state, nil before a
// successful init.
func (s *Session) GameState() *events.GameState {
	return s.snapshot().Game
}

// Questions returns the question set received at initialization.
func (s *Session) Questions() json.RawMessage {
	return s.snapshot().Questions
}

// Unlock runs the one-shot audio unlock handshake. Call it from a user
// gesture; it may be retried until it succeeds.
func (s *Session) Unlock() {
	s.mustBeActive()
	s.cues.Unlock()
}

// AudioUnlocked reports whether the unlock handshake has succeeded.
func (s *Session) AudioUnlocked() bool {
	s.mustBeActive()
	return s.cues.Unlocked()
}

// snapshot guards every read accessor: using the facade outside an active
// session is a usage contract violation, not a runtime condition. A session
// whose Start failed stays readable so the rendering layer can surface the
// terminal Failed phase and its message.
func (s *Session) snapshot() *state.Snapshot {
	s.mu.Lock()
	readable := s.active || s.failed
	s.mu.Unlock()
	if !readable {
		panic("session: accessed outside an active session")
	}
	return s.store.Snapshot()
}

func (s *Session) mustBeActive() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		panic("session: accessed outside an active session")
	}
}
