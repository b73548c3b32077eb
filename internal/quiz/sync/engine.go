package sync

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/quizwire/quizsync/internal/quiz/audio"
	"github.com/quizwire/quizsync/internal/quiz/channel"
	"github.com/quizwire/quizsync/internal/quiz/events"
	"github.com/quizwire/quizsync/internal/quiz/state"
)

var jsonNull = []byte("null")

// Engine translates named inbound events into store mutations and audio
// signals. It is the only writer of the store; all handlers run sequentially
// on the channel's dispatch goroutine.
type Engine struct {
	ch    channel.Channel
	store *state.Store
	cues  *audio.Controller
}

// NewEngine wires the engine to its channel, store, and audio controller.
func NewEngine(ch channel.Channel, store *state.Store, cues *audio.Controller) *Engine {
	return &Engine{ch: ch, store: store, cues: cues}
}

// Subscribe registers handlers for the four game events. It is called exactly
// once per session, at start.
func (e *Engine) Subscribe() {
	e.ch.On(events.EventInit, e.handleInit)
	e.ch.On(events.EventGameStateUpdate, e.handleGameStateUpdate)
	e.ch.On(events.EventScoreUpdated, e.handleScoreUpdated)
	e.ch.On(events.EventBuzzed, e.handleBuzzed)
}

// Unsubscribe deregisters all four handlers. It is unconditional and does not
// depend on what any handler did; after it returns no handler fires again.
func (e *Engine) Unsubscribe() {
	e.ch.Off(events.EventInit)
	e.ch.Off(events.EventGameStateUpdate)
	e.ch.Off(events.EventScoreUpdated)
	e.ch.Off(events.EventBuzzed)
}

// handleInit installs the initialization snapshot. Both the game state and
// the question set are required; anything missing or malformed fails the
// session terminally without populating the store. A repeated init replaces
// the state wholesale, as a fresh snapshot.
func (e *Engine) handleInit(payload json.RawMessage) {
	var p events.InitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		e.fail(fmt.Sprintf("malformed init payload: %v", err))
		return
	}
	if p.GameState == nil {
		e.fail("init payload missing gameState")
		return
	}
	if len(p.Questions) == 0 || bytes.Equal(p.Questions, jsonNull) {
		e.fail("init payload missing questions")
		return
	}

	e.store.SetInitial(p.GameState, p.Questions)
	e.cues.ObserveTimer(p.GameState.Timer)
	log.Info().Int("players", len(p.GameState.Players)).Msg("session initialized")
}

// handleGameStateUpdate replaces the whole game state. The server always
// sends complete snapshots on this event, so no merging happens; a snapshot
// arriving before init is simply adopted as the state.
func (e *Engine) handleGameStateUpdate(payload json.RawMessage) {
	var gs events.GameState
	if err := json.Unmarshal(payload, &gs); err != nil {
		log.Warn().Err(err).Msg("dropping malformed game state update")
		return
	}

	e.store.Replace(&gs)
	e.cues.ObserveTimer(gs.Timer)
}

// handleScoreUpdated patches a single player's score. An unknown player, or a
// patch arriving before any state exists, is silently ignored: a benign race
// between patch delivery and full-state ordering, not an error.
func (e *Engine) handleScoreUpdated(payload json.RawMessage) {
	var p events.ScoreUpdatedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("dropping malformed score update")
		return
	}

	e.store.PatchScore(p.PlayerID, p.NewScore)
}

// handleBuzzed has no state effect; it only fires the buzzer cue.
func (e *Engine) handleBuzzed(json.RawMessage) {
	e.cues.Buzz()
}

// fail marks the session Failed, but only while it is still Loading: Ready
// and Failed are terminal phases, so a bad init arriving later is dropped
// like any other malformed post-init event.
func (e *Engine) fail(msg string) {
	if e.store.Snapshot().Phase != state.PhaseLoading {
		log.Warn().Str("reason", msg).Msg("dropping bad init after initialization")
		return
	}
	e.store.Fail(msg)
	log.Error().Str("reason", msg).Msg("session initialization failed")
}
