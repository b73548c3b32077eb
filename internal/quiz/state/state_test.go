package state

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/quizsync/internal/quiz/events"
)

func testGame() *events.GameState {
	return &events.GameState{
		Players: []events.Player{
			{ID: "p1", Name: "Ada", Score: 3},
			{ID: "p2", Name: "Grace", Score: 5},
		},
		Timer: 20,
	}
}

func TestStoreStartsLoading(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()

	assert.Equal(t, PhaseLoading, snap.Phase)
	assert.Nil(t, snap.Game)
	assert.Nil(t, snap.Questions)
}

func TestSetInitialMovesToReady(t *testing.T) {
	s := NewStore()
	questions := json.RawMessage(`[{"text":"Q1"}]`)

	s.SetInitial(testGame(), questions)

	snap := s.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Equal(t, questions, snap.Questions)
	require.NotNil(t, snap.Game)
	assert.Len(t, snap.Game.Players, 2)
}

func TestFailIsTerminalWithMessage(t *testing.T) {
	s := NewStore()
	s.Fail("init payload missing questions")

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, "init payload missing questions", snap.Err)
	assert.Nil(t, snap.Game)
}

func TestReplaceDiscardsPriorState(t *testing.T) {
	s := NewStore()
	s.SetInitial(testGame(), json.RawMessage(`[]`))

	next := &events.GameState{
		Players: []events.Player{{ID: "p3", Name: "Alan", Score: 0}},
		Timer:   0,
	}
	s.Replace(next)

	snap := s.Snapshot()
	assert.Empty(t, cmp.Diff(next, snap.Game))
	assert.Equal(t, PhaseReady, snap.Phase, "replace keeps the phase")
}

func TestPatchScoreOnlyTouchesOnePlayer(t *testing.T) {
	s := NewStore()
	s.SetInitial(testGame(), json.RawMessage(`[]`))
	before := s.Snapshot()

	s.PatchScore("p2", 9)

	after := s.Snapshot()
	require.NotSame(t, before, after)
	assert.Equal(t, 9, after.Game.Players[1].Score)
	assert.Equal(t, before.Game.Players[0], after.Game.Players[0])
	assert.Equal(t, before.Game.Timer, after.Game.Timer)

	// The prior snapshot is untouched by the patch.
	assert.Equal(t, 5, before.Game.Players[1].Score)
}

func TestPatchScoreUnknownPlayerIsNoop(t *testing.T) {
	s := NewStore()
	s.SetInitial(testGame(), json.RawMessage(`[]`))
	before := s.Snapshot()

	s.PatchScore("ghost", 100)

	assert.Same(t, before, s.Snapshot())
}

func TestPatchScoreBeforeInitIsNoop(t *testing.T) {
	s := NewStore()
	before := s.Snapshot()

	s.PatchScore("p1", 1)

	assert.Same(t, before, s.Snapshot())
}
