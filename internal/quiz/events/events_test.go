package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStatePreservesUnknownFields(t *testing.T) {
	raw := []byte(`{
		"players": [{"id": "p1", "name": "Ada", "score": 3, "avatar": "owl.png"}],
		"timer": 15,
		"currentQuestion": {"text": "Capital of Peru?"},
		"round": 2
	}`)

	var gs GameState
	require.NoError(t, json.Unmarshal(raw, &gs))

	assert.Equal(t, 15, gs.Timer)
	require.Len(t, gs.Players, 1)
	assert.Equal(t, "p1", gs.Players[0].ID)
	assert.JSONEq(t, `"owl.png"`, string(gs.Players[0].Extra["avatar"]))

	out, err := json.Marshal(gs)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out), "fields the core does not interpret must round-trip unchanged")
}

func TestWithScoreCopiesPlayers(t *testing.T) {
	gs := &GameState{
		Players: []Player{
			{ID: "p1", Score: 1},
			{ID: "p2", Score: 2},
		},
		Timer: 8,
	}

	next, ok := gs.WithScore("p1", 7)
	require.True(t, ok)
	assert.Equal(t, 7, next.Players[0].Score)
	assert.Equal(t, 1, gs.Players[0].Score, "original state is never mutated")
	assert.Equal(t, gs.Timer, next.Timer)
}

func TestWithScoreUnknownPlayer(t *testing.T) {
	gs := &GameState{Players: []Player{{ID: "p1", Score: 1}}}

	next, ok := gs.WithScore("nobody", 99)
	assert.False(t, ok)
	assert.Same(t, gs, next)
}
