package events

import (
	"encoding/json"
)

// Inbound event names delivered on the game channel.
const (
	EventInit            = "init"
	EventGameStateUpdate = "gameStateUpdate"
	EventScoreUpdated    = "scoreUpdated"
	EventBuzzed          = "buzzed"
)

// Player is one entry in the game's ordered player list.
// Fields other than id/name/score are carried through untouched in Extra.
type Player struct {
	ID    string
	Name  string
	Score int

	Extra map[string]json.RawMessage
}

// GameState is the server-authoritative game aggregate. The sync core only
// interprets the player list and the timer; every other field is opaque and
// round-trips unchanged through Extra.
type GameState struct {
	Players []Player
	Timer   int

	Extra map[string]json.RawMessage
}

// InitPayload is the payload for an init event.
type InitPayload struct {
	GameState *GameState      `json:"gameState"`
	Questions json.RawMessage `json:"questions"`
}

// ScoreUpdatedPayload is the payload for a scoreUpdated event.
type ScoreUpdatedPayload struct {
	PlayerID string `json:"playerId"`
	NewScore int    `json:"newScore"`
}

// WithScore returns a new GameState where the identified player's score is
// replaced and everything else is shared or copied unchanged. The second
// return value reports whether the player exists; when false the receiver is
// returned as-is and no copy is made.
func (g *GameState) WithScore(playerID string, newScore int) (*GameState, bool) {
	idx := -1
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, false
	}

	players := make([]Player, len(g.Players))
	copy(players, g.Players)
	players[idx].Score = newScore

	return &GameState{
		Players: players,
		Timer:   g.Timer,
		Extra:   g.Extra,
	}, true
}

func (p *Player) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &p.ID); err != nil {
			return err
		}
		delete(fields, "id")
	}
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &p.Name); err != nil {
			return err
		}
		delete(fields, "name")
	}
	if raw, ok := fields["score"]; ok {
		if err := json.Unmarshal(raw, &p.Score); err != nil {
			return err
		}
		delete(fields, "score")
	}
	if len(fields) > 0 {
		p.Extra = fields
	}
	return nil
}

func (p Player) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(p.Extra)+3)
	for k, v := range p.Extra {
		fields[k] = v
	}
	var err error
	if fields["id"], err = json.Marshal(p.ID); err != nil {
		return nil, err
	}
	if fields["name"], err = json.Marshal(p.Name); err != nil {
		return nil, err
	}
	if fields["score"], err = json.Marshal(p.Score); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (g *GameState) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["players"]; ok {
		if err := json.Unmarshal(raw, &g.Players); err != nil {
			return err
		}
		delete(fields, "players")
	}
	if raw, ok := fields["timer"]; ok {
		if err := json.Unmarshal(raw, &g.Timer); err != nil {
			return err
		}
		delete(fields, "timer")
	}
	if len(fields) > 0 {
		g.Extra = fields
	}
	return nil
}

func (g GameState) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(g.Extra)+2)
	for k, v := range g.Extra {
		fields[k] = v
	}
	var err error
	if fields["players"], err = json.Marshal(g.Players); err != nil {
		return nil, err
	}
	if fields["timer"], err = json.Marshal(g.Timer); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
