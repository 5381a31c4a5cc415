package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Team string

const (
	TeamLeft  Team = "LEFT"
	TeamRight Team = "RIGHT"
)

// Other returns the opposing side.
func (t Team) Other() Team {
	if t == TeamLeft {
		return TeamRight
	}
	return TeamLeft
}

type MoveType string

const (
	MoveStep   MoveType = "move"
	MovePass   MoveType = "pass"
	MoveKick   MoveType = "kick"
	MoveTackle MoveType = "tackle"
)

// Pos is a [row, col] pair in server coordinates.
type Pos struct {
	Row int
	Col int
}

func (p Pos) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

func (p *Pos) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("position: want [row, col], got %d values", len(pair))
	}
	p.Row, p.Col = pair[0], pair[1]
	return nil
}

func (p Pos) String() string {
	return fmt.Sprintf("[%d,%d]", p.Row, p.Col)
}

// Player travels as a [team, id, row, col, isGoalkeeper] tuple.
type Player struct {
	Team         Team
	ID           string
	Pos          Pos
	IsGoalkeeper bool

	quotedID bool // id arrived as a JSON string
}

// MarshalJSON writes the id back the way it was received. Ids built in code
// go out as numbers when they are valid JSON numbers.
func (p Player) MarshalJSON() ([]byte, error) {
	var id any = p.ID
	if !p.quotedID && isJSONNumber(p.ID) {
		id = json.Number(p.ID)
	}
	return json.Marshal([]any{p.Team, id, p.Pos.Row, p.Pos.Col, p.IsGoalkeeper})
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if len(raw) != 5 {
		return fmt.Errorf("player: want 5 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Team); err != nil {
		return fmt.Errorf("player team: %w", err)
	}
	// ids are numeric on the current server, accept strings too
	dec := json.NewDecoder(bytes.NewReader(raw[1]))
	dec.UseNumber()
	var id any
	if err := dec.Decode(&id); err != nil {
		return fmt.Errorf("player id: %w", err)
	}
	switch v := id.(type) {
	case json.Number:
		p.ID, p.quotedID = v.String(), false
	case string:
		p.ID, p.quotedID = v, true
	default:
		return fmt.Errorf("player id: want number or string, got %s", raw[1])
	}
	if err := json.Unmarshal(raw[2], &p.Pos.Row); err != nil {
		return fmt.Errorf("player row: %w", err)
	}
	if err := json.Unmarshal(raw[3], &p.Pos.Col); err != nil {
		return fmt.Errorf("player col: %w", err)
	}
	if err := json.Unmarshal(raw[4], &p.IsGoalkeeper); err != nil {
		return fmt.Errorf("player goalkeeper: %w", err)
	}
	return nil
}

// GameState is the server's authoritative state. The client never edits it;
// every fetch or move response replaces the cached copy wholesale.
type GameState struct {
	Players       []Player `json:"players"`
	BallPosition  Pos      `json:"ball_position"`
	CurrentTeam   Team     `json:"current_team"`
	LeftGoals     int      `json:"left_goals"`
	RightGoals    int      `json:"right_goals"`
	TurnStartTime float64  `json:"turn_start_time"` // epoch seconds
	TimerDuration float64  `json:"timer_duration"`  // seconds
}

// PlayerAt returns the player standing on p, if any.
func (s GameState) PlayerAt(p Pos) (Player, bool) {
	for _, pl := range s.Players {
		if pl.Pos == p {
			return pl, true
		}
	}
	return Player{}, false
}

type LegalMove struct {
	From Pos      `json:"from"`
	To   Pos      `json:"to"`
	Type MoveType `json:"type"`
}
