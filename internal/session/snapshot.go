package session

import (
	"github.com/amparooliver/frontend-Mastergoal/internal/board"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// Snapshot is what subscribers receive after every change. State is shared,
// not copied: the session replaces it wholesale and never edits it.
type Snapshot struct {
	Version      int                 `json:"version"`
	Ready        bool                `json:"ready"`
	Config       types.SessionConfig `json:"config"`
	State        *types.GameState    `json:"state,omitempty"`
	Selection    board.Selection     `json:"selection"`
	Movable      []board.Cell        `json:"movable,omitempty"`
	Destinations []board.Cell        `json:"destinations,omitempty"`
	TimerEnabled bool                `json:"timer_enabled"`
	Remaining    int                 `json:"remaining"`
	Submitting   bool                `json:"submitting"`
	AIThinking   bool                `json:"ai_thinking"`
	GameOver     bool                `json:"game_over"`
	Winner       string              `json:"winner,omitempty"`
	Notice       string              `json:"notice,omitempty"`
}

type View struct {
	Snapshot
	NumClients int `json:"num_clients"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Version:      s.version,
		Ready:        s.ready,
		Config:       s.cfg,
		State:        s.state,
		Selection:    s.sel,
		TimerEnabled: s.turn.Enabled(),
		Remaining:    s.turn.Remaining(),
		Submitting:   s.submitting,
		AIThinking:   s.aiInFlight,
		GameOver:     s.gameOver,
		Winner:       s.winner,
		Notice:       s.notice,
	}
	if s.sel.Empty() {
		snap.Movable = board.MovableCells(s.state, s.index, s.acting())
	} else {
		snap.Destinations = board.Destinations(s.sel, s.index)
	}
	return snap
}
