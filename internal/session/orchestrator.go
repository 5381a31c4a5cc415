package session

import "github.com/amparooliver/frontend-Mastergoal/pkg/types"

// turnChanged compares the side on turn between two authoritative states.
// The first state of a game always counts as a change.
func turnChanged(prev, next *types.GameState) bool {
	if next == nil {
		return false
	}
	return prev == nil || prev.CurrentTeam != next.CurrentTeam
}

// wantsOpponentMove decides whether the orchestrator fires /ai_move now.
// armed is set when the turn passed to the AI side; the request only goes
// out once an authoritative state confirms the AI is still on turn.
func wantsOpponentMove(cfg types.SessionConfig, st *types.GameState, armed, inFlight, over bool) bool {
	if !armed || inFlight || over || st == nil {
		return false
	}
	return cfg.IsAITeam(st.CurrentTeam)
}

// winnerLabel renders the winning side, "none" for a draw.
func winnerLabel(w *types.Team) string {
	if w == nil || *w == "" {
		return "none"
	}
	return string(*w)
}

// goalsWentBack flags a score that decreased within one game.
func goalsWentBack(prev, next *types.GameState) bool {
	if prev == nil || next == nil {
		return false
	}
	return next.LeftGoals < prev.LeftGoals || next.RightGoals < prev.RightGoals
}
