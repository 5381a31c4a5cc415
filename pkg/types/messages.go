package types

// Rule server protocol. Coordinates are always [row, col] in server space.
//
// POST /start_game   StartGameRequest -> StateEnvelope
// GET  /state        -> GameState
// GET  /legal_moves  -> []LegalMove
// POST /move         MoveRequest -> MoveResponse
// POST /restart      -> StateEnvelope
// POST /ai_move      -> MoveResponse (ai_turn unused)
// GET  /             wake-up ping, any 2xx means online

// ErrorCodeTimerExpired marks a move rejected because the turn clock lapsed.
const ErrorCodeTimerExpired = "timer_expired"

type StartGameRequest struct {
	Level         int   `json:"level"`
	Mode          Mode  `json:"mode"`
	NumTurns      *int  `json:"num_turns,omitempty"`
	PlayWithTimer *bool `json:"playWithTimer,omitempty"`
	TimerDuration *int  `json:"timerDuration,omitempty"`
}

type StateEnvelope struct {
	State GameState `json:"state"`
}

type MoveRequest struct {
	Type MoveType `json:"type"`
	From Pos      `json:"from"`
	To   Pos      `json:"to"`
}

type MoveResponse struct {
	Success  bool       `json:"success"`
	State    *GameState `json:"state,omitempty"`
	Error    string     `json:"error,omitempty"`
	Code     string     `json:"code,omitempty"`
	AITurn   bool       `json:"ai_turn,omitempty"`
	GameOver bool       `json:"game_over,omitempty"`
	Winner   *Team      `json:"winner,omitempty"` // nil on a draw
}
