package board

import (
	"errors"

	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// Reasons a click changed nothing. None of these are failures; callers log
// them and move on.
var ErrOutOfBounds = errors.New("cell outside the board")
var ErrNoState = errors.New("no game state yet")
var ErrGameOver = errors.New("game is over")
var ErrSubmissionInFlight = errors.New("move submission in flight")
var ErrNotYourTurn = errors.New("not your turn")
var ErrNoLegalMoves = errors.New("piece has no legal moves")
var ErrNoKickMoves = errors.New("no kick moves for the ball")
var ErrNothingSelectable = errors.New("nothing selectable on cell")
var ErrIllegalDestination = errors.New("illegal destination")

type SelectionKind string

const (
	SelectNone  SelectionKind = "none"
	SelectPiece SelectionKind = "piece"
	SelectBall  SelectionKind = "ball"
)

// Selection is the local, throwaway pick. Cell is in display coordinates and
// only meaningful when Kind is not SelectNone.
type Selection struct {
	Kind SelectionKind `json:"kind"`
	Cell Cell          `json:"cell"`
}

var NoSelection = Selection{Kind: SelectNone}

func (s Selection) Empty() bool {
	return s.Kind == "" || s.Kind == SelectNone
}

// ClickContext is everything a click is judged against.
type ClickContext struct {
	State    *types.GameState
	Index    *LegalIndex
	Acting   types.Team // "" while the local user has to wait
	Busy     bool
	GameOver bool
}

// Click applies one cell click to the current selection. When the returned
// move is non-nil the caller must submit it; the returned selection is then
// already cleared.
func Click(sel Selection, ctx ClickContext, at Cell) (Selection, *types.LegalMove, error) {
	if !InDisplayBounds(at) {
		return sel, nil, ErrOutOfBounds
	}
	if ctx.GameOver {
		return NoSelection, nil, ErrGameOver
	}
	if ctx.Busy {
		return sel, nil, ErrSubmissionInFlight
	}
	if ctx.State == nil {
		return NoSelection, nil, ErrNoState
	}
	if ctx.Acting == "" || ctx.Acting != ctx.State.CurrentTeam {
		return NoSelection, nil, ErrNotYourTurn
	}

	if !sel.Empty() {
		if sel.Cell == at {
			return NoSelection, nil, nil
		}
		move, ok := ctx.Index.FindMove(ToServer(sel.Cell), ToServer(at))
		if !ok {
			return sel, nil, ErrIllegalDestination
		}
		return NoSelection, &move, nil
	}

	pos := ToServer(at)

	// A friendly piece wins over the ball when both resolve to the same cell.
	pieceBlocked := false
	if pl, ok := ctx.State.PlayerAt(pos); ok && pl.Team == ctx.Acting {
		if ctx.Index.HasAnyMoveFrom(pos) {
			return Selection{Kind: SelectPiece, Cell: at}, nil, nil
		}
		pieceBlocked = true
	}

	if ctx.State.BallPosition == pos {
		if len(ctx.Index.MovesOfKind(types.MoveKick)) > 0 {
			return Selection{Kind: SelectBall, Cell: at}, nil, nil
		}
		if !pieceBlocked {
			return NoSelection, nil, ErrNoKickMoves
		}
	}

	if pieceBlocked {
		return NoSelection, nil, ErrNoLegalMoves
	}
	return NoSelection, nil, ErrNothingSelectable
}

// MovableCells lists the acting side's pieces that have at least one legal
// move, in display coordinates.
func MovableCells(state *types.GameState, ix *LegalIndex, acting types.Team) []Cell {
	if state == nil || acting == "" {
		return nil
	}
	var out []Cell
	for _, pl := range state.Players {
		if pl.Team == acting && ix.HasAnyMoveFrom(pl.Pos) {
			out = append(out, ToDisplay(pl.Pos))
		}
	}
	return out
}

// Destinations lists where the current selection may go.
func Destinations(sel Selection, ix *LegalIndex) []Cell {
	if sel.Empty() {
		return nil
	}
	moves := ix.MovesFrom(ToServer(sel.Cell))
	out := make([]Cell, 0, len(moves))
	for _, m := range moves {
		out = append(out, ToDisplay(m.To))
	}
	return out
}
