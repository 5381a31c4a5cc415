package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/amparooliver/frontend-Mastergoal/internal/board"
	"github.com/amparooliver/frontend-Mastergoal/internal/session"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

// Render writes a plain text board in display coordinates followed by the
// status lines.
//
//	L/R  field players    l/r  goalkeepers    o  ball    +  legal destination
//	[x]  selection        (x)  piece with a legal move
func Render(w io.Writer, snap session.Snapshot) {
	if snap.State == nil {
		fmt.Fprintln(w, "waiting for the game server...")
		if snap.Notice != "" {
			fmt.Fprintln(w, snap.Notice)
		}
		return
	}

	glyphs := make(map[board.Cell]byte)
	glyphs[board.ToDisplay(snap.State.BallPosition)] = 'o'
	for _, pl := range snap.State.Players {
		glyphs[board.ToDisplay(pl.Pos)] = playerGlyph(pl)
	}
	dest := cellSet(snap.Destinations)
	movable := cellSet(snap.Movable)

	var b strings.Builder
	b.WriteString("   ")
	for col := 0; col < board.DisplayCols; col++ {
		fmt.Fprintf(&b, "%3d", col)
	}
	b.WriteByte('\n')
	for row := 0; row < board.DisplayRows; row++ {
		fmt.Fprintf(&b, "%2d ", row)
		for col := 0; col < board.DisplayCols; col++ {
			cell := board.Cell{Row: row, Col: col}
			g, ok := glyphs[cell]
			if !ok {
				g = '.'
				if dest[cell] {
					g = '+'
				}
			}
			switch {
			case !snap.Selection.Empty() && snap.Selection.Cell == cell:
				fmt.Fprintf(&b, "[%c]", g)
			case movable[cell]:
				fmt.Fprintf(&b, "(%c)", g)
			default:
				fmt.Fprintf(&b, " %c ", g)
			}
		}
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())

	st := snap.State
	fmt.Fprintf(w, "score  LEFT %d - %d RIGHT\n", st.LeftGoals, st.RightGoals)
	fmt.Fprintf(w, "turn   %s%s\n", st.CurrentTeam, turnNote(snap))
	if snap.TimerEnabled && !snap.GameOver {
		fmt.Fprintf(w, "clock  %ds\n", snap.Remaining)
	}
	if snap.Notice != "" {
		fmt.Fprintln(w, snap.Notice)
	}
}

func turnNote(snap session.Snapshot) string {
	switch {
	case snap.GameOver:
		return " (game over)"
	case snap.AIThinking:
		return " (opponent thinking)"
	case snap.Submitting:
		return " (sending move)"
	case snap.Config.IsAITeam(snap.State.CurrentTeam):
		return " (waiting for opponent)"
	}
	return ""
}

func playerGlyph(pl types.Player) byte {
	switch {
	case pl.Team == types.TeamLeft && pl.IsGoalkeeper:
		return 'l'
	case pl.Team == types.TeamLeft:
		return 'L'
	case pl.IsGoalkeeper:
		return 'r'
	default:
		return 'R'
	}
}

func cellSet(cells []board.Cell) map[board.Cell]bool {
	m := make(map[board.Cell]bool, len(cells))
	for _, c := range cells {
		m[c] = true
	}
	return m
}
