package board

import "github.com/amparooliver/frontend-Mastergoal/pkg/types"

// The board is drawn 11 rows by 15 columns; the server stores it transposed.
const (
	DisplayRows = 11
	DisplayCols = 15
)

// Cell is a display-grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ToServer maps a display cell onto the server grid. The mapping is an axis
// swap, so ToDisplay(ToServer(c)) == c for every cell.
func ToServer(c Cell) types.Pos {
	return types.Pos{Row: c.Col, Col: c.Row}
}

func ToDisplay(p types.Pos) Cell {
	return Cell{Row: p.Col, Col: p.Row}
}

func InDisplayBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < DisplayRows && c.Col >= 0 && c.Col < DisplayCols
}
