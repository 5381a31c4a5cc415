package board

import "github.com/amparooliver/frontend-Mastergoal/pkg/types"

type movePair struct {
	from types.Pos
	to   types.Pos
}

// LegalIndex answers legality questions for one turn. It is built from the
// server list and never patched; a refresh builds a new one. A nil index
// behaves like an empty one.
type LegalIndex struct {
	moves  []types.LegalMove
	byPair map[movePair]types.LegalMove
	byFrom map[types.Pos][]types.LegalMove
	byKind map[types.MoveType][]types.LegalMove
}

func NewLegalIndex(moves []types.LegalMove) *LegalIndex {
	ix := &LegalIndex{
		moves:  append([]types.LegalMove(nil), moves...),
		byPair: make(map[movePair]types.LegalMove, len(moves)),
		byFrom: make(map[types.Pos][]types.LegalMove),
		byKind: make(map[types.MoveType][]types.LegalMove),
	}
	for _, m := range ix.moves {
		key := movePair{from: m.From, to: m.To}
		// first entry wins if the server repeats a pair
		if _, dup := ix.byPair[key]; !dup {
			ix.byPair[key] = m
		}
		ix.byFrom[m.From] = append(ix.byFrom[m.From], m)
		ix.byKind[m.Type] = append(ix.byKind[m.Type], m)
	}
	return ix
}

func (ix *LegalIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.moves)
}

func (ix *LegalIndex) HasAnyMoveFrom(p types.Pos) bool {
	if ix == nil {
		return false
	}
	return len(ix.byFrom[p]) > 0
}

func (ix *LegalIndex) FindMove(from, to types.Pos) (types.LegalMove, bool) {
	if ix == nil {
		return types.LegalMove{}, false
	}
	m, ok := ix.byPair[movePair{from: from, to: to}]
	return m, ok
}

func (ix *LegalIndex) MovesOfKind(kind types.MoveType) []types.LegalMove {
	if ix == nil {
		return nil
	}
	return ix.byKind[kind]
}

func (ix *LegalIndex) MovesFrom(p types.Pos) []types.LegalMove {
	if ix == nil {
		return nil
	}
	return ix.byFrom[p]
}
