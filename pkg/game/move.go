package game

import (
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/seekerror/stdlib/pkg/lang"
)

// ExtendedMove is a move with per-move annotations as found in annotated PGN or
// produced by engine analysis.
type ExtendedMove struct {
	board.Move

	// Turn is the side that made the move.
	Turn board.Color

	// UsedTime is the think time spent on the move, if known.
	UsedTime time.Duration
	// Clock is the clock reading after the move, if annotated.
	Clock lang.Optional[time.Duration]
	// Eval is the engine evaluation in centipawns, if annotated.
	Eval lang.Optional[int]
	// Mate is a forced mate distance in moves, if annotated.
	Mate lang.Optional[int]
	// Depth is the search depth behind Eval, if known.
	Depth int

	// Book marks a move played from an opening book.
	Book bool
	// Tablebase marks a move played from an endgame tablebase.
	Tablebase bool

	// Comment is the free-form annotation text, stripped of recognized tags.
	Comment string

	// Variations are alternative continuations instead of this move. Owned by
	// this move; there are no upward references.
	Variations []Variation
}

// Variation is a sequence of extended moves branching off before a move.
type Variation []ExtendedMove

// NewExtendedMove wraps a bare move for the given side.
func NewExtendedMove(m board.Move, turn board.Color) ExtendedMove {
	return ExtendedMove{Move: m, Turn: turn}
}
