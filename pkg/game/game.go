// Package game contains the chess game model: moves with annotations, tags,
// results and PGN emission over a starting position.
package game

import (
	"fmt"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/board/fen"
	"github.com/seekerror/stdlib/pkg/lang"
)

const (
	repetitionLimit    = 3
	noprogressPlyLimit = 100
)

// Tags is the PGN seven-tag roster, minus Result which is typed.
type Tags struct {
	Event, Site, Date, Round, White, Black string
}

// Game represents a sequence of extended moves over a starting position, with
// result and termination metadata. Not thread-safe.
type Game struct {
	Tags  Tags
	Extra map[string]string

	// Intro is a comment preceding the first move.
	Intro string

	startFEN string
	start    *board.Position
	pos      *board.Position

	moves  []ExtendedMove
	hashes []uint64 // Polyglot hash before ply 0, then after each ply

	result Result
	detail ResultDetail
	tc     lang.Optional[TimeControl]
}

// New returns an empty game from the standard starting position.
func New() *Game {
	g, _ := NewFromFEN(fen.Initial)
	return g
}

// NewFromFEN returns an empty game from the given starting position.
func NewFromFEN(start string) (*Game, error) {
	pos, err := fen.Decode(start)
	if err != nil {
		return nil, err
	}
	return &Game{
		Extra:    map[string]string{},
		startFEN: fen.Encode(pos),
		start:    pos.Clone(),
		pos:      pos,
		hashes:   []uint64{pos.Hash()},
	}, nil
}

// StartFEN returns the starting position in FEN notation.
func (g *Game) StartFEN() string {
	return g.startFEN
}

// Position returns a copy of the position after all moves.
func (g *Game) Position() *board.Position {
	return g.pos.Clone()
}

// SideToMove returns the side to move after all moves.
func (g *Game) SideToMove() board.Color {
	return g.pos.Turn()
}

// Moves returns the move list. The caller must not mutate it.
func (g *Game) Moves() []ExtendedMove {
	return g.moves
}

// Hashes returns the Polyglot hash before the first ply and after each ply.
func (g *Game) Hashes() []uint64 {
	return g.hashes
}

// Result returns the result and its detail.
func (g *Game) Result() (Result, ResultDetail) {
	return g.result, g.detail
}

// SetResult sets the result from a PGN result token. Returns false otherwise.
func (g *Game) SetResult(str string) bool {
	r, ok := ParseResult(str)
	if !ok {
		return false
	}
	g.result = r
	return true
}

// TimeControl returns the time control, if any.
func (g *Game) TimeControl() (TimeControl, bool) {
	return g.tc.V()
}

// Add validates the move against the legal moves of the current position. On
// success it applies the move, records the new hash and evaluates terminal
// conditions in order: checkmate, stalemate, fifty-move rule, threefold
// repetition, insufficient material. Returns false for an illegal move, leaving
// the game unchanged.
func (g *Game) Add(m ExtendedMove) bool {
	var found bool
	for _, legal := range g.pos.LegalMoves() {
		if legal.Equals(m.Move) {
			m.Move = legal
			found = true
			break
		}
	}
	if !found {
		return false
	}

	mover := g.pos.Turn()
	m.Turn = mover
	g.pos.Make(&m.Move)
	g.moves = append(g.moves, m)
	g.hashes = append(g.hashes, g.pos.Hash())

	switch {
	case g.pos.IsMate():
		g.result, g.detail = Win(mover), Checkmate
	case g.pos.IsStalemate():
		g.result, g.detail = Draw, Stalemate
	case g.pos.Halfmoves() >= noprogressPlyLimit:
		g.result, g.detail = Draw, FiftyMoveRule
	case g.isRepetition():
		g.result, g.detail = Draw, ThreefoldRepetition
	case g.pos.HasInsufficientMaterial():
		g.result, g.detail = Draw, InsufficientMaterial
	}

	return true
}

// AmendLastMove applies fn to the most recent move. Returns false on an empty
// move list.
func (g *Game) AmendLastMove(fn func(*ExtendedMove)) bool {
	if len(g.moves) == 0 {
		return false
	}
	fn(&g.moves[len(g.moves)-1])
	return true
}

// UndoLastMove pops and reverses the last move, restoring the prior hash and
// clearing the result. Returns false on an empty move list.
func (g *Game) UndoLastMove() bool {
	if len(g.moves) == 0 {
		return false
	}

	last := g.moves[len(g.moves)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.hashes = g.hashes[:len(g.hashes)-1]
	g.pos.Unmake(last.Move, g.hashes[len(g.hashes)-1])

	g.result, g.detail = Undecided, NoDetail
	return true
}

// AddVariation attaches a variation to the move at the given fullmove and side.
// The variation replaces that move, so it starts from the position before it.
func (g *Game) AddVariation(moves Variation, fullmove int, turn board.Color) bool {
	idx, ok := g.plyIndex(fullmove, turn)
	if !ok {
		return false
	}
	g.moves[idx].Variations = append(g.moves[idx].Variations, moves)
	return true
}

// MoveAt returns the move made by the given side at the given fullmove.
func (g *Game) MoveAt(fullmove int, turn board.Color) (ExtendedMove, bool) {
	idx, ok := g.plyIndex(fullmove, turn)
	if !ok {
		return ExtendedMove{}, false
	}
	return g.moves[idx], true
}

// PositionAt replays the game and returns a copy of the position just before the
// given side moves at the given fullmove.
func (g *Game) PositionAt(fullmove int, turn board.Color) (*board.Position, bool) {
	idx, ok := g.plyIndex(fullmove, turn)
	if !ok {
		return nil, false
	}

	pos := g.start.Clone()
	for i := 0; i < idx; i++ {
		m := g.moves[i].Move
		pos.Make(&m)
	}
	return pos, true
}

// SetTag sets a tag value. Canonical tags route to typed fields. FEN
// reinitializes the starting position, but only before any move has been added.
func (g *Game) SetTag(name, value string) error {
	switch name {
	case "Event":
		g.Tags.Event = value
	case "Site":
		g.Tags.Site = value
	case "Date":
		g.Tags.Date = value
	case "Round":
		g.Tags.Round = value
	case "White":
		g.Tags.White = value
	case "Black":
		g.Tags.Black = value
	case "Result":
		if !g.SetResult(value) {
			return fmt.Errorf("invalid result: '%v'", value)
		}
	case "FEN":
		if len(g.moves) > 0 {
			return fmt.Errorf("cannot set FEN after moves have been added")
		}
		pos, err := fen.Decode(value)
		if err != nil {
			return err
		}
		g.startFEN = fen.Encode(pos)
		g.start = pos.Clone()
		g.pos = pos
		g.hashes = []uint64{pos.Hash()}
	case "TimeControl":
		tc, err := ParseTimeControl(value)
		if err != nil {
			return err
		}
		g.tc = lang.Some(tc)
		g.Extra[name] = value
	default:
		g.Extra[name] = value
	}
	return nil
}

// ECO returns the opening classification, if the game starts from the standard
// initial position and its opening line is known.
func (g *Game) ECO() (Opening, bool) {
	if g.startFEN != fen.Encode(mustDecode(fen.Initial)) {
		return Opening{}, false
	}

	pos := g.start.Clone()
	var line []string
	for _, m := range g.moves {
		line = append(line, pos.SAN(m.Move))
		mv := m.Move
		pos.Make(&mv)
	}
	return LookupOpening(line)
}

// isRepetition reports whether the current position occurred three times within
// the halfmove-clock window.
func (g *Game) isRepetition() bool {
	window := g.pos.Halfmoves()
	current := g.pos.Hash()

	count := 0
	last := len(g.hashes) - 1
	for i := last; i >= 0 && last-i <= window; i-- {
		if g.hashes[i] == current {
			count++
		}
	}
	return count >= repetitionLimit
}

// PlyIndex maps (fullmove, side) to an index into the move list.
func (g *Game) PlyIndex(fullmove int, turn board.Color) (int, bool) {
	return g.plyIndex(fullmove, turn)
}

// plyIndex maps (fullmove, side) to an index into the move list.
func (g *Game) plyIndex(fullmove int, turn board.Color) (int, bool) {
	offset := 0
	if g.start.Turn() == board.Black {
		offset = -1
	}

	idx := 2*(fullmove-g.start.Fullmoves()) + offset
	if turn == board.Black {
		idx++
	}
	if idx < 0 || idx >= len(g.moves) {
		return 0, false
	}
	return idx, true
}

func mustDecode(str string) *board.Position {
	pos, err := fen.Decode(str)
	if err != nil {
		panic(err)
	}
	return pos
}
