package board

import (
	"fmt"
	"strings"
)

// Move represents a move in pure coordinate notation: origin, destination and an
// optional promotion piece. Castling is encoded as the king's two-square move
// (e1g1, e1c1, e8g8, e8c8). 32 bits plus undo metadata.
type Move struct {
	From, To  Square
	Promotion PieceType // NoPieceType if not a promotion

	// Undo carries the state needed to reverse the move. Populated by Position.Make.
	Undo Undo
}

// NullMove is the a1a1 sentinel for "no move".
var NullMove = Move{From: A1, To: A1, Promotion: NoPieceType}

// Undo records position state clobbered by a move, to allow exact reversal.
type Undo struct {
	Halfmoves int
	Captured  Piece   // Blank if no capture
	EnPassant Square  // prior en passant target; Outside if none
	Castling  Castling
	Promoted  bool
}

// ParseMove parses a move in pure coordinate notation, such as "e2e4" or "a7a8q".
func ParseMove(str string) (Move, error) {
	runes := []rune(strings.TrimSpace(str))

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: '%v'", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from: '%v': %v", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to: '%v': %v", str, err)
	}

	promo := NoPieceType
	if len(runes) == 5 {
		p, ok := ParsePieceType(runes[4])
		if !ok || p == Pawn || p == King {
			return Move{}, fmt.Errorf("invalid promotion: '%v'", str)
		}
		promo = p
	}

	return Move{From: from, To: to, Promotion: promo}, nil
}

// IsNull returns true iff the move is the null move sentinel.
func (m Move) IsNull() bool {
	return m.From == A1 && m.To == A1
}

// IsPromotion returns true iff the move carries a promotion piece.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// Equals compares origin, destination and promotion. Undo metadata is ignored.
func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) String() string {
	if m.IsPromotion() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// PrintMoves prints a list of moves in coordinate notation, space-separated.
func PrintMoves(list []Move) string {
	var sb strings.Builder
	for i, m := range list {
		if i > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}
