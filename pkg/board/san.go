package board

import (
	"fmt"
	"regexp"
	"strings"
)

// sanRE captures piece, origin file, origin rank, capture marker, destination and
// promotion. Trailing check/mate/annotation glyphs are tolerated.
var sanRE = regexp.MustCompile(`^([QRBNK]?)([a-h]?)([1-8]?)(x?)([a-h][1-8])(?:=?([QRBN]))?[+#!?]*$`)

// SAN renders the move in Standard Algebraic Notation: piece letter (omitted for
// pawns), minimal disambiguation, capture marker, destination, promotion and a
// check or mate suffix. The move must be legal in the position.
func (p *Position) SAN(m Move) string {
	var sb strings.Builder

	piece := p.board[m.From]
	if piece.Type() == King && fileDistance(m.From, m.To) == 2 {
		if m.To.File() == FileG {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
		sb.WriteString(p.checkSuffix(m))
		return sb.String()
	}

	capture := p.board[m.To] != Blank || (piece.Type() == Pawn && m.From.File() != m.To.File())

	if piece.Type() == Pawn {
		if capture {
			sb.WriteString(m.From.File().String())
		}
	} else {
		sb.WriteString(strings.ToUpper(piece.Type().String()))
		sb.WriteString(p.disambiguate(m, piece))
	}

	if capture {
		sb.WriteString("x")
	}
	sb.WriteString(m.To.String())

	if m.IsPromotion() {
		sb.WriteString("=")
		sb.WriteString(strings.ToUpper(m.Promotion.String()))
	}

	sb.WriteString(p.checkSuffix(m))
	return sb.String()
}

// ParseSAN parses a SAN token against the position, using move generation to
// resolve the origin square. Trailing '+', '#', '!' and '?' are tolerated.
func (p *Position) ParseSAN(str string) (Move, error) {
	token := strings.TrimSpace(str)

	if castle := strings.TrimRight(token, "+#!?"); castle == "O-O" || castle == "O-O-O" {
		right := WhiteKingSideCastle
		switch {
		case castle == "O-O-O" && p.turn == White:
			right = WhiteQueenSideCastle
		case castle == "O-O" && p.turn == Black:
			right = BlackKingSideCastle
		case castle == "O-O-O" && p.turn == Black:
			right = BlackQueenSideCastle
		}
		want := p.CastleMove(right)
		for _, m := range p.LegalMoves() {
			if m.Equals(want) {
				return m, nil
			}
		}
		return Move{}, fmt.Errorf("illegal castling '%v' in %v", str, p)
	}

	groups := sanRE.FindStringSubmatch(token)
	if groups == nil {
		return Move{}, fmt.Errorf("invalid san: '%v'", str)
	}

	pieceType := Pawn
	if groups[1] != "" {
		pieceType, _ = ParsePieceType(rune(groups[1][0]))
	}
	to, err := ParseSquareStr(groups[5])
	if err != nil {
		return Move{}, fmt.Errorf("invalid san: '%v': %v", str, err)
	}
	promo := NoPieceType
	if groups[6] != "" {
		promo, _ = ParsePieceType(rune(groups[6][0]))
	}

	var candidates []Move
	for _, m := range p.LegalMoves() {
		if m.To != to || m.Promotion != promo {
			continue
		}
		if p.board[m.From].Type() != pieceType {
			continue
		}
		candidates = append(candidates, m)
	}

	// Narrow by the origin disambiguator, if present. A pawn capture's leading
	// file letter lands in the same group.
	if groups[2] != "" {
		file, _ := ParseFile(rune(groups[2][0]))
		candidates = filterMoves(candidates, func(m Move) bool { return m.From.File() == file })
	}
	if groups[3] != "" {
		rank, _ := ParseRank(rune(groups[3][0]))
		candidates = filterMoves(candidates, func(m Move) bool { return m.From.Rank() == rank })
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return Move{}, fmt.Errorf("illegal san '%v' in %v", str, p)
	default:
		return Move{}, fmt.Errorf("ambiguous san '%v' in %v", str, p)
	}
}

// disambiguate returns the minimal origin qualifier: file if unique, else rank,
// else both.
func (p *Position) disambiguate(m Move, piece Piece) string {
	var others []Move
	for _, c := range p.LegalMoves() {
		if c.To != m.To || c.From == m.From {
			continue
		}
		if p.board[c.From] != piece {
			continue
		}
		others = append(others, c)
	}
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, o := range others {
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	switch {
	case !sameFile:
		return m.From.File().String()
	case !sameRank:
		return m.From.Rank().String()
	default:
		return m.From.String()
	}
}

func (p *Position) checkSuffix(m Move) string {
	prior := p.hash
	p.Make(&m)
	suffix := ""
	if p.IsChecked(p.turn) {
		if p.IsMate() {
			suffix = "#"
		} else {
			suffix = "+"
		}
	}
	p.Unmake(m, prior)
	return suffix
}

func filterMoves(list []Move, keep func(Move) bool) []Move {
	var ret []Move
	for _, m := range list {
		if keep(m) {
			ret = append(ret, m)
		}
	}
	return ret
}
