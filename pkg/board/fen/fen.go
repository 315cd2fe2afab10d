// Package fen contains utilities for reading and writing positions in FEN notation.
package fen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/herohde/gambit/pkg/board"
)

const (
	// Initial is the standard starting position.
	Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// ErrMalformedFen is returned when a FEN string fails validation.
var ErrMalformedFen = errors.New("malformed fen")

// fenRE validates the overall shape: 8 ranks of pieces and digits, side to move,
// castling rights, en passant target and optional halfmove/fullmove counters.
var fenRE = regexp.MustCompile(`^([pnbrqkPNBRQK1-8]{1,8}/){7}[pnbrqkPNBRQK1-8]{1,8} [wb] (-|K?Q?k?q?) (-|[a-h][36])( \d+)?( \d+)?$`)

// Decode returns a new position from a FEN description. Missing halfmove and
// fullmove counters default to 0 and 1.
//
// Example:
//
//	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(fen string) (*board.Position, error) {
	str := strings.TrimSpace(fen)
	if !fenRE.MatchString(str) {
		return nil, fmt.Errorf("%w: '%v'", ErrMalformedFen, fen)
	}

	parts := strings.Split(str, " ")

	// (1) Piece placement, from white's perspective: rank 8 first, each rank from
	// file a to file h, digits expanding to that many empty squares.

	var pieces []board.Placement

	rank := board.Rank8
	file := board.FileA
	for _, r := range []rune(parts[0]) {
		switch {
		case r == '/':
			if file != board.NumFiles {
				return nil, fmt.Errorf("%w: incomplete rank: '%v'", ErrMalformedFen, fen)
			}
			rank--
			file = board.FileA

		case unicode.IsDigit(r):
			file += board.File(r - '0')

		default:
			piece, ok := board.ParsePiece(r)
			if !ok || file >= board.NumFiles {
				return nil, fmt.Errorf("%w: invalid piece '%c': '%v'", ErrMalformedFen, r, fen)
			}
			pieces = append(pieces, board.Placement{Square: board.NewSquare(file, rank), Piece: piece})
			file++
		}
	}
	if rank != board.Rank1 || file != board.NumFiles {
		return nil, fmt.Errorf("%w: invalid number of squares: '%v'", ErrMalformedFen, fen)
	}

	// (2) Active color.

	turn := board.White
	if parts[1] == "b" {
		turn = board.Black
	}

	// (3) Castling availability.

	castling, ok := board.ParseCastling(parts[2])
	if !ok {
		return nil, fmt.Errorf("%w: invalid castling: '%v'", ErrMalformedFen, fen)
	}

	// (4) En passant target square, or "-".

	ep := board.Outside
	if parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid en passant: '%v'", ErrMalformedFen, fen)
		}
		ep = sq
	}

	// (5+6) Halfmove clock and fullmove number, if present.

	halfmoves, fullmoves := 0, 1
	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid halfmove clock: '%v'", ErrMalformedFen, fen)
		}
		halfmoves = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: invalid fullmove number: '%v'", ErrMalformedFen, fen)
		}
		fullmoves = n
	}

	pos, err := board.NewPosition(pieces, turn, castling, ep, halfmoves, fullmoves)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: '%v'", ErrMalformedFen, err, fen)
	}
	return pos, nil
}

// Encode encodes the position in FEN notation. It never fails.
func Encode(pos *board.Position) string {
	var sb strings.Builder

	for r := board.NumRanks; r > 0; r-- {
		blanks := 0
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			piece := pos.At(board.NewSquare(f, r-1))
			if piece == board.Blank {
				blanks++
				continue
			}

			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteRune(piece.Letter())
		}
		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r > 1 {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if sq, ok := pos.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), pos.Turn(), pos.Castling(), ep, pos.Halfmoves(), pos.Fullmoves())
}

// Flip mirrors a FEN string: colors swapped, ranks inverted, castling rights and
// en passant target adjusted. Intended for tests that exercise both sides of a
// position with one fixture.
func Flip(fen string) string {
	parts := strings.Split(strings.TrimSpace(fen), " ")

	ranks := strings.Split(parts[0], "/")
	flipped := make([]string, len(ranks))
	for i, rank := range ranks {
		var sb strings.Builder
		for _, r := range []rune(rank) {
			switch {
			case unicode.IsDigit(r):
				sb.WriteRune(r)
			case unicode.IsUpper(r):
				sb.WriteRune(unicode.ToLower(r))
			default:
				sb.WriteRune(unicode.ToUpper(r))
			}
		}
		flipped[len(ranks)-1-i] = sb.String()
	}
	parts[0] = strings.Join(flipped, "/")

	if parts[1] == "w" {
		parts[1] = "b"
	} else {
		parts[1] = "w"
	}

	if parts[2] != "-" {
		var sb strings.Builder
		for _, r := range []rune(parts[2]) {
			if unicode.IsUpper(r) {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
		}
		// keep KQkq ordering after the swap
		order := "KQkq"
		var out strings.Builder
		for _, r := range []rune(order) {
			if strings.ContainsRune(sb.String(), r) {
				out.WriteRune(r)
			}
		}
		parts[2] = out.String()
	}

	if parts[3] != "-" {
		file := parts[3][0]
		rank := parts[3][1]
		parts[3] = fmt.Sprintf("%c%c", file, '1'+('8'-rank))
	}

	return strings.Join(parts, " ")
}
