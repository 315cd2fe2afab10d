package game

import "github.com/herohde/gambit/pkg/board"

// Result represents the result of a game, if any. 2 bits.
type Result uint8

const (
	Undecided Result = iota
	WhiteWins
	BlackWins
	Draw
)

// Win returns the winning result for the color.
func Win(c board.Color) Result {
	if c == board.White {
		return WhiteWins
	}
	return BlackWins
}

// ParseResult parses a PGN result token: "1-0", "0-1", "1/2-1/2" or "*".
func ParseResult(str string) (Result, bool) {
	switch str {
	case "1-0":
		return WhiteWins, true
	case "0-1":
		return BlackWins, true
	case "1/2-1/2":
		return Draw, true
	case "*":
		return Undecided, true
	default:
		return Undecided, false
	}
}

func (r Result) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// ResultDetail refines a result with the terminating condition.
type ResultDetail uint8

const (
	NoDetail ResultDetail = iota
	Checkmate
	Stalemate
	FiftyMoveRule
	ThreefoldRepetition
	InsufficientMaterial
)

func (d ResultDetail) String() string {
	switch d {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveRule:
		return "fifty-move rule"
	case ThreefoldRepetition:
		return "threefold repetition"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return ""
	}
}
