package game

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/board/fen"
)

// maxLineLength is the PGN export line width: move text wraps after word
// boundaries to lines of at most 80 characters.
const maxLineLength = 80

// SANNotation renders the move text in SAN, optionally with comments and
// variations. No line wrapping and no result token.
func (g *Game) SANNotation(withComments, withVariations bool) string {
	tokens := g.movetext(g.start.Clone(), g.moves, withComments, withVariations, false)
	return strings.Join(tokens, " ")
}

// FigurineNotation renders the move text with UTF-8 figurines instead of piece
// letters.
func (g *Game) FigurineNotation() string {
	tokens := g.movetext(g.start.Clone(), g.moves, false, false, true)
	return strings.Join(tokens, " ")
}

// PGN renders the complete game: tag section, then move text wrapped to 80
// columns, terminated by the result token.
func (g *Game) PGN(withVariations bool) string {
	var sb strings.Builder

	tag := func(name, value string) {
		sb.WriteString(fmt.Sprintf("[%v \"%v\"]\n", name, value))
	}

	tag("Event", orUnknown(g.Tags.Event))
	tag("Site", orUnknown(g.Tags.Site))
	tag("Date", orUnknown(g.Tags.Date))
	tag("Round", orUnknown(g.Tags.Round))
	tag("White", orUnknown(g.Tags.White))
	tag("Black", orUnknown(g.Tags.Black))
	tag("Result", g.result.String())

	if g.startFEN != fen.Encode(mustDecode(fen.Initial)) {
		tag("SetUp", "1")
		tag("FEN", g.startFEN)
	} else if eco, ok := g.ECO(); ok {
		tag("ECO", eco.Code)
		tag("Opening", eco.Name)
	}
	if g.detail != NoDetail {
		tag("Termination", g.detail.String())
	}

	var extras []string
	for name := range g.Extra {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	for _, name := range extras {
		tag(name, g.Extra[name])
	}

	sb.WriteString("\n")

	tokens := g.movetext(g.start.Clone(), g.moves, true, withVariations, false)
	if g.Intro != "" {
		tokens = append([]string{"{" + g.Intro + "}"}, tokens...)
	}
	tokens = append(tokens, g.result.String())

	line := 0
	for i, token := range tokens {
		if line > 0 && line+1+len(token) > maxLineLength {
			sb.WriteString("\n")
			line = 0
		} else if i > 0 && line > 0 {
			sb.WriteString(" ")
			line++
		}
		sb.WriteString(token)
		line += len(token)
	}
	sb.WriteString("\n")

	return sb.String()
}

// movetext renders moves from the given position as a token stream.
func (g *Game) movetext(pos *board.Position, moves []ExtendedMove, withComments, withVariations, figurine bool) []string {
	var tokens []string

	needNumber := true
	for _, m := range moves {
		if pos.Turn() == board.White {
			tokens = append(tokens, fmt.Sprintf("%v.", pos.Fullmoves()))
			needNumber = false
		} else if needNumber {
			tokens = append(tokens, fmt.Sprintf("%v...", pos.Fullmoves()))
			needNumber = false
		}

		san := pos.SAN(m.Move)
		if figurine {
			san = figurineSAN(san, pos.At(m.From))
		}
		tokens = append(tokens, san)

		if withVariations {
			for _, v := range m.Variations {
				sub := g.movetext(pos.Clone(), v, withComments, withVariations, figurine)
				tokens = append(tokens, "("+strings.Join(sub, " ")+")")
				needNumber = true
			}
		}

		if withComments {
			if comment := annotate(m); comment != "" {
				tokens = append(tokens, "{"+comment+"}")
				needNumber = true
			}
		}

		mv := m.Move
		pos.Make(&mv)
	}
	return tokens
}

// annotate renders the recognized annotations followed by the free-form comment.
func annotate(m ExtendedMove) string {
	var parts []string

	if clock, ok := m.Clock.V(); ok {
		parts = append(parts, fmt.Sprintf("[%%clk %v]", formatClock(clock)))
	}
	if mate, ok := m.Mate.V(); ok {
		parts = append(parts, fmt.Sprintf("[%%eval #%v]", mate))
	} else if cp, ok := m.Eval.V(); ok {
		if m.Depth > 0 {
			parts = append(parts, fmt.Sprintf("[%%eval %.2f,%v]", float64(cp)/100, m.Depth))
		} else {
			parts = append(parts, fmt.Sprintf("[%%eval %.2f]", float64(cp)/100))
		}
	}
	if m.Comment != "" {
		parts = append(parts, m.Comment)
	}
	return strings.Join(parts, " ")
}

func formatClock(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// figurineSAN replaces the leading piece letter with the mover's figurine.
func figurineSAN(san string, piece board.Piece) string {
	if piece == board.Blank || piece.Type() == board.Pawn || strings.HasPrefix(san, "O-O") {
		return san
	}
	runes := []rune(san)
	if len(runes) > 0 && unicode.IsUpper(runes[0]) {
		return string(piece.Figurine()) + string(runes[1:])
	}
	return san
}

func orUnknown(str string) string {
	if str == "" {
		return "?"
	}
	return str
}
