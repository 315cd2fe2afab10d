// Package pgn contains a parser for Portable Game Notation, as commonly produced
// by Lichess, chess-planet, TCEC and Cutechess: seven-tag roster plus arbitrary
// tags, nested {} comments, nested () variations, NAGs tolerated and discarded.
package pgn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/game"
	"github.com/seekerror/logw"
)

// ErrMalformedPgn is returned when a game cannot be parsed.
var ErrMalformedPgn = errors.New("malformed pgn")

var (
	tagRE        = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
	nagRE        = regexp.MustCompile(`\$\d+`)
	ellipsisRE   = regexp.MustCompile(`\d+\.\.\.`)
	numberSanRE  = regexp.MustCompile(`(\d+\.)([a-hKQRBNO0])`)
	moveNumberRE = regexp.MustCompile(`^(\d+)\.$`)
	commentPhRE  = regexp.MustCompile(`^@(\d+)@$`)
	variationPhRE = regexp.MustCompile(`^@V(\d+)@$`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Parse parses every game in the text buffer. Invalid games are skipped with a
// diagnostic. It fails if the buffer contains no valid game.
func Parse(ctx context.Context, text string) ([]*game.Game, error) {
	return parseAll(ctx, NewScanner(strings.NewReader(text)))
}

// ParseFile streams games from a PGN file. Invalid games are skipped with a
// diagnostic. It fails if the file contains no valid game.
func ParseFile(ctx context.Context, path string) ([]*game.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseAll(ctx, NewScanner(f))
}

func parseAll(ctx context.Context, s *Scanner) ([]*game.Game, error) {
	var ret []*game.Game
	for {
		g, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			logw.Warningf(ctx, "Skipping invalid game: %v", err)
			continue
		}
		ret = append(ret, g)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: no games found", ErrMalformedPgn)
	}
	return ret, nil
}

// Scanner streams games from a reader, splitting the input into raw games by the
// tag-section/move-text pattern.
type Scanner struct {
	in   *bufio.Scanner
	peek string // buffered lookahead line
	done bool
}

func NewScanner(r io.Reader) *Scanner {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Scanner{in: in}
}

// Next returns the next game, or io.EOF when the input is exhausted. A game that
// fails to parse is consumed and returned as an error, so the caller may skip it
// and continue.
func (s *Scanner) Next(ctx context.Context) (*game.Game, error) {
	tags, movetext, err := s.nextRawGame()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	return p.parseGame(ctx, tags, movetext)
}

// nextRawGame splits off the next (tag section, movetext) pair. Tag lines start
// with '[' outside any brace comment; the move text runs until the next tag
// section or EOF.
func (s *Scanner) nextRawGame() (string, string, error) {
	var tags, moves strings.Builder

	// (1) Collect the tag section: consecutive tag lines, blank lines ignored.

	inTags := true
	depth := 0 // {} nesting in movetext

	for {
		line, ok := s.nextLine()
		if !ok {
			if moves.Len() == 0 && tags.Len() == 0 {
				return "", "", io.EOF
			}
			return tags.String(), moves.String(), nil
		}

		trimmed := strings.TrimSpace(line)
		if inTags {
			switch {
			case trimmed == "":
				continue
			case strings.HasPrefix(trimmed, "[") && tagRE.MatchString(trimmed):
				tags.WriteString(trimmed)
				tags.WriteString("\n")
				continue
			default:
				inTags = false
			}
		}

		// (2) Move text. A fresh tag line at depth zero starts the next game.

		if depth == 0 && strings.HasPrefix(trimmed, "[") && tagRE.MatchString(trimmed) && moves.Len() > 0 {
			s.pushLine(line)
			return tags.String(), moves.String(), nil
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		moves.WriteString(line)
		moves.WriteString("\n")
	}
}

func (s *Scanner) nextLine() (string, bool) {
	if s.peek != "" {
		line := s.peek
		s.peek = ""
		return line, true
	}
	if s.done {
		return "", false
	}
	if !s.in.Scan() {
		s.done = true
		return "", false
	}
	return s.in.Text(), true
}

func (s *Scanner) pushLine(line string) {
	s.peek = line
}

// parser holds the placeholder buffers for one game.
type parser struct {
	comments   []string
	variations []string
}

func (p *parser) parseGame(ctx context.Context, tagText, moveText string) (*game.Game, error) {
	if strings.TrimSpace(tagText)+strings.TrimSpace(moveText) == "" {
		return nil, fmt.Errorf("%w: empty game", ErrMalformedPgn)
	}

	g := game.New()

	var result string
	for _, groups := range tagRE.FindAllStringSubmatch(tagText, -1) {
		name, value := groups[1], groups[2]
		if name == "Result" {
			result = value // applied last: the movetext token may be missing
			continue
		}
		if err := g.SetTag(name, value); err != nil {
			return nil, fmt.Errorf("%w: tag %v: %v", ErrMalformedPgn, name, err)
		}
	}

	// Comments are substituted once per game; all later passes run per movetext
	// buffer, variations included.
	text := p.substituteComments(moveText)

	if err := p.parseMoves(ctx, g, text); err != nil {
		return nil, err
	}

	if result != "" && !g.SetResult(result) {
		return nil, fmt.Errorf("%w: invalid result '%v'", ErrMalformedPgn, result)
	}
	return g, nil
}

// parseMoves tokenizes a movetext buffer and applies it to the game.
func (p *parser) parseMoves(ctx context.Context, g *game.Game, text string) error {
	prev := g.Position()

	for _, token := range p.tokenize(text) {
		switch {
		case token == "1-0" || token == "0-1" || token == "1/2-1/2" || token == "*":
			g.SetResult(token)

		case moveNumberRE.MatchString(token):
			number, _ := strconv.Atoi(strings.TrimSuffix(token, "."))
			if number != g.Position().Fullmoves() {
				return fmt.Errorf("%w: move number %v, expected %v", ErrMalformedPgn, number, g.Position().Fullmoves())
			}

		case commentPhRE.MatchString(token):
			comment := p.comment(token)
			if !g.AmendLastMove(func(m *game.ExtendedMove) { parseComment(m, comment) }) {
				g.Intro = strings.TrimSpace(comment)
			}

		case variationPhRE.MatchString(token):
			v, err := p.parseVariation(ctx, prev, p.variation(token))
			if err != nil {
				return err
			}
			if !g.AmendLastMove(func(m *game.ExtendedMove) { m.Variations = append(m.Variations, v) }) {
				return fmt.Errorf("%w: variation before first move", ErrMalformedPgn)
			}

		default:
			pos := g.Position()
			m, err := pos.ParseSAN(token)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedPgn, err)
			}
			prev = g.Position()
			if !g.Add(game.NewExtendedMove(m, prev.Turn())) {
				return fmt.Errorf("%w: illegal move '%v'", ErrMalformedPgn, token)
			}
		}
	}
	return nil
}

// parseVariation recursively parses a variation buffer against the position
// before the move it replaces.
func (p *parser) parseVariation(ctx context.Context, before *board.Position, text string) (game.Variation, error) {
	var ret game.Variation

	cur := before.Clone()
	prev := before.Clone()

	for _, token := range p.tokenize(text) {
		switch {
		case token == "1-0" || token == "0-1" || token == "1/2-1/2" || token == "*":
			// ignore results inside variations

		case moveNumberRE.MatchString(token):
			number, _ := strconv.Atoi(strings.TrimSuffix(token, "."))
			if number != cur.Fullmoves() {
				return nil, fmt.Errorf("%w: variation move number %v, expected %v", ErrMalformedPgn, number, cur.Fullmoves())
			}

		case commentPhRE.MatchString(token):
			if len(ret) == 0 {
				continue
			}
			parseComment(&ret[len(ret)-1], p.comment(token))

		case variationPhRE.MatchString(token):
			if len(ret) == 0 {
				return nil, fmt.Errorf("%w: variation before first move", ErrMalformedPgn)
			}
			v, err := p.parseVariation(ctx, prev, p.variation(token))
			if err != nil {
				return nil, err
			}
			ret[len(ret)-1].Variations = append(ret[len(ret)-1].Variations, v)

		default:
			m, err := cur.ParseSAN(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPgn, err)
			}
			em := game.NewExtendedMove(m, cur.Turn())
			prev = cur.Clone()
			cur.Make(&em.Move)
			ret = append(ret, em)
		}
	}
	return ret, nil
}

// tokenize runs the preprocessing pipeline on a movetext buffer and splits it
// into whitespace-separated tokens. Comments must already be substituted.
func (p *parser) tokenize(text string) []string {
	str := nagRE.ReplaceAllString(text, "")
	str = p.substituteVariations(str)
	str = ellipsisRE.ReplaceAllString(str, "")
	str = numberSanRE.ReplaceAllString(str, "$1 $2")
	str = whitespaceRE.ReplaceAllString(str, " ")
	str = strings.ReplaceAll(str, "0-0-0", "O-O-O")
	str = strings.ReplaceAll(str, "0-0", "O-O")

	return strings.Fields(str)
}

// substituteComments replaces nested {...} groups with @N@ placeholders.
func (p *parser) substituteComments(text string) string {
	var sb, buf strings.Builder
	depth := 0

	for _, r := range text {
		switch {
		case r == '{':
			if depth > 0 {
				buf.WriteRune(r)
			}
			depth++
		case r == '}' && depth > 0:
			depth--
			if depth == 0 {
				sb.WriteString(fmt.Sprintf(" @%v@ ", len(p.comments)))
				p.comments = append(p.comments, buf.String())
				buf.Reset()
			} else {
				buf.WriteRune(r)
			}
		case depth > 0:
			buf.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	if depth > 0 {
		// unterminated comment: keep what we have
		sb.WriteString(fmt.Sprintf(" @%v@ ", len(p.comments)))
		p.comments = append(p.comments, buf.String())
	}
	return sb.String()
}

// substituteVariations replaces top-level (...) groups with @VN@ placeholders.
// Nested groups stay inside the buffer for recursive parsing.
func (p *parser) substituteVariations(text string) string {
	var sb, buf strings.Builder
	depth := 0

	for _, r := range text {
		switch {
		case r == '(':
			if depth > 0 {
				buf.WriteRune(r)
			}
			depth++
		case r == ')' && depth > 0:
			depth--
			if depth == 0 {
				sb.WriteString(fmt.Sprintf(" @V%v@ ", len(p.variations)))
				p.variations = append(p.variations, buf.String())
				buf.Reset()
			} else {
				buf.WriteRune(r)
			}
		case depth > 0:
			buf.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	if depth > 0 {
		sb.WriteString(fmt.Sprintf(" @V%v@ ", len(p.variations)))
		p.variations = append(p.variations, buf.String())
	}
	return sb.String()
}

func (p *parser) comment(token string) string {
	idx, _ := strconv.Atoi(commentPhRE.FindStringSubmatch(token)[1])
	return p.comments[idx]
}

func (p *parser) variation(token string) string {
	idx, _ := strconv.Atoi(variationPhRE.FindStringSubmatch(token)[1])
	return p.variations[idx]
}
