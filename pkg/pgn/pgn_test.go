package pgn_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/gambit/pkg/game"
	"github.com/herohde/gambit/pkg/pgn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lichessSample = `[Event "Rated Blitz game"]
[Site "https://lichess.org/abcd1234"]
[Date "2021.05.01"]
[White "alpha"]
[Black "beta"]
[Result "1/2-1/2"]
[TimeControl "300+3"]

1. e4 { [%eval 0.35,24] [%clk 0:05:00] } e5 { [%eval 0.3] [%clk 0:05:00] }
2. Nf3 $1 { [%clk 0:04:58] } Nc6 { [%clk 0:04:57] } 1/2-1/2
`

func TestParseSingleGame(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, lichessSample)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "Rated Blitz game", g.Tags.Event)
	assert.Equal(t, "alpha", g.Tags.White)
	assert.Equal(t, "beta", g.Tags.Black)

	result, _ := g.Result()
	assert.Equal(t, game.Draw, result)

	require.Len(t, g.Moves(), 4)
	assert.Equal(t, "e2e4", g.Moves()[0].Move.String())
	assert.Equal(t, "b8c6", g.Moves()[3].Move.String())

	tc, ok := g.TimeControl()
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, tc.Base)
}

func TestParseAnnotations(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1. e4 {[%eval 0.35,24] [%clk 0:05:00]} e5 1/2-1/2`)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	require.Len(t, g.Moves(), 2)

	m := g.Moves()[0]
	cp, ok := m.Eval.V()
	require.True(t, ok)
	assert.Equal(t, 35, cp)
	assert.Equal(t, 24, m.Depth)

	clock, ok := m.Clock.V()
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, clock)

	assert.Empty(t, m.Comment)

	result, _ := g.Result()
	assert.Equal(t, game.Draw, result)
}

func TestParseMateAnnotation(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1. e4 {[%eval #-3] good} e5 *`)
	require.NoError(t, err)

	m := games[0].Moves()[0]
	mate, ok := m.Mate.V()
	require.True(t, ok)
	assert.Equal(t, -3, mate)
	assert.Equal(t, "good", m.Comment)
}

func TestParseTCECAnnotations(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "TCEC"]

1. e4 {d=30, mt=15000, tl=1800000, s=12345} e5 *`)
	require.NoError(t, err)

	m := games[0].Moves()[0]
	assert.Equal(t, 30, m.Depth)
	assert.Equal(t, 15*time.Second, m.UsedTime)

	tl, ok := m.Clock.V()
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, tl)

	assert.Equal(t, "s=12345", m.Comment)
}

func TestParseCutechessAnnotations(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "cutechess"]

1. e4 {+0.27/18 4.5s} e5 {-0.31/17 3.2s} *`)
	require.NoError(t, err)

	m := games[0].Moves()[0]
	cp, ok := m.Eval.V()
	require.True(t, ok)
	assert.Equal(t, 27, cp)
	assert.Equal(t, 18, m.Depth)
	assert.Equal(t, 4500*time.Millisecond, m.UsedTime)

	m = games[0].Moves()[1]
	cp, ok = m.Eval.V()
	require.True(t, ok)
	assert.Equal(t, -31, cp)
}

func TestParseVariations(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1. e4 e5 (1... c5 2. Nf3 (2. Nc3 Nc6) d6) 2. Nf3 *`)
	require.NoError(t, err)

	g := games[0]
	require.Len(t, g.Moves(), 3)

	// The variation replaces 1... e5.
	vs := g.Moves()[1].Variations
	require.Len(t, vs, 1)
	require.Len(t, vs[0], 3)
	assert.Equal(t, "c7c5", vs[0][0].Move.String())
	assert.Equal(t, "d7d6", vs[0][2].Move.String())

	// The nested variation replaces 2. Nf3 within the line.
	nested := vs[0][1].Variations
	require.Len(t, nested, 1)
	assert.Equal(t, "b1c3", nested[0][0].Move.String())
	assert.Equal(t, "b8c6", nested[0][1].Move.String())
}

func TestParseNestedComments(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1. e4 {outer {inner} text} e5 *`)
	require.NoError(t, err)

	assert.Equal(t, "outer {inner} text", games[0].Moves()[0].Comment)
}

func TestParseIntroComment(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

{A famous miniature.} 1. e4 e5 *`)
	require.NoError(t, err)

	assert.Equal(t, "A famous miniature.", games[0].Intro)
}

func TestParseCastlingZeros(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]
[FEN "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"]

1. 0-0 0-0-0 *`)
	require.NoError(t, err)

	g := games[0]
	require.Len(t, g.Moves(), 2)
	assert.Equal(t, "e1g1", g.Moves()[0].Move.String())
	assert.Equal(t, "e8c8", g.Moves()[1].Move.String())
}

func TestParseTightMoveNumbers(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1.e4 c5 2.Nf3 d6 3.d4 cxd4 4.Nxd4 *`)
	require.NoError(t, err)

	assert.Len(t, games[0].Moves(), 7)
}

func TestParseMultipleGames(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "first"]
[Result "1-0"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 1-0

[Event "second"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1
`)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "first", games[0].Tags.Event)
	assert.Equal(t, "second", games[1].Tags.Event)
	assert.Len(t, games[1].Moves(), 4)

	result, detail := games[1].Result()
	assert.Equal(t, game.BlackWins, result)
	assert.Equal(t, game.Checkmate, detail)
}

func TestParseSkipsInvalidGames(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "broken"]

1. e4 e5 2. Ke2 Ke7 3. zz9 *

[Event "good"]

1. d4 d5 *
`)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "good", games[0].Tags.Event)
}

func TestParseRejectsGarbage(t *testing.T) {
	ctx := context.Background()

	_, err := pgn.Parse(ctx, "this is not a pgn file")
	assert.ErrorIs(t, err, pgn.ErrMalformedPgn)
}

func TestParseBlackEllipsis(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, `[Event "x"]

1. e4 {first} 1... e5 2. Nf3 *`)
	require.NoError(t, err)

	g := games[0]
	require.Len(t, g.Moves(), 3)
	assert.Equal(t, "first", g.Moves()[0].Comment)
	assert.Equal(t, "e7e5", g.Moves()[1].Move.String())
}

func TestRoundtrip(t *testing.T) {
	ctx := context.Background()

	games, err := pgn.Parse(ctx, lichessSample)
	require.NoError(t, err)

	emitted := games[0].PGN(false)
	reparsed, err := pgn.Parse(ctx, emitted)
	require.NoError(t, err)
	require.Len(t, reparsed, 1)

	assert.Equal(t, len(games[0].Moves()), len(reparsed[0].Moves()))
	for i := range games[0].Moves() {
		assert.True(t, games[0].Moves()[i].Move.Equals(reparsed[0].Moves()[i].Move))
	}
}

func TestParseMoveNumberMismatch(t *testing.T) {
	ctx := context.Background()

	_, err := pgn.Parse(ctx, `[Event "x"]

1. e4 e5 7. Nf3 *`)
	assert.ErrorIs(t, err, pgn.ErrMalformedPgn)
}
