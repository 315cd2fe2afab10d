package game_test

import (
	"strings"
	"testing"
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/board/fen"
	"github.com/herohde/gambit/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(t *testing.T, g *game.Game, moves ...string) {
	t.Helper()

	for _, str := range moves {
		m, err := board.ParseMove(str)
		require.NoError(t, err)
		require.True(t, g.Add(game.NewExtendedMove(m, g.SideToMove())), "illegal move %v", str)
	}
}

func TestAdd(t *testing.T) {
	g := game.New()
	add(t, g, "e2e4", "e7e5", "g1f3")

	assert.Len(t, g.Moves(), 3)
	assert.Equal(t, board.Black, g.SideToMove())
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2", fen.Encode(g.Position()))

	result, detail := g.Result()
	assert.Equal(t, game.Undecided, result)
	assert.Equal(t, game.NoDetail, detail)
}

func TestAddIllegal(t *testing.T) {
	g := game.New()

	m, err := board.ParseMove("e2e5")
	require.NoError(t, err)
	assert.False(t, g.Add(game.NewExtendedMove(m, board.White)))
	assert.Empty(t, g.Moves())
	assert.Equal(t, fen.Initial, fen.Encode(g.Position()))
}

func TestAddCheckmate(t *testing.T) {
	g := game.New()
	add(t, g, "f2f3", "e7e5", "g2g4", "d8h4")

	result, detail := g.Result()
	assert.Equal(t, game.BlackWins, result)
	assert.Equal(t, game.Checkmate, detail)
}

func TestAddStalemate(t *testing.T) {
	g, err := game.NewFromFEN("7k/8/4Q1K1/8/8/8/8/8 w - - 0 1")
	require.NoError(t, err)
	add(t, g, "e6f7")

	result, detail := g.Result()
	assert.Equal(t, game.Draw, result)
	assert.Equal(t, game.Stalemate, detail)
}

func TestAddThreefoldRepetition(t *testing.T) {
	g := game.New()

	// Shuffle the knights: the initial position recurs after every 4 plies.
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	add(t, g, shuffle...)
	result, _ := g.Result()
	require.Equal(t, game.Undecided, result)

	add(t, g, shuffle...)

	result, detail := g.Result()
	assert.Equal(t, game.Draw, result)
	assert.Equal(t, game.ThreefoldRepetition, detail)
}

func TestAddFiftyMoveRule(t *testing.T) {
	g, err := game.NewFromFEN("4k3/8/8/8/8/8/8/4K2R w - - 99 80")
	require.NoError(t, err)
	add(t, g, "h1h2")

	result, detail := g.Result()
	assert.Equal(t, game.Draw, result)
	assert.Equal(t, game.FiftyMoveRule, detail)
}

func TestAddInsufficientMaterial(t *testing.T) {
	g, err := game.NewFromFEN("4k3/8/8/8/8/8/5q2/4K3 w - - 0 1")
	require.NoError(t, err)
	add(t, g, "e1f2")

	result, detail := g.Result()
	assert.Equal(t, game.Draw, result)
	assert.Equal(t, game.InsufficientMaterial, detail)
}

func TestUndoLastMove(t *testing.T) {
	g := game.New()
	assert.False(t, g.UndoLastMove())

	add(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	result, _ := g.Result()
	require.Equal(t, game.BlackWins, result)

	assert.True(t, g.UndoLastMove())

	result, detail := g.Result()
	assert.Equal(t, game.Undecided, result)
	assert.Equal(t, game.NoDetail, detail)
	assert.Len(t, g.Moves(), 3)
	assert.Equal(t, board.Black, g.SideToMove())

	// Hash is restored to the pre-move value.
	assert.Equal(t, g.Hashes()[len(g.Hashes())-1], g.Position().Hash())
}

func TestPositionAndMoveAt(t *testing.T) {
	g := game.New()
	add(t, g, "e2e4", "e7e5", "g1f3", "b8c6")

	pos, ok := g.PositionAt(2, board.White)
	require.True(t, ok)
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2", fen.Encode(pos))

	m, ok := g.MoveAt(1, board.Black)
	require.True(t, ok)
	assert.Equal(t, "e7e5", m.Move.String())

	_, ok = g.MoveAt(3, board.White)
	assert.False(t, ok)
}

func TestAddVariation(t *testing.T) {
	g := game.New()
	add(t, g, "e2e4", "e7e5")

	alt, err := board.ParseMove("c7c5")
	require.NoError(t, err)
	v := game.Variation{game.NewExtendedMove(alt, board.Black)}

	require.True(t, g.AddVariation(v, 1, board.Black))
	assert.Len(t, g.Moves()[1].Variations, 1)

	assert.False(t, g.AddVariation(v, 9, board.White))
}

func TestSetTag(t *testing.T) {
	g := game.New()

	require.NoError(t, g.SetTag("Event", "Casual game"))
	require.NoError(t, g.SetTag("White", "Morphy"))
	require.NoError(t, g.SetTag("Result", "1-0"))
	require.NoError(t, g.SetTag("Annotator", "anon"))
	require.NoError(t, g.SetTag("TimeControl", "300+3"))

	assert.Equal(t, "Casual game", g.Tags.Event)
	assert.Equal(t, "Morphy", g.Tags.White)
	assert.Equal(t, "anon", g.Extra["Annotator"])

	result, _ := g.Result()
	assert.Equal(t, game.WhiteWins, result)

	tc, ok := g.TimeControl()
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, tc.Base)
	assert.Equal(t, 3*time.Second, tc.Increment)

	assert.Error(t, g.SetTag("Result", "2-0"))
}

func TestSetTagFEN(t *testing.T) {
	g := game.New()
	require.NoError(t, g.SetTag("FEN", "4k3/8/8/8/8/8/8/4K2R w K - 0 1"))
	assert.Equal(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1", g.StartFEN())

	add(t, g, "h1h8")
	assert.Error(t, g.SetTag("FEN", fen.Initial))
}

func TestSetResult(t *testing.T) {
	g := game.New()

	assert.True(t, g.SetResult("1/2-1/2"))
	result, _ := g.Result()
	assert.Equal(t, game.Draw, result)

	assert.False(t, g.SetResult("½-½"))
}

func TestPGN(t *testing.T) {
	g := game.New()
	require.NoError(t, g.SetTag("Event", "Test"))
	require.NoError(t, g.SetTag("White", "A"))
	require.NoError(t, g.SetTag("Black", "B"))
	add(t, g, "e2e4", "c7c5", "g1f3")
	require.True(t, g.SetResult("*"))

	pgn := g.PGN(false)

	assert.Contains(t, pgn, `[Event "Test"]`)
	assert.Contains(t, pgn, `[Result "*"]`)
	assert.Contains(t, pgn, `[ECO "B20"]`)
	assert.Contains(t, pgn, `[Opening "Sicilian Defense"]`)
	assert.Contains(t, pgn, "1. e4 c5 2. Nf3 *")
}

func TestPGNLineWrapping(t *testing.T) {
	g := game.New()
	// A long quiet sequence to force wrapping.
	add(t, g,
		"a2a3", "a7a6", "b2b4", "b7b5", "c2c3", "c7c6", "d2d3", "d7d6",
		"e2e3", "e7e6", "f2f3", "f7f6", "g2g3", "g7g6", "h2h3", "h7h6",
		"a1a2", "a8a7", "h1h2", "h8h7", "b1d2", "b8d7", "g1e2", "g8e7",
		"c1b2", "c8b7")

	for _, line := range strings.Split(g.PGN(false), "\n") {
		assert.LessOrEqual(t, len(line), 80, "line too long: %v", line)
	}
}

func TestSANNotation(t *testing.T) {
	g := game.New()
	add(t, g, "e2e4", "e7e5", "g1f3")

	assert.Equal(t, "1. e4 e5 2. Nf3", g.SANNotation(false, false))
}

func TestFigurineNotation(t *testing.T) {
	g := game.New()
	add(t, g, "g1f3", "b8c6")

	assert.Equal(t, "1. ♘f3 ♞c6", g.FigurineNotation())
}

func TestECO(t *testing.T) {
	g := game.New()
	add(t, g, "e2e4", "c7c5", "g1f3", "d7d6")

	eco, ok := g.ECO()
	require.True(t, ok)
	assert.Equal(t, "B50", eco.Code)

	// Games from a non-standard start have no opening classification.
	custom, err := game.NewFromFEN("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	require.NoError(t, err)
	_, ok = custom.ECO()
	assert.False(t, ok)
}

func TestParseTimeControl(t *testing.T) {
	tests := []struct {
		str      string
		expected game.TimeControl
	}{
		{"?", game.TimeControl{}},
		{"-", game.TimeControl{}},
		{"600", game.TimeControl{Base: 10 * time.Minute}},
		{"300+3", game.TimeControl{Base: 5 * time.Minute, Increment: 3 * time.Second}},
		{"40/9000", game.TimeControl{Moves: 40, Base: 150 * time.Minute}},
		{"40/5400+30", game.TimeControl{Moves: 40, Base: 90 * time.Minute, Increment: 30 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			tc, err := game.ParseTimeControl(tt.str)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tc)
		})
	}

	_, err := game.ParseTimeControl("forty moves")
	assert.Error(t, err)
}
