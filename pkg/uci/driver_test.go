package uci

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return &Engine{
		options: map[string]Option{},
		info:    make([]EngineInfo, 1),
		exited:  make(chan struct{}),
	}
}

func TestHandleIdentification(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	e.handle(ctx, "id name Stockfish 16")
	e.handle(ctx, "id author the Stockfish developers")
	e.handle(ctx, "option name Hash type spin default 16 min 1 max 33554432")
	e.handle(ctx, "option name Ponder type check default false")

	assert.Equal(t, "Stockfish 16", e.Name())
	assert.Equal(t, "the Stockfish developers", e.Author())

	opts := e.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, SpinType, opts["Hash"].Type)
	assert.Equal(t, 16, opts["Hash"].Spin.Default)
}

func TestHandleHandshakeCompletions(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	uciok := newCompletion()
	e.uciok = uciok
	e.handle(ctx, "uciok")
	assert.NoError(t, uciok.await(ctx))

	readyok := newCompletion()
	e.readyok = readyok
	e.handle(ctx, "isready typo") // unknown line must not complete anything
	select {
	case <-readyok.done.Closed():
		t.Fatal("completed by unrelated line")
	default:
	}

	e.handle(ctx, "readyok")
	assert.NoError(t, readyok.await(ctx))
}

func TestHandleInfoRouting(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	e.info = make([]EngineInfo, 2)

	var observed []EngineInfo
	e.OnInfo = func(info EngineInfo) {
		observed = append(observed, info)
	}

	e.handle(ctx, "info depth 10 multipv 1 score cp 35 pv e2e4")
	e.handle(ctx, "info depth 10 multipv 2 score cp -15 pv d2d4")
	e.handle(ctx, "info string NNUE evaluation enabled") // ignored
	e.handle(ctx, "info depth 11 multipv 1 nodes 500")   // no score: no observation

	first, ok := e.AnalysisInfo(0)
	require.True(t, ok)
	assert.Equal(t, 11, first.Depth)

	second, ok := e.AnalysisInfo(1)
	require.True(t, ok)
	score, _ := second.Score.V()
	assert.Equal(t, -15, score.Value)

	require.Len(t, observed, 2)
	assert.Equal(t, "e2e4", observed[0].PV.String())
	assert.Equal(t, "d2d4", observed[1].PV.String())
}

func TestHandleInfoGrowsSlots(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	e.handle(ctx, "info multipv 3 score cp 1 pv a2a3")

	info, ok := e.AnalysisInfo(2)
	require.True(t, ok)
	assert.Equal(t, "a2a3", info.PV.String())
}

func TestHandleBestMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	e.state.Store(int32(Thinking))
	e.turn = board.White
	e.bestmove = newCompletion()

	e.handle(ctx, "info depth 21 time 9800 score cp 57 pv c3e4 d4f5")
	e.handle(ctx, "bestmove c3e4 ponder d4f5")

	assert.Equal(t, Ready, e.State())

	best, ok := e.BestMove()
	require.True(t, ok)
	assert.Equal(t, "c3e4", best.Move.String())
	assert.Equal(t, board.White, best.Turn)
	assert.Equal(t, 21, best.Depth)
	assert.Equal(t, 9800*time.Millisecond, best.UsedTime)

	cp, ok := best.Eval.V()
	require.True(t, ok)
	assert.Equal(t, 57, cp)

	ponder, ok := e.Ponder()
	require.True(t, ok)
	assert.Equal(t, "d4f5", ponder.String())

	move, err := e.WaitBestMove(ctx)
	require.NoError(t, err)
	assert.True(t, best.Move.Equals(move.Move))
}

func TestHandleBestMoveMate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	e.state.Store(int32(Thinking))
	e.turn = board.Black
	e.bestmove = newCompletion()

	e.handle(ctx, "info depth 30 score mate 5 pv h7h8q")
	e.handle(ctx, "bestmove h7h8q")

	best, ok := e.BestMove()
	require.True(t, ok)
	assert.Equal(t, board.Queen, best.Promotion)

	mate, ok := best.Mate.V()
	require.True(t, ok)
	assert.Equal(t, 5, mate)
	assert.Equal(t, lang.Optional[int]{}, best.Eval)
}

func TestShutdownFailsPending(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	e.state.Store(int32(Thinking))
	e.bestmove = newCompletion()
	e.readyok = newCompletion()

	e.shutdown(ctx)

	assert.Equal(t, Off, e.State())
	assert.ErrorIs(t, e.bestmove.await(ctx), ErrProcessExited)
	assert.ErrorIs(t, e.readyok.await(ctx), ErrProcessExited)

	_, err := e.WaitBestMove(ctx)
	assert.Error(t, err)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "off", Off.String())
	assert.Equal(t, "thinking", Thinking.String())
}

func TestCommandsRequireState(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	assert.ErrorIs(t, e.SetOptions(ctx, nil), ErrBadState)
	assert.ErrorIs(t, e.NewGame(ctx), ErrBadState)
	assert.ErrorIs(t, e.StartAnalysis(ctx, InfiniteLimits()), ErrBadState)
	assert.ErrorIs(t, e.StopThinking(ctx), ErrBadState)
	assert.ErrorIs(t, e.SetPosition(ctx, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"), ErrBadState)
}

func TestNewEngineNotFound(t *testing.T) {
	_, err := NewEngine("/no/such/engine/binary")
	assert.ErrorIs(t, err, ErrEngineNotFound)
}
