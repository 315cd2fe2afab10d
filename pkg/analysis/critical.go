// Package analysis contains batch game analysis on top of the UCI driver.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/board/fen"
	"github.com/herohde/gambit/pkg/game"
	"github.com/herohde/gambit/pkg/uci"
	"github.com/seekerror/logw"
)

// swingThreshold is the evaluation swing, in centipawns, that marks a position
// as critical.
const swingThreshold = 300

// CriticalPosition is a position where the engine evaluation swung by more than
// the threshold.
type CriticalPosition struct {
	// Side is the side to move, opposite of the side that just moved.
	Side board.Color
	// BestMove is the engine's preferred move in the position.
	BestMove game.ExtendedMove
	// FEN is the position.
	FEN string
}

func (c CriticalPosition) String() string {
	return fmt.Sprintf("%v to move: best %v in %v", c.Side, c.BestMove.Move, c.FEN)
}

// FindCriticalPositions replays the game through the engine one move at a time,
// analysing each position for the given think time, and extracts the positions
// where the absolute evaluation changed by more than 300 centipawns. The engine
// must be Ready.
//
// Note that the swing is computed as abs(abs(prev)-abs(cur)), so a sign flip at
// equal magnitude does not register.
func FindCriticalPositions(ctx context.Context, e *uci.Engine, g *game.Game, think time.Duration) ([]CriticalPosition, error) {
	var ret []CriticalPosition

	pos, err := fen.Decode(g.StartFEN())
	if err != nil {
		return nil, err
	}

	scorePrev := 0
	var moves []string

	for i, m := range g.Moves() {
		moves = append(moves, m.Move.String())
		mv := m.Move
		pos.Make(&mv)

		if err := e.SetPosition(ctx, g.StartFEN(), moves...); err != nil {
			return ret, err
		}
		if err := e.StartAnalysis(ctx, uci.InfiniteLimits()); err != nil {
			return ret, err
		}

		select {
		case <-time.After(think):
		case <-ctx.Done():
			_ = e.StopThinking(ctx)
			return ret, ctx.Err()
		}

		if err := e.StopThinking(ctx); err != nil {
			return ret, err
		}

		scoreCur := scorePrev
		if info, ok := e.AnalysisInfo(0); ok {
			if score, ok := info.Score.V(); ok {
				scoreCur = score.Value
			}
		}

		if delta := swing(scorePrev, scoreCur); delta > swingThreshold {
			best, _ := e.BestMove()
			cp := CriticalPosition{
				Side:     m.Turn.Opponent(),
				BestMove: best,
				FEN:      fen.Encode(pos),
			}
			ret = append(ret, cp)
			logw.Infof(ctx, "Critical position after ply %v (swing %v): %v", i+1, delta, cp)
		}
		scorePrev = scoreCur
	}

	return ret, nil
}

// swing is the fixed policy: the change in evaluation magnitude, regardless of
// which side is ahead.
func swing(prev, cur int) int {
	return abs(abs(prev) - abs(cur))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
