package uci

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/seekerror/stdlib/pkg/lang"
)

// ScoreType qualifies an engine evaluation.
type ScoreType uint8

const (
	ScoreExact ScoreType = iota
	ScoreLowerBound
	ScoreUpperBound
	ScoreMate
)

func (t ScoreType) String() string {
	switch t {
	case ScoreLowerBound:
		return "lowerbound"
	case ScoreUpperBound:
		return "upperbound"
	case ScoreMate:
		return "mate"
	default:
		return "exact"
	}
}

// Score is an engine evaluation: centipawns, or moves to mate if Type is
// ScoreMate. Always from the engine's point of view.
type Score struct {
	Value int
	Type  ScoreType
}

func (s Score) String() string {
	if s.Type == ScoreMate {
		return fmt.Sprintf("#%v", s.Value)
	}
	return fmt.Sprintf("%.2f(%v)", float64(s.Value)/100, s.Type)
}

// EngineInfo is a snapshot of one "info" line from the engine. It is a value
// type: the driver keeps one per multipv slot and hands out copies.
type EngineInfo struct {
	Depth    int
	SelDepth int
	Time     time.Duration
	Nodes    uint64
	NPS      uint64
	TBHits   uint64

	MultiPV int // 1-based rank; 0 if not in multipv mode

	CurrMove       board.Move
	CurrMoveNumber int

	// PV is the first move of the principal variation, PVRest the raw remainder.
	PV     board.Move
	PVRest string

	Score lang.Optional[Score]
}

// Update folds one info line into the snapshot. Returns true iff the line
// contained a score.
func (i *EngineInfo) Update(line string) bool {
	args := strings.Fields(line)
	if len(args) > 0 && args[0] == "info" {
		args = args[1:]
	}

	scored := false
	for k := 0; k < len(args); k++ {
		switch args[k] {
		case "depth":
			k++
			i.Depth = atoi(args, k)
		case "seldepth":
			k++
			i.SelDepth = atoi(args, k)
		case "time":
			k++
			i.Time = time.Duration(atoi(args, k)) * time.Millisecond
		case "nodes":
			k++
			i.Nodes = uint64(atoi(args, k))
		case "nps":
			k++
			i.NPS = uint64(atoi(args, k))
		case "tbhits":
			k++
			i.TBHits = uint64(atoi(args, k))
		case "multipv":
			k++
			i.MultiPV = atoi(args, k)
		case "currmove":
			k++
			if k < len(args) {
				if m, err := board.ParseMove(args[k]); err == nil {
					i.CurrMove = m
				}
			}
		case "currmovenumber":
			k++
			i.CurrMoveNumber = atoi(args, k)
		case "score":
			score := Score{}
			for k+1 < len(args) {
				switch args[k+1] {
				case "cp":
					k += 2
					score.Value = atoi(args, k)
				case "mate":
					k += 2
					score.Value = atoi(args, k)
					score.Type = ScoreMate
				case "lowerbound":
					k++
					score.Type = ScoreLowerBound
				case "upperbound":
					k++
					score.Type = ScoreUpperBound
				default:
					goto done
				}
			}
		done:
			i.Score = lang.Some(score)
			scored = true
		case "pv":
			// pv consumes the rest of the line
			if k+1 < len(args) {
				if m, err := board.ParseMove(args[k+1]); err == nil {
					i.PV = m
				}
				i.PVRest = strings.Join(args[k+2:], " ")
			}
			k = len(args)
		}
	}
	return scored
}

func (i EngineInfo) String() string {
	score := "-"
	if s, ok := i.Score.V(); ok {
		score = s.String()
	}
	return fmt.Sprintf("info{depth=%v/%v, time=%v, nodes=%v, score=%v, pv=%v %v}", i.Depth, i.SelDepth, i.Time, i.Nodes, score, i.PV, i.PVRest)
}

func atoi(args []string, k int) int {
	if k >= len(args) {
		return 0
	}
	n, _ := strconv.Atoi(args[k])
	return n
}
