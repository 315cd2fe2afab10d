package pgn

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/gambit/pkg/game"
	"github.com/seekerror/stdlib/pkg/lang"
)

var (
	// Lichess-style bracket annotations.
	clkRE  = regexp.MustCompile(`\[%clk\s+(\d+):(\d+):(\d+(?:\.\d+)?)\]`)
	evalRE = regexp.MustCompile(`\[%eval\s+(?:#(-?\d+)|(-?\d+(?:\.\d+)?))(?:,(\d+))?\]`)
	emtRE  = regexp.MustCompile(`\[%emt\s+(?:(\d+):(\d+):)?(\d+(?:\.\d+)?)\]`)

	// TCEC-style comma-separated key=value pairs.
	tcecPairRE = regexp.MustCompile(`^(\w+)=(.*)$`)

	// Cutechess-style "score/depth timeSec" line.
	cutechessRE = regexp.MustCompile(`^([+-]?M?\d+(?:\.\d+)?)/(\d+)\s+(\d+(?:\.\d+)?)s?$`)
)

// parseComment extracts recognized annotations into the move's typed attributes
// and leaves any remaining free-form text as the comment.
func parseComment(m *game.ExtendedMove, text string) {
	rest := text

	rest = clkRE.ReplaceAllStringFunc(rest, func(match string) string {
		groups := clkRE.FindStringSubmatch(match)
		m.Clock = lang.Some(hms(groups[1], groups[2], groups[3]))
		return ""
	})

	rest = evalRE.ReplaceAllStringFunc(rest, func(match string) string {
		groups := evalRE.FindStringSubmatch(match)
		if groups[1] != "" {
			mate, _ := strconv.Atoi(groups[1])
			m.Mate = lang.Some(mate)
		} else {
			pawns, _ := strconv.ParseFloat(groups[2], 64)
			m.Eval = lang.Some(int(math.Round(pawns * 100)))
		}
		if groups[3] != "" {
			m.Depth, _ = strconv.Atoi(groups[3])
		}
		return ""
	})

	rest = emtRE.ReplaceAllStringFunc(rest, func(match string) string {
		groups := emtRE.FindStringSubmatch(match)
		if groups[1] != "" {
			m.UsedTime = hms(groups[1], groups[2], groups[3])
		} else {
			sec, _ := strconv.ParseFloat(groups[3], 64)
			m.UsedTime = time.Duration(sec * float64(time.Second))
		}
		return ""
	})

	rest = strings.TrimSpace(rest)

	if out, ok := parseTCEC(m, rest); ok {
		rest = out
	} else if cutechessRE.MatchString(rest) {
		groups := cutechessRE.FindStringSubmatch(rest)
		if strings.Contains(groups[1], "M") {
			mate, _ := strconv.Atoi(strings.Replace(strings.Replace(groups[1], "M", "", 1), "+", "", 1))
			m.Mate = lang.Some(mate)
		} else {
			pawns, _ := strconv.ParseFloat(groups[1], 64)
			m.Eval = lang.Some(int(math.Round(pawns * 100)))
		}
		m.Depth, _ = strconv.Atoi(groups[2])
		sec, _ := strconv.ParseFloat(groups[3], 64)
		m.UsedTime = time.Duration(sec * float64(time.Second))
		rest = ""
	}

	m.Comment = strings.TrimSpace(rest)
}

// parseTCEC handles comma-separated key=value annotations. The keys d (depth),
// mt (move time, ms) and tl (time left, ms) are extracted; unrecognized pairs
// are kept verbatim.
func parseTCEC(m *game.ExtendedMove, text string) (string, bool) {
	parts := strings.Split(text, ",")

	type pair struct{ key, value string }
	var pairs []pair
	for _, part := range parts {
		groups := tcecPairRE.FindStringSubmatch(strings.TrimSpace(part))
		if groups == nil {
			return text, false
		}
		pairs = append(pairs, pair{groups[1], groups[2]})
	}
	if len(pairs) == 0 {
		return text, false
	}

	var rest []string
	matched := false
	for _, kv := range pairs {
		switch kv.key {
		case "d":
			m.Depth, _ = strconv.Atoi(kv.value)
			matched = true
		case "mt":
			ms, err := strconv.Atoi(kv.value)
			if err == nil {
				m.UsedTime = time.Duration(ms) * time.Millisecond
			}
			matched = true
		case "tl":
			ms, err := strconv.Atoi(kv.value)
			if err == nil {
				m.Clock = lang.Some(time.Duration(ms) * time.Millisecond)
			}
			matched = true
		default:
			rest = append(rest, kv.key+"="+kv.value)
		}
	}
	if !matched {
		return text, false
	}
	return strings.Join(rest, ", "), true
}

func hms(h, m, s string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.ParseFloat(s, 64)
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second))
}
