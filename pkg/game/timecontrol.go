package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeControl represents a PGN TimeControl tag: an optional moves-per-session
// count, a base time and an optional per-move increment.
type TimeControl struct {
	Moves     int // 0 == rest of game
	Base      time.Duration
	Increment time.Duration
}

// ParseTimeControl parses a structured TimeControl expression, such as "40/9000",
// "300+3", "600" or "40/5400+30". The tokens "?" and "-" parse to the zero value.
func ParseTimeControl(str string) (TimeControl, error) {
	var ret TimeControl

	expr := strings.TrimSpace(str)
	if expr == "" || expr == "?" || expr == "-" {
		return ret, nil
	}

	if idx := strings.Index(expr, "/"); idx >= 0 {
		moves, err := strconv.Atoi(expr[:idx])
		if err != nil || moves <= 0 {
			return ret, fmt.Errorf("invalid time control: '%v'", str)
		}
		ret.Moves = moves
		expr = expr[idx+1:]
	}

	if idx := strings.Index(expr, "+"); idx >= 0 {
		inc, err := strconv.Atoi(expr[idx+1:])
		if err != nil || inc < 0 {
			return ret, fmt.Errorf("invalid time control: '%v'", str)
		}
		ret.Increment = time.Duration(inc) * time.Second
		expr = expr[:idx]
	}

	base, err := strconv.Atoi(expr)
	if err != nil || base < 0 {
		return TimeControl{}, fmt.Errorf("invalid time control: '%v'", str)
	}
	ret.Base = time.Duration(base) * time.Second

	return ret, nil
}

func (t TimeControl) String() string {
	if t.Moves == 0 && t.Base == 0 && t.Increment == 0 {
		return "-"
	}

	var sb strings.Builder
	if t.Moves > 0 {
		sb.WriteString(strconv.Itoa(t.Moves))
		sb.WriteString("/")
	}
	sb.WriteString(strconv.Itoa(int(t.Base.Seconds())))
	if t.Increment > 0 {
		sb.WriteString("+")
		sb.WriteString(strconv.Itoa(int(t.Increment.Seconds())))
	}
	return sb.String()
}
