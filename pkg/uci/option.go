package uci

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionType is the UCI option type: check, spin, combo, button or string.
type OptionType uint8

const (
	CheckType OptionType = iota
	SpinType
	ComboType
	ButtonType
	StringType
)

func ParseOptionType(str string) (OptionType, bool) {
	switch str {
	case "check":
		return CheckType, true
	case "spin":
		return SpinType, true
	case "combo":
		return ComboType, true
	case "button":
		return ButtonType, true
	case "string":
		return StringType, true
	default:
		return 0, false
	}
}

func (t OptionType) String() string {
	switch t {
	case CheckType:
		return "check"
	case SpinType:
		return "spin"
	case ComboType:
		return "combo"
	case ButtonType:
		return "button"
	case StringType:
		return "string"
	default:
		return "?"
	}
}

// Option is an engine option declared during startup. The base record carries
// the name and type; the variant for that type holds the payload.
type Option struct {
	Name string
	Type OptionType

	Check  CheckOption  // valid iff Type == CheckType
	Spin   SpinOption   // valid iff Type == SpinType
	Combo  ComboOption  // valid iff Type == ComboType
	String StringOption // valid iff Type == StringType
}

type CheckOption struct {
	Default bool
}

type SpinOption struct {
	Default, Min, Max int
}

type ComboOption struct {
	Default string
	Vars    []string
}

type StringOption struct {
	Default string
}

// ParseOption parses the remainder of an "option" line, such as:
//
//	name Hash type spin default 16 min 1 max 33554432
//	name Ponder type check default false
//	name SyzygyPath type string default <empty>
//
// Names and values may contain spaces; the keywords name, type, default, min,
// max and var delimit the fields.
func ParseOption(args []string) (Option, error) {
	var ret Option

	var typ, def, min, max string
	for i := 0; i < len(args); i++ {
		value, skip := scanValue(args[i+1:])
		switch args[i] {
		case "name":
			ret.Name = value
		case "type":
			typ = value
		case "default":
			def = value
		case "min":
			min = value
		case "max":
			max = value
		case "var":
			ret.Combo.Vars = append(ret.Combo.Vars, value)
		default:
			continue // unknown keyword: skip token
		}
		i += skip
	}

	if ret.Name == "" {
		return Option{}, fmt.Errorf("option without name: %v", strings.Join(args, " "))
	}
	t, ok := ParseOptionType(typ)
	if !ok {
		return Option{}, fmt.Errorf("option '%v' with invalid type '%v'", ret.Name, typ)
	}
	ret.Type = t

	switch t {
	case CheckType:
		ret.Check.Default = def == "true"
	case SpinType:
		ret.Spin.Default, _ = strconv.Atoi(def)
		ret.Spin.Min, _ = strconv.Atoi(min)
		ret.Spin.Max, _ = strconv.Atoi(max)
	case ComboType:
		ret.Combo.Default = def
	case StringType:
		ret.String.Default = def
	}
	return ret, nil
}

func (o Option) Describe() string {
	switch o.Type {
	case CheckType:
		return fmt.Sprintf("%v(check, default=%v)", o.Name, o.Check.Default)
	case SpinType:
		return fmt.Sprintf("%v(spin, default=%v, min=%v, max=%v)", o.Name, o.Spin.Default, o.Spin.Min, o.Spin.Max)
	case ComboType:
		return fmt.Sprintf("%v(combo, default=%v, var=%v)", o.Name, o.Combo.Default, o.Combo.Vars)
	case ButtonType:
		return fmt.Sprintf("%v(button)", o.Name)
	default:
		return fmt.Sprintf("%v(string, default=%v)", o.Name, o.String.Default)
	}
}

// scanValue joins tokens until the next option keyword. "<empty>" reads as the
// empty string.
func scanValue(args []string) (string, int) {
	keywords := map[string]bool{"name": true, "type": true, "default": true, "min": true, "max": true, "var": true}

	i := 0
	for ; i < len(args); i++ {
		if keywords[args[i]] {
			break
		}
	}

	ret := strings.Join(args[:i], " ")
	if ret == "<empty>" {
		ret = ""
	}
	return ret, i
}
