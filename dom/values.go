package dom

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"mpdom/visual"
)

// namedColors is the HTML 4 color vocabulary.
var namedColors = map[string]visual.Color{
	"black":   0x000000,
	"silver":  0xC0C0C0,
	"gray":    0x808080,
	"white":   0xFFFFFF,
	"maroon":  0x800000,
	"red":     0xFF0000,
	"purple":  0x800080,
	"fuchsia": 0xFF00FF,
	"green":   0x008000,
	"lime":    0x00FF00,
	"olive":   0x808000,
	"yellow":  0xFFFF00,
	"navy":    0x000080,
	"blue":    0x0000FF,
	"teal":    0x008080,
	"aqua":    0x00FFFF,
}

// ParseColor understands #rgb, #rrggbb and named colors.
func ParseColor(s string) (visual.Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("not a color: %q", s)
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		var sb strings.Builder
		for _, r := range hex {
			sb.WriteRune(r)
			sb.WriteRune(r)
		}
		hex = sb.String()
	case 6:
	default:
		return 0, fmt.Errorf("bad color length: %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad color digits %q: %w", s, err)
	}
	return visual.Color(v), nil
}

// Length is a dimension given either in pixels or in percent.
type Length struct {
	Value   int
	Percent bool
}

// Resolve returns length in pixels against reference.
func (l Length) Resolve(reference int) int {
	if l.Percent {
		return reference * l.Value / 100
	}
	return l.Value
}

func (l Length) String() string {
	if l.Percent {
		return strconv.Itoa(l.Value) + "%"
	}
	return strconv.Itoa(l.Value)
}

// ParseLength parses attribute length: an integer number of pixels,
// optionally followed by "px", or a percentage.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	var l Length
	switch {
	case strings.HasSuffix(s, "%"):
		l.Percent = true
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToLower(s), "px"):
		s = s[:len(s)-2]
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return Length{}, fmt.Errorf("not a length: %q", s)
	}
	l.Value = v
	return l, nil
}

// validate checks attribute value against attribute kind. Value is stored
// as written, consumers parse it on read.
func validate(t Tag, a Attr, value string) error {
	spec, ok := attrSpecs[a]
	if !ok {
		spec = attrSpec{kind: kindText}
	}
	if a == AttrType && t == TagInput {
		spec = attrSpec{kind: kindEnum, values: inputTypes}
	}
	switch spec.kind {
	case kindTokens:
		if len(strings.Fields(value)) == 0 {
			return fmt.Errorf("empty value")
		}
	case kindInt:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err != nil || n < 0 {
			return fmt.Errorf("not a non-negative integer: %q", value)
		}
	case kindLength:
		if _, err := ParseLength(value); err != nil {
			return err
		}
	case kindColor:
		if _, err := ParseColor(value); err != nil {
			return err
		}
	case kindURI:
		if strings.ContainsAny(value, "<>\"") {
			return fmt.Errorf("not a URI: %q", value)
		}
	case kindLang:
		if _, err := language.Parse(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("not a language tag %q: %w", value, err)
		}
	case kindEnum:
		if !slices.Contains(spec.values, strings.ToLower(strings.TrimSpace(value))) {
			return fmt.Errorf("%q is not one of %s", value, strings.Join(spec.values, ", "))
		}
	case kindBool:
		if v := strings.ToLower(strings.TrimSpace(value)); v != "" && v != a.String() {
			return fmt.Errorf("boolean attribute value must be %q", a.String())
		}
	case kindChar:
		if r := []rune(value); len(r) != 1 {
			return fmt.Errorf("single character expected: %q", value)
		}
	}
	return nil
}
