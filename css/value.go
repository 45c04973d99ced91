package css

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"mpdom/dom"
	"mpdom/visual"
)

// ValueKind tells how Value should be interpreted.
type ValueKind int

const (
	KindKeyword ValueKind = iota
	KindLength
	KindNumber
	KindColor
	KindURL
	KindString
	KindFamily
	KindInherit
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string       // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Kind    ValueKind    // What part of the value is meaningful
	Value   float64      // Numeric value if applicable
	Unit    string       // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string       // Keyword if applicable: "bold", "italic", "center", etc.
	Color   visual.Color // Color for KindColor
	URL     string       // Address for KindURL
	Family  []string     // Font families for KindFamily, in preference order
}

// IsNumeric returns true if the value has a numeric component.
func (v Value) IsNumeric() bool {
	return v.Kind == KindLength || v.Kind == KindNumber
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Kind == KindKeyword
}

var absoluteUnits = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

// Pixels resolves length. Percentages are taken of reference, em and ex
// are relative to font size.
func (v Value) Pixels(reference, fontSize int) int {
	var px float64
	switch v.Unit {
	case "%":
		px = float64(reference) * v.Value / 100
	case "em":
		px = float64(fontSize) * v.Value
	case "ex":
		px = float64(fontSize) * v.Value / 2
	default:
		px = v.Value * absoluteUnits[v.Unit]
	}
	if px < 0 {
		return int(px - 0.5)
	}
	return int(px + 0.5)
}

func (v Value) String() string {
	return v.Raw
}

// parseTerm interprets a single significant token.
func parseTerm(tok Token) (Value, error) {
	v := Value{Raw: tok.Data}
	switch tok.Kind {
	case TokenIdent:
		v.Keyword = strings.ToLower(tok.Data)
		if v.Keyword == "inherit" {
			v.Kind = KindInherit
			return v, nil
		}
		if c, err := dom.ParseColor(v.Keyword); err == nil {
			v.Kind, v.Color = KindColor, c
			return v, nil
		}
		v.Kind = KindKeyword
		return v, nil
	case TokenHash:
		c, err := dom.ParseColor(tok.Data)
		if err != nil {
			return v, err
		}
		v.Kind, v.Color = KindColor, c
		return v, nil
	case TokenString:
		v.Kind, v.Keyword = KindString, unquote(tok.Data)
		return v, nil
	case TokenURL:
		v.Kind, v.URL = KindURL, extractURL(tok.Data)
		return v, nil
	case TokenFunction:
		return parseFunction(tok.Data)
	case TokenNumber:
		n, err := strconv.ParseFloat(tok.Data, 64)
		if err != nil {
			return v, err
		}
		v.Value = n
		if n == 0 {
			v.Kind = KindLength
		} else {
			v.Kind = KindNumber
		}
		return v, nil
	case TokenPercentage:
		n, err := strconv.ParseFloat(strings.TrimSuffix(tok.Data, "%"), 64)
		if err != nil {
			return v, err
		}
		v.Kind, v.Value, v.Unit = KindLength, n, "%"
		return v, nil
	case TokenDimension:
		n, unit := parseDimension(tok.Data)
		if _, ok := absoluteUnits[unit]; !ok && unit != "em" && unit != "ex" {
			return v, fmt.Errorf("unknown unit %q", unit)
		}
		v.Kind, v.Value, v.Unit = KindLength, n, unit
		return v, nil
	}
	return v, fmt.Errorf("unexpected %s", tok.Kind)
}

func parseFunction(s string) (Value, error) {
	v := Value{Raw: s}
	name, args := functionArgs(s)
	switch name {
	case "url":
		v.Kind, v.URL = KindURL, extractURL(s)
		return v, nil
	case "rgb":
		if len(args) != 3 {
			return v, fmt.Errorf("rgb() needs 3 arguments: %s", s)
		}
		var c visual.Color
		for _, a := range args {
			ch, err := colorChannel(a)
			if err != nil {
				return v, err
			}
			c = c<<8 | visual.Color(ch)
		}
		v.Kind, v.Color = KindColor, c
		return v, nil
	}
	return v, fmt.Errorf("unsupported function %q", name)
}

func colorChannel(s string) (int, error) {
	percent := strings.HasSuffix(s, "%")
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("bad color component %q", s)
	}
	if percent {
		n = n * 255 / 100
	}
	return int(max(0, min(255, n+0.5))), nil
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// parseFamily turns comma separated list of names (quoted or unquoted
// possibly multi word) into Value.
func parseFamily(tokens []Token) (Value, error) {
	v := Value{Kind: KindFamily, Raw: joinRaw(tokens)}
	var cur []string
	flush := func() error {
		if len(cur) == 0 {
			return fmt.Errorf("empty font family in %q", v.Raw)
		}
		v.Family = append(v.Family, strings.Join(cur, " "))
		cur = cur[:0]
		return nil
	}
	for _, t := range tokens {
		switch t.Kind {
		case TokenWhitespace:
		case TokenIdent:
			cur = append(cur, t.Data)
		case TokenString:
			cur = append(cur, unquote(t.Data))
		case TokenComma:
			if err := flush(); err != nil {
				return v, err
			}
		default:
			return v, fmt.Errorf("unexpected %s in font family", t.Kind)
		}
	}
	if err := flush(); err != nil {
		return v, err
	}
	if len(v.Family) == 1 && strings.EqualFold(v.Family[0], "inherit") {
		v.Kind, v.Family = KindInherit, nil
	}
	return v, nil
}

func joinRaw(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.Kind == TokenWhitespace {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// significant drops whitespace tokens.
func significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != TokenWhitespace {
			out = append(out, t)
		}
	}
	return out
}
