package css

import (
	"fmt"
	"slices"
	"strings"
)

// Declarations is the resolved set of longhand values of a rule.
type Declarations map[Property]Value

type expander func(d Declarations, words []Value, tokens []Token) error

var shorthands = map[string]expander{
	"margin":        boxExpander(MarginSides),
	"padding":       boxExpander(PaddingSides),
	"border-width":  boxExpander(BorderWidthSides),
	"border-style":  boxExpander(BorderStyleSides),
	"border-color":  boxExpander(BorderColorSides),
	"border":        borderExpander(0, 1, 2, 3),
	"border-top":    borderExpander(0),
	"border-right":  borderExpander(1),
	"border-bottom": borderExpander(2),
	"border-left":   borderExpander(3),
	"font":          expandFont,
	"background":    expandBackground,
	"list-style":    expandListStyle,
	"background-position": func(d Declarations, words []Value, _ []Token) error {
		return expandPosition(d, words)
	},
}

// IsShorthand returns true for property names expanded into longhands.
func IsShorthand(name string) bool {
	_, ok := shorthands[strings.ToLower(name)]
	return ok
}

func set(d Declarations, p Property, v Value) error {
	if !p.accept(v) {
		return fmt.Errorf("%q is not valid for %s", v.Raw, p)
	}
	d[p] = v
	return nil
}

// boxExpander expands a CSS box model shorthand to individual properties.
// CSS shorthand formats:
//   - 1 value: all sides
//   - 2 values: top/bottom, left/right
//   - 3 values: top, left/right, bottom
//   - 4 values: top, right, bottom, left
func boxExpander(sides [4]Property) expander {
	return func(d Declarations, words []Value, _ []Token) error {
		var top, right, bottom, left Value
		switch len(words) {
		case 1:
			top, right, bottom, left = words[0], words[0], words[0], words[0]
		case 2:
			top, bottom = words[0], words[0]
			right, left = words[1], words[1]
		case 3:
			top = words[0]
			right, left = words[1], words[1]
			bottom = words[2]
		case 4:
			top, right, bottom, left = words[0], words[1], words[2], words[3]
		default:
			return fmt.Errorf("box shorthand takes 1 to 4 values, got %d", len(words))
		}
		// validate all sides before storing any
		tmp := Declarations{}
		for i, v := range [4]Value{top, right, bottom, left} {
			if err := set(tmp, sides[i], v); err != nil {
				return err
			}
		}
		for p, v := range tmp {
			d[p] = v
		}
		return nil
	}
}

// borderExpander handles border and border-<side>: width, style and color in
// any order, each at most once.
func borderExpander(sides ...int) expander {
	return func(d Declarations, words []Value, _ []Token) error {
		if len(words) == 0 || len(words) > 3 {
			return fmt.Errorf("border shorthand takes 1 to 3 values, got %d", len(words))
		}
		var width, style, color *Value
		for i := range words {
			w := &words[i]
			switch {
			case w.Kind == KindInherit:
				width, style, color = w, w, w
			case width == nil && BorderWidthSides[0].accept(*w):
				width = w
			case style == nil && BorderStyleSides[0].accept(*w):
				style = w
			case color == nil && BorderColorSides[0].accept(*w):
				color = w
			default:
				return fmt.Errorf("unexpected border component %q", w.Raw)
			}
		}
		for _, s := range sides {
			if width != nil {
				d[BorderWidthSides[s]] = *width
			}
			if style != nil {
				d[BorderStyleSides[s]] = *style
			}
			if color != nil {
				d[BorderColorSides[s]] = *color
			}
		}
		return nil
	}
}

var systemFonts = map[string]string{
	"caption":       "medium",
	"icon":          "medium",
	"menu":          "medium",
	"message-box":   "medium",
	"small-caption": "small",
	"status-bar":    "small",
}

// expandFont handles [style] [variant] [weight] size[/line-height] family.
func expandFont(d Declarations, words []Value, tokens []Token) error {
	if len(words) == 1 {
		if words[0].Kind == KindInherit {
			for _, p := range []Property{PropFontStyle, PropFontVariant, PropFontWeight, PropFontSize, PropLineHeight, PropFontFamily} {
				d[p] = words[0]
			}
			return nil
		}
		if size, ok := systemFonts[words[0].Keyword]; ok {
			d[PropFontSize] = Value{Raw: size, Keyword: size}
			return nil
		}
	}

	tmp := Declarations{}
	var sig []Token
	var pos []int
	for i, t := range tokens {
		if t.Kind != TokenWhitespace {
			sig = append(sig, t)
			pos = append(pos, i)
		}
	}
	i := 0
	for ; i < len(sig) && i < 3; i++ {
		v, err := parseTerm(sig[i])
		if err != nil || v.Kind != KindKeyword && v.Kind != KindNumber {
			break
		}
		if v.Keyword == "normal" {
			continue
		}
		var placed bool
		for _, p := range []Property{PropFontStyle, PropFontVariant, PropFontWeight} {
			if _, seen := tmp[p]; !seen && p.accept(v) {
				tmp[p], placed = v, true
				break
			}
		}
		if !placed {
			break
		}
	}
	if i >= len(sig) {
		return fmt.Errorf("font size missing")
	}
	size, err := parseTerm(sig[i])
	if err != nil {
		return err
	}
	if err := set(tmp, PropFontSize, size); err != nil {
		return err
	}
	i++
	if i+1 < len(sig) && sig[i].Is(TokenDelim, "/") {
		lh, err := parseTerm(sig[i+1])
		if err != nil {
			return err
		}
		if err := set(tmp, PropLineHeight, lh); err != nil {
			return err
		}
		i += 2
	}
	if i >= len(sig) {
		return fmt.Errorf("font family missing")
	}
	fam, err := parseFamily(tokens[pos[i]:])
	if err != nil {
		return err
	}
	tmp[PropFontFamily] = fam
	for p, v := range tmp {
		d[p] = v
	}
	return nil
}

func expandBackground(d Declarations, words []Value, _ []Token) error {
	if len(words) == 1 && words[0].Kind == KindInherit {
		for _, p := range []Property{PropBackgroundColor, PropBackgroundImage, PropBackgroundRepeat, PropBackgroundAttachment, PropBackgroundPositionX, PropBackgroundPositionY} {
			d[p] = words[0]
		}
		return nil
	}
	tmp := Declarations{}
	var position []Value
	for _, w := range words {
		switch {
		case w.Kind == KindColor || w.Keyword == "transparent":
			if _, seen := tmp[PropBackgroundColor]; seen {
				return fmt.Errorf("background color given twice")
			}
			tmp[PropBackgroundColor] = w
		case w.Kind == KindURL || w.Keyword == "none":
			tmp[PropBackgroundImage] = w
		case PropBackgroundRepeat.accept(w):
			tmp[PropBackgroundRepeat] = w
		case PropBackgroundAttachment.accept(w):
			tmp[PropBackgroundAttachment] = w
		case w.Kind == KindLength || w.Kind == KindKeyword && slices.Contains(positionWords, w.Keyword):
			position = append(position, w)
		default:
			return fmt.Errorf("unexpected background component %q", w.Raw)
		}
	}
	if len(position) > 0 {
		if err := expandPosition(tmp, position); err != nil {
			return err
		}
	}
	for p, v := range tmp {
		d[p] = v
	}
	return nil
}

var positionWords = []string{"left", "right", "top", "bottom", "center"}

// expandPosition sets horizontal and vertical background position from one
// or two values. Keywords may come in either order.
func expandPosition(d Declarations, words []Value) error {
	center := Value{Raw: "center", Keyword: "center"}
	var x, y Value
	switch len(words) {
	case 1:
		w := words[0]
		switch w.Keyword {
		case "top", "bottom":
			x, y = center, w
		default:
			x, y = w, center
		}
	case 2:
		x, y = words[0], words[1]
		if x.Keyword == "top" || x.Keyword == "bottom" || y.Keyword == "left" || y.Keyword == "right" {
			x, y = y, x
		}
	default:
		return fmt.Errorf("background position takes 1 or 2 values, got %d", len(words))
	}
	tmp := Declarations{}
	if err := set(tmp, PropBackgroundPositionX, x); err != nil {
		return err
	}
	if err := set(tmp, PropBackgroundPositionY, y); err != nil {
		return err
	}
	for p, v := range tmp {
		d[p] = v
	}
	return nil
}

func expandListStyle(d Declarations, words []Value, _ []Token) error {
	tmp := Declarations{}
	nones := 0
	for _, w := range words {
		switch {
		case w.Kind == KindInherit:
			tmp[PropListStyleType], tmp[PropListStylePosition], tmp[PropListStyleImage] = w, w, w
		case w.Keyword == "none":
			nones++
		case PropListStyleType.accept(w):
			tmp[PropListStyleType] = w
		case PropListStylePosition.accept(w):
			tmp[PropListStylePosition] = w
		case w.Kind == KindURL:
			tmp[PropListStyleImage] = w
		default:
			return fmt.Errorf("unexpected list-style component %q", w.Raw)
		}
	}
	none := Value{Raw: "none", Keyword: "none"}
	for ; nones > 0; nones-- {
		if _, ok := tmp[PropListStyleType]; !ok {
			tmp[PropListStyleType] = none
		} else if _, ok := tmp[PropListStyleImage]; !ok {
			tmp[PropListStyleImage] = none
		} else {
			return fmt.Errorf("too many none values in list-style")
		}
	}
	for p, v := range tmp {
		d[p] = v
	}
	return nil
}
