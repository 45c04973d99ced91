package css

import (
	"slices"
	"strings"
)

// Property is a longhand style property. Shorthands are expanded at parse
// time and never stored.
type Property int

const (
	PropUnknown Property = iota

	// display goes first, it may cancel everything else.
	PropDisplay

	PropColor
	PropBackgroundColor
	PropBackgroundImage
	PropBackgroundRepeat
	PropBackgroundAttachment
	PropBackgroundPositionX
	PropBackgroundPositionY

	PropFontFamily
	PropFontSize
	PropFontStyle
	PropFontWeight
	PropFontVariant

	PropTextAlign
	PropTextIndent
	PropTextDecoration
	PropTextTransform
	PropVerticalAlign
	PropWhiteSpace
	PropVisibility
	PropWordSpacing
	PropLineHeight

	PropWidth
	PropHeight

	PropMarginTop
	PropMarginRight
	PropMarginBottom
	PropMarginLeft
	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft

	PropBorderTopWidth
	PropBorderRightWidth
	PropBorderBottomWidth
	PropBorderLeftWidth
	PropBorderTopStyle
	PropBorderRightStyle
	PropBorderBottomStyle
	PropBorderLeftStyle
	PropBorderTopColor
	PropBorderRightColor
	PropBorderBottomColor
	PropBorderLeftColor

	PropListStyleType
	PropListStylePosition
	PropListStyleImage

	PropWapInputFormat
	PropWapInputRequired
	PropWapAccesskey

	propCount
)

// kinds is a set of ValueKind.
type kinds uint16

func kindsOf(k ...ValueKind) kinds {
	var s kinds
	for _, v := range k {
		s |= 1 << v
	}
	return s
}

func (s kinds) has(k ValueKind) bool { return s&(1<<k) != 0 }

type propSpec struct {
	name     string
	kinds    kinds
	keywords []string
	// nonNegative rejects negative lengths and numbers.
	nonNegative bool
}

var (
	boxKinds        = kindsOf(KindLength, KindKeyword)
	colorKinds      = kindsOf(KindColor, KindKeyword)
	borderStyles    = []string{"none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset"}
	borderWidths    = []string{"thin", "medium", "thick"}
	fontSizeWords   = []string{"xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "smaller", "larger"}
	fontWeightWords = []string{"normal", "bold", "bolder", "lighter"}
	repeatWords     = []string{"repeat", "repeat-x", "repeat-y", "no-repeat"}
	listTypes       = []string{"disc", "circle", "square", "decimal", "lower-roman", "upper-roman", "lower-alpha", "upper-alpha", "none"}
)

var props = [propCount]propSpec{
	PropDisplay: {name: "display", kinds: kindsOf(KindKeyword),
		keywords: []string{"inline", "block", "list-item", "none", "run-in", "inline-block", "table", "table-row", "table-cell", "-wap-marquee"}},

	PropColor:                {name: "color", kinds: kindsOf(KindColor)},
	PropBackgroundColor:      {name: "background-color", kinds: colorKinds, keywords: []string{"transparent"}},
	PropBackgroundImage:      {name: "background-image", kinds: kindsOf(KindURL, KindKeyword), keywords: []string{"none"}},
	PropBackgroundRepeat:     {name: "background-repeat", kinds: kindsOf(KindKeyword), keywords: repeatWords},
	PropBackgroundAttachment: {name: "background-attachment", kinds: kindsOf(KindKeyword), keywords: []string{"scroll", "fixed"}},
	PropBackgroundPositionX:  {name: "background-position-x", kinds: boxKinds, keywords: []string{"left", "center", "right"}},
	PropBackgroundPositionY:  {name: "background-position-y", kinds: boxKinds, keywords: []string{"top", "center", "bottom"}},

	PropFontFamily:  {name: "font-family", kinds: kindsOf(KindFamily)},
	PropFontSize:    {name: "font-size", kinds: boxKinds, keywords: fontSizeWords, nonNegative: true},
	PropFontStyle:   {name: "font-style", kinds: kindsOf(KindKeyword), keywords: []string{"normal", "italic", "oblique"}},
	PropFontWeight:  {name: "font-weight", kinds: kindsOf(KindKeyword, KindNumber), keywords: fontWeightWords, nonNegative: true},
	PropFontVariant: {name: "font-variant", kinds: kindsOf(KindKeyword), keywords: []string{"normal", "small-caps"}},

	PropTextAlign:      {name: "text-align", kinds: kindsOf(KindKeyword), keywords: []string{"left", "right", "center", "justify"}},
	PropTextIndent:     {name: "text-indent", kinds: kindsOf(KindLength)},
	PropTextDecoration: {name: "text-decoration", kinds: kindsOf(KindKeyword), keywords: []string{"none", "underline", "overline", "line-through", "blink"}},
	PropTextTransform:  {name: "text-transform", kinds: kindsOf(KindKeyword), keywords: []string{"none", "capitalize", "uppercase", "lowercase"}},
	PropVerticalAlign: {name: "vertical-align", kinds: boxKinds,
		keywords: []string{"baseline", "sub", "super", "top", "text-top", "middle", "bottom", "text-bottom"}},
	PropWhiteSpace:  {name: "white-space", kinds: kindsOf(KindKeyword), keywords: []string{"normal", "pre", "nowrap"}},
	PropVisibility:  {name: "visibility", kinds: kindsOf(KindKeyword), keywords: []string{"visible", "hidden", "collapse"}},
	PropWordSpacing: {name: "word-spacing", kinds: boxKinds, keywords: []string{"normal"}},
	PropLineHeight:  {name: "line-height", kinds: kindsOf(KindLength, KindNumber, KindKeyword), keywords: []string{"normal"}, nonNegative: true},

	PropWidth:  {name: "width", kinds: boxKinds, keywords: []string{"auto"}, nonNegative: true},
	PropHeight: {name: "height", kinds: boxKinds, keywords: []string{"auto"}, nonNegative: true},

	PropMarginTop:     {name: "margin-top", kinds: boxKinds, keywords: []string{"auto"}},
	PropMarginRight:   {name: "margin-right", kinds: boxKinds, keywords: []string{"auto"}},
	PropMarginBottom:  {name: "margin-bottom", kinds: boxKinds, keywords: []string{"auto"}},
	PropMarginLeft:    {name: "margin-left", kinds: boxKinds, keywords: []string{"auto"}},
	PropPaddingTop:    {name: "padding-top", kinds: kindsOf(KindLength), nonNegative: true},
	PropPaddingRight:  {name: "padding-right", kinds: kindsOf(KindLength), nonNegative: true},
	PropPaddingBottom: {name: "padding-bottom", kinds: kindsOf(KindLength), nonNegative: true},
	PropPaddingLeft:   {name: "padding-left", kinds: kindsOf(KindLength), nonNegative: true},

	PropBorderTopWidth:    {name: "border-top-width", kinds: boxKinds, keywords: borderWidths, nonNegative: true},
	PropBorderRightWidth:  {name: "border-right-width", kinds: boxKinds, keywords: borderWidths, nonNegative: true},
	PropBorderBottomWidth: {name: "border-bottom-width", kinds: boxKinds, keywords: borderWidths, nonNegative: true},
	PropBorderLeftWidth:   {name: "border-left-width", kinds: boxKinds, keywords: borderWidths, nonNegative: true},
	PropBorderTopStyle:    {name: "border-top-style", kinds: kindsOf(KindKeyword), keywords: borderStyles},
	PropBorderRightStyle:  {name: "border-right-style", kinds: kindsOf(KindKeyword), keywords: borderStyles},
	PropBorderBottomStyle: {name: "border-bottom-style", kinds: kindsOf(KindKeyword), keywords: borderStyles},
	PropBorderLeftStyle:   {name: "border-left-style", kinds: kindsOf(KindKeyword), keywords: borderStyles},
	PropBorderTopColor:    {name: "border-top-color", kinds: colorKinds, keywords: []string{"transparent"}},
	PropBorderRightColor:  {name: "border-right-color", kinds: colorKinds, keywords: []string{"transparent"}},
	PropBorderBottomColor: {name: "border-bottom-color", kinds: colorKinds, keywords: []string{"transparent"}},
	PropBorderLeftColor:   {name: "border-left-color", kinds: colorKinds, keywords: []string{"transparent"}},

	PropListStyleType:     {name: "list-style-type", kinds: kindsOf(KindKeyword), keywords: listTypes},
	PropListStylePosition: {name: "list-style-position", kinds: kindsOf(KindKeyword), keywords: []string{"inside", "outside"}},
	PropListStyleImage:    {name: "list-style-image", kinds: kindsOf(KindURL, KindKeyword), keywords: []string{"none"}},

	PropWapInputFormat:   {name: "-wap-input-format", kinds: kindsOf(KindString)},
	PropWapInputRequired: {name: "-wap-input-required", kinds: kindsOf(KindKeyword), keywords: []string{"true", "false"}},
	PropWapAccesskey:     {name: "-wap-accesskey", kinds: kindsOf(KindString, KindKeyword, KindNumber)},
}

var propIndex = func() map[string]Property {
	m := make(map[string]Property, propCount)
	for p := PropDisplay; p < propCount; p++ {
		m[props[p].name] = p
	}
	return m
}()

// LookupProperty resolves longhand property name.
func LookupProperty(name string) Property {
	return propIndex[strings.ToLower(name)]
}

func (p Property) String() string {
	if p > PropUnknown && p < propCount {
		return props[p].name
	}
	return "unknown"
}

// Side groups, in top, right, bottom, left order.
var (
	MarginSides      = [4]Property{PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft}
	PaddingSides     = [4]Property{PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft}
	BorderWidthSides = [4]Property{PropBorderTopWidth, PropBorderRightWidth, PropBorderBottomWidth, PropBorderLeftWidth}
	BorderStyleSides = [4]Property{PropBorderTopStyle, PropBorderRightStyle, PropBorderBottomStyle, PropBorderLeftStyle}
	BorderColorSides = [4]Property{PropBorderTopColor, PropBorderRightColor, PropBorderBottomColor, PropBorderLeftColor}
)

// accept checks parsed value against property definition.
func (p Property) accept(v Value) bool {
	spec := props[p]
	if v.Kind == KindInherit {
		return true
	}
	if !spec.kinds.has(v.Kind) {
		return false
	}
	switch v.Kind {
	case KindKeyword:
		if p == PropTextDecoration {
			for w := range strings.FieldsSeq(v.Keyword) {
				if !slices.Contains(spec.keywords, w) {
					return false
				}
			}
			return true
		}
		return slices.Contains(spec.keywords, v.Keyword)
	case KindLength, KindNumber:
		if spec.nonNegative && v.Value < 0 {
			return false
		}
		if p == PropFontWeight && v.Kind == KindNumber {
			n := int(v.Value)
			return float64(n) == v.Value && n >= 100 && n <= 900 && n%100 == 0
		}
	}
	return true
}
