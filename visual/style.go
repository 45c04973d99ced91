package visual

import "fmt"

// Color is 0xRRGGBB.
type Color uint32

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// Side of a box.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

var sideNames = [...]string{"top", "right", "bottom", "left"}

func (s Side) String() string {
	if s >= 0 && int(s) < len(sideNames) {
		return sideNames[s]
	}
	return "unknown"
}

// Sides in shorthand order.
var Sides = [4]Side{Top, Right, Bottom, Left}

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

var alignNames = [...]string{"left", "center", "right", "justify"}

func (a Alignment) String() string {
	if a >= 0 && int(a) < len(alignNames) {
		return alignNames[a]
	}
	return "unknown"
}

type VAlignment int

const (
	VAlignBaseline VAlignment = iota
	VAlignTop
	VAlignMiddle
	VAlignBottom
	VAlignSub
	VAlignSuper
)

// Decoration is a set of text decorations.
type Decoration uint8

const (
	DecorationUnderline Decoration = 1 << iota
	DecorationOverline
	DecorationLineThrough
)

type FontStyle int

const (
	FontStyleNormal FontStyle = iota
	FontStyleItalic
)

type FontWeight int

const (
	FontWeightNormal FontWeight = iota
	FontWeightBold
)

// Font describes font along four axes used for matching.
type Font struct {
	Family string
	Size   int
	Style  FontStyle
	Weight FontWeight
	Caps   bool
}

func (f Font) String() string {
	s := fmt.Sprintf("%s %dpx", f.Family, f.Size)
	if f.Style == FontStyleItalic {
		s += " italic"
	}
	if f.Weight == FontWeightBold {
		s += " bold"
	}
	if f.Caps {
		s += " small-caps"
	}
	return s
}

type BorderStyle int

const (
	BorderNone BorderStyle = iota
	BorderSolid
	BorderDashed
	BorderDotted
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
	BorderHidden
)

var borderStyleNames = [...]string{"none", "solid", "dashed", "dotted", "double", "groove", "ridge", "inset", "outset", "hidden"}

func (b BorderStyle) String() string {
	if b >= 0 && int(b) < len(borderStyleNames) {
		return borderStyleNames[b]
	}
	return "unknown"
}

// BorderSide describes one side of a border. Zero Width with non-none style
// means "use default width".
type BorderSide struct {
	Width    int
	Style    BorderStyle
	Color    Color
	HasColor bool
}

// Border is a composite of up to four sides.
type Border struct {
	Sides [4]*BorderSide
}

// Side returns side, creating it when necessary.
func (b *Border) Side(s Side) *BorderSide {
	if b.Sides[s] == nil {
		b.Sides[s] = &BorderSide{Style: BorderSolid}
	}
	return b.Sides[s]
}

// Empty returns true when no side is visible.
func (b *Border) Empty() bool {
	if b == nil {
		return true
	}
	for _, s := range b.Sides {
		if s != nil && s.Style != BorderNone && s.Style != BorderHidden {
			return false
		}
	}
	return true
}

// Image is a resolved image resource.
type Image struct {
	URL    string
	Kind   string
	Width  int
	Height int
	Data   []byte
}

type Repeat int

const (
	RepeatBoth Repeat = iota
	RepeatX
	RepeatY
	RepeatNone
)

// Style is a mutable bag of presentation attributes for one bucket. Styles
// may be shared between several nodes.
type Style struct {
	FgColor       Color
	BgColor       Color
	BgTransparent bool
	BgImage       *Image
	BgRepeat      Repeat
	BgFixed       bool
	BgPosX        int
	BgPosY        int

	Font *Font

	Margin  [4]int
	Padding [4]int
	Border  *Border

	Align      Alignment
	VAlign     VAlignment
	Decoration Decoration
	Indent     int

	// Width and Height are fixed sizes; zero means automatic.
	Width  int
	Height int

	LineHeight  int
	WordSpacing int

	ListType   string
	ListInside bool
	ListImage  *Image

	// Input hints for form controls and links.
	InputFormat   string
	InputRequired bool
	AccessKey     string
}

// NewStyle returns style with opaque white background and black text.
func NewStyle(font *Font) *Style {
	return &Style{FgColor: 0x000000, BgColor: 0xFFFFFF, BgTransparent: true, Font: font}
}

// Copy returns shallow copy; Font and Border are duplicated.
func (s *Style) Copy() *Style {
	c := *s
	if s.Font != nil {
		f := *s.Font
		c.Font = &f
	}
	if s.Border != nil {
		b := &Border{}
		for i, side := range s.Border.Sides {
			if side != nil {
				v := *side
				b.Sides[i] = &v
			}
		}
		c.Border = b
	}
	return &c
}
