package box

import (
	"strings"

	"mpdom/dom"
	"mpdom/visual"
)

// Options control building of the visual tree.
type Options struct {
	// Font is default font of the root.
	Font visual.Font
	// Width is reference width for percentage lengths in attributes.
	Width int
}

// Build creates visual tree for document rooted at root and binds elements
// to their nodes. Block elements are bound to boxes, text elements to text
// leaves and images to image leaves. Inline elements are not bound
// explicitly, their binding is derived from children.
func Build(root *dom.Element, opts Options) *Box {
	if opts.Font.Size <= 0 {
		opts.Font.Size = 16
	}
	if opts.Font.Family == "" {
		opts.Font.Family = "sans-serif"
	}
	font := opts.Font
	rb := NewBox(visual.RoleBlock, root.Name(), visual.NewStyle(&font))
	root.Bind(rb)

	b := &builder{opts: opts}
	for _, c := range root.Children() {
		b.walk(c, rb, rb.Style(visual.Unselected), false)
	}
	return rb
}

type builder struct {
	opts Options
}

func (b *builder) walk(e *dom.Element, parent *Box, inherited *visual.Style, link bool) {
	if e.IsText() {
		if e.Text() == "" {
			return
		}
		t := NewText(e.Text(), inherited.Copy(), link)
		parent.Add(t)
		e.Bind(t)
		return
	}
	tag := e.Tag()
	if tag.Invisible() {
		return
	}

	st := inherited.Copy()
	// inherited box properties do not cascade to children
	st.Margin, st.Padding, st.Border, st.Width, st.Height = [4]int{}, [4]int{}, nil, 0, 0
	st.BgImage = nil
	defaults(tag, st)
	b.presentational(e, st)
	link = link || tag == dom.TagA

	switch {
	case tag == dom.TagBr:
		return
	case tag == dom.TagImg:
		src, _ := e.Attribute(dom.AttrSrc)
		alt, _ := e.Attribute(dom.AttrAlt)
		img := NewImage(src, alt, st, link)
		img.Width, img.Height = b.length(e, dom.AttrWidth), b.length(e, dom.AttrHeight)
		parent.Add(img)
		e.Bind(img)
		return
	case tag == dom.TagInput || tag == dom.TagSelect || tag == dom.TagTextarea || tag == dom.TagButton:
		bx := NewBox(visual.RoleInput, e.Name(), st)
		bx.linkLike = true
		bx.styles[visual.Pressed] = st.Copy()
		parent.Add(bx)
		e.Bind(bx)
		if v, ok := e.Attribute(dom.AttrValue); ok && v != "" {
			bx.Add(NewText(v, st.Copy(), false))
		}
		for _, c := range e.Children() {
			b.walk(c, bx, st, false)
		}
		return
	case tag.Block():
		bx := NewBox(role(tag), e.Name(), st)
		parent.Add(bx)
		e.Bind(bx)
		for _, c := range e.Children() {
			b.walk(c, bx, st, link)
		}
		return
	}
	for _, c := range e.Children() {
		b.walk(c, parent, st, link)
	}
}

func role(t dom.Tag) visual.Role {
	switch t {
	case dom.TagLi, dom.TagDt, dom.TagDd:
		return visual.RoleListItem
	case dom.TagTable:
		return visual.RoleTable
	case dom.TagTr:
		return visual.RoleTableRow
	case dom.TagTd, dom.TagTh:
		return visual.RoleTableCell
	}
	return visual.RoleBlock
}

var headingScale = map[dom.Tag]float64{
	dom.TagH1: 2, dom.TagH2: 1.5, dom.TagH3: 1.17, dom.TagH4: 1, dom.TagH5: 0.83, dom.TagH6: 0.67,
}

// defaults applies built-in presentation of tag.
func defaults(t dom.Tag, st *visual.Style) {
	if scale, ok := headingScale[t]; ok {
		st.Font.Size = int(float64(st.Font.Size)*scale + 0.5)
		st.Font.Weight = visual.FontWeightBold
		return
	}
	switch t {
	case dom.TagB, dom.TagStrong:
		st.Font.Weight = visual.FontWeightBold
	case dom.TagTh:
		st.Font.Weight = visual.FontWeightBold
		st.Align = visual.AlignCenter
	case dom.TagI, dom.TagEm, dom.TagCite, dom.TagDfn, dom.TagVar, dom.TagAddress:
		st.Font.Style = visual.FontStyleItalic
	case dom.TagU, dom.TagIns:
		st.Decoration |= visual.DecorationUnderline
	case dom.TagS, dom.TagStrike, dom.TagDel:
		st.Decoration |= visual.DecorationLineThrough
	case dom.TagBig:
		st.Font.Size = st.Font.Size * 6 / 5
	case dom.TagSmall:
		st.Font.Size = st.Font.Size * 5 / 6
	case dom.TagTt, dom.TagCode, dom.TagSamp, dom.TagKbd, dom.TagPre:
		st.Font.Family = "monospace"
	case dom.TagCenter:
		st.Align = visual.AlignCenter
	case dom.TagSub:
		st.VAlign = visual.VAlignSub
	case dom.TagSup:
		st.VAlign = visual.VAlignSuper
	case dom.TagA:
		st.Decoration |= visual.DecorationUnderline
		st.FgColor = 0x0000EE
	}
}

var aligns = map[string]visual.Alignment{
	"left": visual.AlignLeft, "center": visual.AlignCenter, "right": visual.AlignRight, "justify": visual.AlignJustify,
}

// presentational maps legacy attributes onto style.
func (b *builder) presentational(e *dom.Element, st *visual.Style) {
	if v, ok := e.Attribute(dom.AttrAlign); ok && e.Tag() != dom.TagImg {
		if a, ok := aligns[strings.ToLower(v)]; ok {
			st.Align = a
		}
	}
	if v, ok := e.Attribute(dom.AttrBgcolor); ok {
		if c, err := dom.ParseColor(v); err == nil {
			st.BgColor, st.BgTransparent = c, false
		}
	}
	attr := dom.AttrColor
	if e.Tag() == dom.TagBody {
		attr = dom.AttrText
	}
	if v, ok := e.Attribute(attr); ok {
		if c, err := dom.ParseColor(v); err == nil {
			st.FgColor = c
		}
	}
	if e.Tag() == dom.TagImg || e.Tag() == dom.TagTable {
		if w := b.length(e, dom.AttrBorder); w > 0 {
			st.Border = &visual.Border{}
			for _, s := range visual.Sides {
				st.Border.Side(s).Width = w
			}
		}
	}
}

func (b *builder) length(e *dom.Element, a dom.Attr) int {
	v, ok := e.Attribute(a)
	if !ok {
		return 0
	}
	l, err := dom.ParseLength(v)
	if err != nil {
		return 0
	}
	return l.Resolve(b.opts.Width)
}
