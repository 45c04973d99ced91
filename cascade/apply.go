package cascade

import (
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mpdom/css"
	"mpdom/diag"
	"mpdom/dom"
	"mpdom/visual"
)

var fontProps = []css.Property{css.PropFontFamily, css.PropFontSize, css.PropFontStyle, css.PropFontWeight, css.PropFontVariant}

// applyRule writes rule declarations into styles of nodes bound to element.
// It returns true when element was detached by display:none, in which case
// nothing else is applied.
func (w *walker) applyRule(el *dom.Element, rule *css.Rule) (bool, error) {
	nodes := el.Bound()
	if len(nodes) == 0 {
		return false, nil
	}
	decls := rule.Declarations()
	if v, ok := decls[css.PropDisplay]; ok && v.Keyword == "none" {
		detach(el, nodes)
		return true, nil
	}

	a := &applier{walker: w, el: el, nodes: nodes, pseudo: rule.LeafPseudo(), decls: decls}
	if slices.ContainsFunc(fontProps, func(p css.Property) bool { _, ok := decls[p]; return ok }) {
		a.font()
	}
	for _, prop := range decls.Properties() {
		v := decls[prop]
		if v.Kind == css.KindInherit || slices.Contains(fontProps, prop) {
			continue
		}
		if err := a.apply(prop, v); err != nil {
			return false, err
		}
	}
	return false, nil
}

// detach removes nodes from their containers and unbinds element.
func detach(el *dom.Element, nodes []visual.Node) {
	for _, n := range nodes {
		if p := n.Parent(); p != nil {
			p.Remove(n)
			p.Refresh()
		}
	}
	el.Unbind()
}

type applier struct {
	*walker
	el     *dom.Element
	nodes  []visual.Node
	pseudo css.Pseudo
	decls  css.Declarations
}

// styles calls fn for every bucket of node the rule applies to.
func (a *applier) styles(n visual.Node, fn func(b visual.Bucket, st *visual.Style)) {
	m := mask(a.pseudo, n)
	for _, b := range visual.Buckets {
		if st := n.Style(b); st != nil && m.Has(b) {
			fn(b, st)
		}
	}
}

// each is styles for all bound nodes.
func (a *applier) each(fn func(n visual.Node, b visual.Bucket, st *visual.Style)) {
	for _, n := range a.nodes {
		a.styles(n, func(b visual.Bucket, st *visual.Style) { fn(n, b, st) })
	}
}

// deep is each for bound nodes and all their descendants.
func (a *applier) deep(fn func(n visual.Node, own bool, b visual.Bucket, st *visual.Style)) {
	for _, n := range a.nodes {
		descend(n, func(d visual.Node) {
			a.styles(d, func(b visual.Bucket, st *visual.Style) { fn(d, d == n, b, st) })
		})
	}
}

func descend(n visual.Node, fn func(visual.Node)) {
	fn(n)
	if c, ok := n.(visual.Container); ok {
		for _, ch := range c.Children() {
			descend(ch, fn)
		}
	}
}

func (a *applier) fontSize(n visual.Node) int {
	if st := n.Style(visual.Unselected); st != nil && st.Font != nil && st.Font.Size > 0 {
		return st.Font.Size
	}
	return a.opts.Font.Size
}

func (a *applier) pixels(n visual.Node, v css.Value) int {
	return v.Pixels(a.opts.Width, a.fontSize(n))
}

func (a *applier) apply(prop css.Property, v css.Value) error {
	switch prop {
	case css.PropColor:
		a.deep(func(n visual.Node, own bool, _ visual.Bucket, st *visual.Style) {
			// links keep their own color unless rule is theirs
			if own || !n.IsLinkLike() || a.el.InsideLink() {
				st.FgColor = v.Color
			}
		})
	case css.PropBackgroundColor:
		a.each(func(n visual.Node, b visual.Bucket, st *visual.Style) {
			if b == visual.Selected && n.IsLinkLike() && a.opts.LinkFocusBackground && !a.el.InsideLink() {
				return
			}
			if v.Kind == css.KindColor {
				st.BgColor, st.BgTransparent = v.Color, false
			} else {
				st.BgTransparent = true
			}
		})
	case css.PropBackgroundImage, css.PropListStyleImage:
		return a.image(prop, v)
	case css.PropBackgroundRepeat:
		r := map[string]visual.Repeat{"repeat": visual.RepeatBoth, "repeat-x": visual.RepeatX, "repeat-y": visual.RepeatY, "no-repeat": visual.RepeatNone}[v.Keyword]
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.BgRepeat = r })
	case css.PropBackgroundAttachment:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.BgFixed = v.Keyword == "fixed" })
	case css.PropBackgroundPositionX, css.PropBackgroundPositionY:
		a.each(func(n visual.Node, _ visual.Bucket, st *visual.Style) {
			pos := a.position(n, v)
			if prop == css.PropBackgroundPositionX {
				st.BgPosX = pos
			} else {
				st.BgPosY = pos
			}
		})

	case css.PropTextAlign:
		align := map[string]visual.Alignment{"left": visual.AlignLeft, "center": visual.AlignCenter, "right": visual.AlignRight, "justify": visual.AlignJustify}[v.Keyword]
		a.deep(func(_ visual.Node, _ bool, _ visual.Bucket, st *visual.Style) { st.Align = align })
	case css.PropVerticalAlign:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.VAlign = verticalAlign(v) })
	case css.PropTextIndent:
		a.indent(v)
	case css.PropTextDecoration:
		var d visual.Decoration
		for _, word := range strings.Fields(v.Keyword) {
			switch word {
			case "underline":
				d |= visual.DecorationUnderline
			case "overline":
				d |= visual.DecorationOverline
			case "line-through":
				d |= visual.DecorationLineThrough
			}
		}
		a.deep(func(_ visual.Node, _ bool, _ visual.Bucket, st *visual.Style) { st.Decoration = d })
	case css.PropTextTransform:
		a.transform(v.Keyword)
	case css.PropWhiteSpace:
		wrapAll(a.el, v.Keyword == "normal")
		a.nodes = a.el.Bound()
	case css.PropVisibility:
		a.visibility(v.Keyword == "visible")
	case css.PropWordSpacing:
		a.each(func(n visual.Node, _ visual.Bucket, st *visual.Style) {
			st.WordSpacing = 0
			if v.Kind == css.KindLength {
				st.WordSpacing = a.pixels(n, v)
			}
		})
	case css.PropLineHeight:
		a.each(func(n visual.Node, _ visual.Bucket, st *visual.Style) {
			switch v.Kind {
			case css.KindLength:
				st.LineHeight = a.pixels(n, v)
			case css.KindNumber:
				st.LineHeight = int(v.Value*float64(a.fontSize(n)) + 0.5)
			default:
				st.LineHeight = 0
			}
		})

	case css.PropWidth, css.PropHeight:
		a.each(func(n visual.Node, _ visual.Bucket, st *visual.Style) {
			px := 0
			if v.Kind == css.KindLength {
				px = a.pixels(n, v)
			}
			if prop == css.PropWidth {
				st.Width = px
			} else {
				st.Height = px
			}
		})
	case css.PropMarginTop, css.PropMarginRight, css.PropMarginBottom, css.PropMarginLeft:
		side := slices.Index(css.MarginSides[:], prop)
		a.boxModel(func(n visual.Node, st *visual.Style) { st.Margin[side] = a.length(n, v) })
	case css.PropPaddingTop, css.PropPaddingRight, css.PropPaddingBottom, css.PropPaddingLeft:
		side := slices.Index(css.PaddingSides[:], prop)
		a.boxModel(func(n visual.Node, st *visual.Style) { st.Padding[side] = a.length(n, v) })

	case css.PropBorderTopWidth, css.PropBorderRightWidth, css.PropBorderBottomWidth, css.PropBorderLeftWidth:
		side := visual.Side(slices.Index(css.BorderWidthSides[:], prop))
		a.border(side, func(n visual.Node, bs *visual.BorderSide) {
			bs.Width = borderWidth(v, a.pixels(n, v))
		})
	case css.PropBorderTopStyle, css.PropBorderRightStyle, css.PropBorderBottomStyle, css.PropBorderLeftStyle:
		side := visual.Side(slices.Index(css.BorderStyleSides[:], prop))
		a.border(side, func(_ visual.Node, bs *visual.BorderSide) { bs.Style = borderStyle(v.Keyword) })
	case css.PropBorderTopColor, css.PropBorderRightColor, css.PropBorderBottomColor, css.PropBorderLeftColor:
		side := visual.Side(slices.Index(css.BorderColorSides[:], prop))
		a.border(side, func(_ visual.Node, bs *visual.BorderSide) {
			bs.Color, bs.HasColor = v.Color, v.Kind == css.KindColor
		})

	case css.PropListStyleType:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.ListType = v.Keyword })
	case css.PropListStylePosition:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.ListInside = v.Keyword == "inside" })
	case css.PropWapInputFormat:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.InputFormat = v.Keyword })
	case css.PropWapInputRequired:
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.InputRequired = v.Keyword == "true" })
	case css.PropWapAccesskey:
		key := v.Keyword
		if v.Kind == css.KindNumber {
			key = v.Raw
		}
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) { st.AccessKey = key })
	}
	return nil
}

// length resolves margins and paddings, "auto" is zero.
func (a *applier) length(n visual.Node, v css.Value) int {
	if v.Kind != css.KindLength {
		return 0
	}
	return a.pixels(n, v)
}

func (a *applier) position(n visual.Node, v css.Value) int {
	switch v.Keyword {
	case "left", "top":
		return 0
	case "center":
		return a.opts.Width / 2
	case "right", "bottom":
		return a.opts.Width
	}
	return a.pixels(n, v)
}

func verticalAlign(v css.Value) visual.VAlignment {
	switch v.Keyword {
	case "sub":
		return visual.VAlignSub
	case "super":
		return visual.VAlignSuper
	case "top", "text-top":
		return visual.VAlignTop
	case "middle":
		return visual.VAlignMiddle
	case "bottom", "text-bottom":
		return visual.VAlignBottom
	}
	return visual.VAlignBaseline
}

// boxOwner returns node owning box model for n: text and inline fragments
// delegate to their container, list items laid out in table rows delegate
// further to the row.
func boxOwner(n visual.Node) visual.Node {
	if !n.IsContainer() {
		p := n.Parent()
		if p == nil {
			return n
		}
		n = p
	}
	if n.Role() == visual.RoleListItem {
		if p := n.Parent(); p != nil && (p.Role() == visual.RoleTableRow || p.Role() == visual.RoleTableCell) {
			return p
		}
	}
	return n
}

// boxModel applies margins or paddings to box owners of bound nodes, each
// owner once.
func (a *applier) boxModel(fn func(n visual.Node, st *visual.Style)) {
	var owners []visual.Node
	for _, n := range a.nodes {
		if o := boxOwner(n); !slices.Contains(owners, o) {
			owners = append(owners, o)
		}
	}
	for _, o := range owners {
		a.styles(o, func(_ visual.Bucket, st *visual.Style) { fn(o, st) })
	}
}

var borderWidths = map[string]int{"thin": 1, "medium": 3, "thick": 5}

func borderWidth(v css.Value, px int) int {
	if w, ok := borderWidths[v.Keyword]; ok && v.Kind == css.KindKeyword {
		return w
	}
	return px
}

var borderStyles = map[string]visual.BorderStyle{
	"none": visual.BorderNone, "hidden": visual.BorderHidden, "dotted": visual.BorderDotted,
	"dashed": visual.BorderDashed, "solid": visual.BorderSolid, "double": visual.BorderDouble,
	"groove": visual.BorderGroove, "ridge": visual.BorderRidge, "inset": visual.BorderInset,
	"outset": visual.BorderOutset,
}

func borderStyle(s string) visual.BorderStyle {
	return borderStyles[s]
}

// border merges one side into node border, other sides are kept. Sides
// created here have no style until one is declared.
func (a *applier) border(side visual.Side, fn func(n visual.Node, bs *visual.BorderSide)) {
	a.each(func(n visual.Node, _ visual.Bucket, st *visual.Style) {
		if st.Border == nil {
			st.Border = &visual.Border{}
		}
		if st.Border.Sides[side] == nil {
			st.Border.Sides[side] = &visual.BorderSide{Style: visual.BorderNone, Width: borderWidths["medium"]}
		}
		fn(n, st.Border.Sides[side])
	})
}

// indent goes to bound containers and to the first text leaf.
func (a *applier) indent(v css.Value) {
	for _, n := range a.nodes {
		px := a.pixels(n, v)
		targets := []visual.Node{n}
		if leaves := visual.Leaves(n); len(leaves) > 0 && visual.Node(leaves[0]) != n {
			targets = append(targets, leaves[0])
		}
		for _, t := range targets {
			a.styles(t, func(_ visual.Bucket, st *visual.Style) { st.Indent = px })
		}
	}
}

// transform changes text of all leaves, case mapping follows language of
// the element.
func (a *applier) transform(kind string) {
	var c cases.Caser
	tag := a.lang()
	switch kind {
	case "uppercase":
		c = cases.Upper(tag)
	case "lowercase":
		c = cases.Lower(tag)
	case "capitalize":
		c = cases.Title(tag, cases.NoLower)
	default:
		return
	}
	for _, n := range a.nodes {
		for _, l := range visual.Leaves(n) {
			if t := c.String(l.Text()); t != l.Text() {
				l.SetText(t)
				l.Refresh()
			}
		}
	}
}

func (a *applier) lang() language.Tag {
	for p := a.el; p != nil; p = p.Parent() {
		for _, attr := range []dom.Attr{dom.AttrXMLLang, dom.AttrLang} {
			if v, ok := p.Attribute(attr); ok {
				if tag, err := language.Parse(strings.TrimSpace(v)); err == nil {
					return tag
				}
			}
		}
	}
	return language.Und
}

// visibility hides or shows bound nodes with their descendants. Shown nodes
// make hidden ancestors visible again.
func (a *applier) visibility(visible bool) {
	for _, n := range a.nodes {
		descend(n, func(d visual.Node) {
			if d.Visible() != visible {
				d.SetVisible(visible)
				d.Refresh()
			}
		})
		if !visible {
			continue
		}
		for p := n.Parent(); p != nil; p = p.Parent() {
			if !p.Visible() {
				p.SetVisible(true)
				p.Refresh()
			}
		}
	}
}

// image resolves url and sets or requests image for bound nodes.
func (a *applier) image(prop css.Property, v css.Value) error {
	if v.Kind != css.KindURL {
		a.each(func(_ visual.Node, _ visual.Bucket, st *visual.Style) {
			if prop == css.PropListStyleImage {
				st.ListImage = nil
			} else {
				st.BgImage = nil
			}
		})
		return nil
	}
	u, err := url.Parse(v.URL)
	if err != nil {
		return a.rep.Report(diag.Diagnostic{Code: diag.CodeCssAttributeValueInvalid, Attr: prop.String(), Value: v.URL, Message: err.Error()})
	}
	if !u.IsAbs() {
		if a.doc.Base == nil {
			return a.rep.Report(diag.Diagnostic{Code: diag.CodeNoBaseUrlForRelativeReference, Tag: a.el.Name(), Attr: prop.String(), Value: v.URL})
		}
		u = a.doc.Base.ResolveReference(u)
	}
	for _, n := range a.nodes {
		a.Engine.image(n, prop, mask(a.pseudo, n), u)
	}
	return nil
}

var fontSizes = map[string]int{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16, "large": 18, "x-large": 24, "xx-large": 32,
}

// font resolves all font declarations of the rule at once. Relative sizes
// are resolved against font of the visual parent, axes rule does not declare
// are taken from current node font, result comes from context cache.
// Descendants inherit declared axes as computed for the bound node.
func (a *applier) font() {
	for _, n := range a.nodes {
		computed := make(map[visual.Bucket]visual.Font, len(visual.Buckets))
		a.styles(n, func(b visual.Bucket, st *visual.Style) {
			want := a.declared(a.current(st), a.inherited(n, b))
			computed[b] = want
			a.setFont(st, want)
		})
		if c, ok := n.(visual.Container); ok {
			for _, ch := range c.Children() {
				descend(ch, func(d visual.Node) {
					a.styles(d, func(b visual.Bucket, st *visual.Style) {
						src, ok := computed[b]
						if !ok {
							if src, ok = computed[visual.Unselected]; !ok {
								return
							}
						}
						a.setFont(st, a.overlay(a.current(st), src))
					})
				})
			}
		}
	}
}

func (a *applier) current(st *visual.Style) visual.Font {
	if st.Font != nil {
		return *st.Font
	}
	return a.opts.Font
}

func (a *applier) setFont(st *visual.Style, want visual.Font) {
	if st.Font == nil || *st.Font != want {
		st.Font = a.ctx.Font(want)
	}
}

// inherited returns font node inherits from its visual parent.
func (a *applier) inherited(n visual.Node, b visual.Bucket) visual.Font {
	p := n.Parent()
	if p == nil {
		return a.opts.Font
	}
	for _, bucket := range []visual.Bucket{b, visual.Unselected} {
		if st := p.Style(bucket); st != nil && st.Font != nil {
			return *st.Font
		}
	}
	return a.opts.Font
}

// declared applies font declarations of the rule to cur.
func (a *applier) declared(cur, parent visual.Font) visual.Font {
	want := cur
	if v, ok := a.decls[css.PropFontFamily]; ok && v.Kind == css.KindFamily {
		want.Family = a.family(v.Family, cur.Family)
	}
	if v, ok := a.decls[css.PropFontSize]; ok && v.Kind != css.KindInherit {
		want.Size = a.size(v, parent.Size)
	}
	if v, ok := a.decls[css.PropFontStyle]; ok && v.Kind == css.KindKeyword {
		want.Style = visual.FontStyleNormal
		if v.Keyword == "italic" || v.Keyword == "oblique" {
			want.Style = visual.FontStyleItalic
		}
	}
	if v, ok := a.decls[css.PropFontWeight]; ok && v.Kind != css.KindInherit {
		want.Weight = weight(v, cur.Weight)
	}
	if v, ok := a.decls[css.PropFontVariant]; ok && v.Kind == css.KindKeyword {
		want.Caps = v.Keyword == "small-caps"
	}
	return want
}

// overlay copies axes declared by the rule from src to cur.
func (a *applier) overlay(cur, src visual.Font) visual.Font {
	if v, ok := a.decls[css.PropFontFamily]; ok && v.Kind == css.KindFamily {
		cur.Family = src.Family
	}
	if v, ok := a.decls[css.PropFontSize]; ok && v.Kind != css.KindInherit {
		cur.Size = src.Size
	}
	if v, ok := a.decls[css.PropFontStyle]; ok && v.Kind == css.KindKeyword {
		cur.Style = src.Style
	}
	if v, ok := a.decls[css.PropFontWeight]; ok && v.Kind != css.KindInherit {
		cur.Weight = src.Weight
	}
	if v, ok := a.decls[css.PropFontVariant]; ok && v.Kind == css.KindKeyword {
		cur.Caps = src.Caps
	}
	return cur
}

// family picks first family of the list available in catalog.
func (a *applier) family(list []string, cur string) string {
	if len(list) == 0 {
		return cur
	}
	if a.ctx.catalog == nil {
		return list[0]
	}
	fonts := a.ctx.catalog.Fonts()
	for _, f := range list {
		for _, have := range fonts {
			if familyMatches(f, have.Family) {
				return f
			}
		}
	}
	return list[0]
}

func (a *applier) size(v css.Value, cur int) int {
	switch {
	case v.Kind == css.KindLength:
		if v.Unit == "%" {
			return max(v.Pixels(cur, cur), 1)
		}
		return max(v.Pixels(a.opts.Width, cur), 1)
	case v.Keyword == "smaller":
		return max(cur*5/6, 1)
	case v.Keyword == "larger":
		return cur * 6 / 5
	}
	if s, ok := fontSizes[v.Keyword]; ok {
		return s
	}
	return cur
}

func weight(v css.Value, cur visual.FontWeight) visual.FontWeight {
	if v.Kind == css.KindNumber {
		if v.Value >= 600 {
			return visual.FontWeightBold
		}
		return visual.FontWeightNormal
	}
	switch v.Keyword {
	case "bold", "bolder":
		return visual.FontWeightBold
	case "normal", "lighter":
		return visual.FontWeightNormal
	}
	return cur
}
