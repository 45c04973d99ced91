// Package box is an in-memory visual tree. It implements the visual
// contract for tests and for the render command which dumps computed styles
// instead of painting them.
package box

import (
	"unicode/utf8"

	"mpdom/visual"
)

type attachable interface {
	visual.Node
	setParent(p *Box)
}

type node struct {
	role     visual.Role
	name     string
	styles   [3]*visual.Style
	parent   *Box
	linkLike bool
	hidden   bool

	// Refreshes counts refresh requests.
	Refreshes int
}

func newNode(role visual.Role, name string, st *visual.Style, pressed bool) node {
	n := node{role: role, name: name}
	n.styles[visual.Unselected] = st
	n.styles[visual.Selected] = st.Copy()
	if pressed {
		n.styles[visual.Pressed] = st.Copy()
	}
	return n
}

func (n *node) Style(b visual.Bucket) *visual.Style {
	if b < 0 || int(b) >= len(n.styles) {
		return nil
	}
	return n.styles[b]
}

func (n *node) Parent() visual.Container {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) setParent(p *Box)               { n.parent = p }
func (n *node) Role() visual.Role              { return n.role }
func (n *node) Name() string                   { return n.name }
func (n *node) IsLinkLike() bool               { return n.linkLike }
func (n *node) HasPressedBucket() bool         { return n.styles[visual.Pressed] != nil }
func (n *node) Visible() bool                  { return !n.hidden }
func (n *node) SetVisible(v bool)              { n.hidden = !v }
func (n *node) Refresh()                       { n.Refreshes++ }
func (n *node) IsContainer() bool              { return false }
func (n *node) PreferredExtent() visual.Extent { return visual.Extent{} }

// Box is a container node.
type Box struct {
	node
	children []visual.Node
}

// NewBox creates detached container.
func NewBox(role visual.Role, name string, st *visual.Style) *Box {
	return &Box{node: newNode(role, name, st, false)}
}

func (b *Box) IsContainer() bool       { return true }
func (b *Box) Children() []visual.Node { return b.children }

func (b *Box) Add(n visual.Node) {
	b.Insert(len(b.children), n)
}

func (b *Box) Insert(i int, n visual.Node) {
	if a, ok := n.(attachable); ok {
		if p := a.Parent(); p != nil {
			p.Remove(n)
		}
		a.setParent(b)
	}
	i = min(max(i, 0), len(b.children))
	b.children = append(b.children, nil)
	copy(b.children[i+1:], b.children[i:])
	b.children[i] = n
}

func (b *Box) Remove(n visual.Node) bool {
	i := b.IndexOf(n)
	if i < 0 {
		return false
	}
	b.children = append(b.children[:i], b.children[i+1:]...)
	if a, ok := n.(attachable); ok {
		a.setParent(nil)
	}
	return true
}

func (b *Box) IndexOf(n visual.Node) int {
	for i, c := range b.children {
		if c == n {
			return i
		}
	}
	return -1
}

// PreferredExtent stacks children vertically, fixed width and height win.
func (b *Box) PreferredExtent() visual.Extent {
	var ext visual.Extent
	for _, c := range b.children {
		if !c.Visible() {
			continue
		}
		ce := c.PreferredExtent()
		ext.Width = max(ext.Width, ce.Width)
		ext.Height += ce.Height
	}
	st := b.styles[visual.Unselected]
	ext.Width += st.Margin[visual.Left] + st.Margin[visual.Right] + st.Padding[visual.Left] + st.Padding[visual.Right]
	ext.Height += st.Margin[visual.Top] + st.Margin[visual.Bottom] + st.Padding[visual.Top] + st.Padding[visual.Bottom]
	if st.Width > 0 {
		ext.Width = st.Width
	}
	if st.Height > 0 {
		ext.Height = st.Height
	}
	return ext
}

// Text is a text leaf.
type Text struct {
	node
	text string
}

// NewText creates detached text leaf. Link text gets pressed bucket.
func NewText(text string, st *visual.Style, link bool) *Text {
	t := &Text{node: newNode(visual.RoleText, "", st, link), text: text}
	if link {
		t.role = visual.RoleLink
		t.linkLike = true
	}
	return t
}

func (t *Text) Text() string     { return t.text }
func (t *Text) SetText(s string) { t.text = s }

// Clone shares style objects with t.
func (t *Text) Clone(text string) visual.TextNode {
	c := &Text{node: t.node, text: text}
	c.parent = nil
	c.Refreshes = 0
	return c
}

// PreferredExtent assumes average glyph width of half the font size.
func (t *Text) PreferredExtent() visual.Extent {
	size := 16
	if f := t.styles[visual.Unselected].Font; f != nil && f.Size > 0 {
		size = f.Size
	}
	return visual.Extent{Width: utf8.RuneCountInString(t.text) * size / 2, Height: size}
}

// Image is an image leaf. Intrinsic size comes from attributes until
// resource is fetched.
type Image struct {
	node
	Src    string
	Alt    string
	Width  int
	Height int
	// Data is set when image resource was fetched.
	Data *visual.Image
}

func NewImage(src, alt string, st *visual.Style, link bool) *Image {
	img := &Image{node: newNode(visual.RoleImage, "img", st, link), Src: src, Alt: alt}
	img.linkLike = link
	return img
}

func (i *Image) PreferredExtent() visual.Extent {
	ext := visual.Extent{Width: i.Width, Height: i.Height}
	if i.Data != nil {
		if ext.Width == 0 {
			ext.Width = i.Data.Width
		}
		if ext.Height == 0 {
			ext.Height = i.Data.Height
		}
	}
	st := i.styles[visual.Unselected]
	if st.Width > 0 {
		ext.Width = st.Width
	}
	if st.Height > 0 {
		ext.Height = st.Height
	}
	return ext
}

var (
	_ visual.Container = (*Box)(nil)
	_ visual.TextNode  = (*Text)(nil)
	_ visual.Node      = (*Image)(nil)
)
