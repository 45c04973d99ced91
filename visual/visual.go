// Package visual describes the small surface of a widget (visual) tree the
// cascade engine works with. Visual trees are owned by the host, the engine
// only reads and writes through these interfaces.
package visual

// Bucket selects one of the style sets a visual node carries.
type Bucket int

const (
	Unselected Bucket = iota
	Selected
	Pressed
	bucketCount
)

func (b Bucket) String() string {
	switch b {
	case Unselected:
		return "unselected"
	case Selected:
		return "selected"
	case Pressed:
		return "pressed"
	}
	return "unknown"
}

// Buckets lists all buckets in application order.
var Buckets = [bucketCount]Bucket{Unselected, Selected, Pressed}

// Mask is a set of buckets.
type Mask uint8

const (
	MaskUnselected Mask = 1 << Unselected
	MaskSelected   Mask = 1 << Selected
	MaskPressed    Mask = 1 << Pressed
	MaskAll             = MaskUnselected | MaskSelected | MaskPressed
)

func (m Mask) Has(b Bucket) bool {
	return m&(1<<b) != 0
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var s string
	for _, b := range Buckets {
		if m.Has(b) {
			if s != "" {
				s += "|"
			}
			s += b.String()
		}
	}
	return s
}

// Role tells what kind of widget node stands for.
type Role int

const (
	RoleBlock Role = iota
	RoleText
	RoleLink
	RoleImage
	RoleListItem
	RoleTable
	RoleTableRow
	RoleTableCell
	RoleInput
)

var roleNames = [...]string{"block", "text", "link", "image", "list-item", "table", "table-row", "table-cell", "input"}

func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// Extent is a preferred size in pixels.
type Extent struct {
	Width, Height int
}

// Node is a single visual tree node.
type Node interface {
	// Style returns style for requested bucket or nil when node does not
	// have such bucket.
	Style(b Bucket) *Style
	Parent() Container
	Role() Role
	IsLinkLike() bool
	HasPressedBucket() bool
	IsContainer() bool
	PreferredExtent() Extent
	Visible() bool
	SetVisible(v bool)
	// Refresh asks host to re-layout and repaint node.
	Refresh()
}

// Container is a node with children.
type Container interface {
	Node
	Children() []Node
	Add(n Node)
	Insert(i int, n Node)
	Remove(n Node) bool
	IndexOf(n Node) int
}

// TextNode is a leaf node holding text.
type TextNode interface {
	Node
	Text() string
	SetText(s string)
	// Clone creates new detached text node sharing style objects (by
	// reference) with the original.
	Clone(text string) TextNode
}

// FontCatalog lists fonts available on the device.
type FontCatalog interface {
	Fonts() []Font
}

// Leaves returns all text nodes under n (n itself when it is a text node) in
// tree order.
func Leaves(n Node) []TextNode {
	var out []TextNode
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case TextNode:
			out = append(out, v)
		case Container:
			for _, c := range v.Children() {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}
