// Package dom is the typed document tree produced by the markup parser.
// Elements know their tag, carry only attributes legal for that tag and may
// be bound to nodes of a host owned visual tree.
package dom

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mpdom/utils/debug"
	"mpdom/visual"
)

var (
	ErrAttributeNotSupported = errors.New("attribute not supported")
	ErrAttributeValueInvalid = errors.New("attribute value invalid")
)

// Element is a single document node. Text nodes are elements with TagText.
type Element struct {
	tag      Tag
	name     string
	text     string
	attrs    map[Attr]string
	children []*Element
	parent   *Element

	bound    []visual.Node
	explicit bool
	cached   bool
}

// New creates element for tag name. Unknown names produce element with
// TagUnsupported which is never added to a tree.
func New(name string) *Element {
	return &Element{tag: LookupTag(name), name: strings.ToLower(name)}
}

// NewText creates text node.
func NewText(text string) *Element {
	return &Element{tag: TagText, name: tagNames[TagText], text: text}
}

// NewRoot creates document root.
func NewRoot() *Element {
	return &Element{tag: TagRoot, name: tagNames[TagRoot]}
}

func (e *Element) Tag() Tag             { return e.tag }
func (e *Element) Name() string         { return e.name }
func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) Children() []*Element { return e.children }
func (e *Element) IsText() bool         { return e.tag == TagText }
func (e *Element) Supported() bool      { return e.tag != TagUnsupported }

// Text returns original (untransformed) text of text node.
func (e *Element) Text() string { return e.text }

// SetAttribute validates and stores attribute value as written. Errors wrap
// ErrAttributeNotSupported or ErrAttributeValueInvalid, in both cases element
// is left unchanged.
func (e *Element) SetAttribute(name, value string) error {
	a := LookupAttr(name)
	if a == AttrUnsupported || !e.tag.Allowed(a) {
		return fmt.Errorf("%w: %s on <%s>", ErrAttributeNotSupported, name, e.name)
	}
	if err := validate(e.tag, a, value); err != nil {
		return fmt.Errorf("%w: %s on <%s>: %w", ErrAttributeValueInvalid, name, e.name, err)
	}
	if e.attrs == nil {
		e.attrs = make(map[Attr]string)
	}
	e.attrs[a] = value
	return nil
}

// Attribute returns attribute value and presence flag.
func (e *Element) Attribute(a Attr) (string, bool) {
	v, ok := e.attrs[a]
	return v, ok
}

// AttributeByName is Attribute for string names.
func (e *Element) AttributeByName(name string) (string, bool) {
	return e.Attribute(LookupAttr(name))
}

// AttrPair is attribute kind with its value.
type AttrPair struct {
	Attr  Attr
	Value string
}

// Attributes returns attributes in stable (enumeration) order.
func (e *Element) Attributes() []AttrPair {
	out := make([]AttrPair, 0, len(e.attrs))
	for a, v := range e.attrs {
		out = append(out, AttrPair{Attr: a, Value: v})
	}
	slices.SortFunc(out, func(x, y AttrPair) int { return int(x.Attr) - int(y.Attr) })
	return out
}

func (e *Element) ID() string {
	return strings.TrimSpace(e.attrs[AttrID])
}

// Classes returns space separated class list.
func (e *Element) Classes() []string {
	return strings.Fields(e.attrs[AttrClass])
}

// HasClass checks whole word class membership.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

// AddChild appends child. Unsupported elements are silently ignored.
func (e *Element) AddChild(c *Element) {
	if c == nil || c.tag == TagUnsupported {
		return
	}
	c.parent = e
	e.children = append(e.children, c)
	e.Recalc()
}

// InsideLink returns true when element or one of its ancestors is <a>.
func (e *Element) InsideLink() bool {
	for p := e; p != nil; p = p.parent {
		if p.tag == TagA {
			return true
		}
	}
	return false
}

// Closest returns nearest ancestor-or-self with tag.
func (e *Element) Closest(t Tag) *Element {
	for p := e; p != nil; p = p.parent {
		if p.tag == t {
			return p
		}
	}
	return nil
}

// Bind sets visual nodes representing element explicitly.
func (e *Element) Bind(nodes ...visual.Node) {
	e.bound = slices.Clone(nodes)
	e.explicit = true
	e.cached = false
	if e.parent != nil {
		e.parent.Recalc()
	}
}

// Unbind drops visual binding. Element stays explicitly bound to nothing
// so that descendants do not contribute to it anymore.
func (e *Element) Unbind() {
	e.Bind()
}

// Bound returns visual nodes for element: explicit binding when one was set,
// otherwise union of children bindings (computed lazily, without
// duplicates).
func (e *Element) Bound() []visual.Node {
	if e.explicit || e.cached {
		return e.bound
	}
	var out []visual.Node
	for _, c := range e.children {
		for _, n := range c.Bound() {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	e.bound, e.cached = out, true
	return out
}

// Explicit returns true when element was bound with Bind.
func (e *Element) Explicit() bool { return e.explicit }

// Recalc invalidates lazily derived bindings of element and its ancestors.
func (e *Element) Recalc() {
	for p := e; p != nil; p = p.parent {
		if p.explicit {
			return
		}
		p.cached = false
		p.bound = nil
	}
}

// Walk visits element and its descendants depth first. Returning false from
// fn skips descendants of the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// InnerText concatenates text of all descendant text nodes.
func (e *Element) InnerText() string {
	var sb strings.Builder
	e.Walk(func(el *Element) bool {
		if el.tag == TagText {
			sb.WriteString(el.text)
		}
		return true
	})
	return sb.String()
}

// Dump returns readable representation of the tree.
func (e *Element) Dump() string {
	tw := debug.NewTreeWriter()
	e.dump(tw, 0)
	return tw.String()
}

func (e *Element) dump(tw *debug.TreeWriter, depth int) {
	if e.tag == TagText {
		tw.TextBlock(depth, "text", e.text)
		return
	}
	var sb strings.Builder
	sb.WriteString(e.name)
	for _, av := range e.Attributes() {
		fmt.Fprintf(&sb, " %s=%q", av.Attr, av.Value)
	}
	tw.Line(depth, "<%s>", sb.String())
	for _, c := range e.children {
		c.dump(tw, depth+1)
	}
}
