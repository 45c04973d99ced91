package css

import (
	"slices"
	"strings"

	"mpdom/dom"
)

// Pseudo is a set of pseudo-classes of a selector.
type Pseudo uint8

const (
	PseudoLink Pseudo = 1 << iota
	PseudoVisited
	PseudoFocus
	PseudoHover
	PseudoActive
)

var pseudoNames = [...]string{"link", "visited", "focus", "hover", "active"}

func lookupPseudo(name string) Pseudo {
	for i, n := range pseudoNames {
		if strings.EqualFold(n, name) {
			return 1 << i
		}
	}
	return 0
}

func (p Pseudo) String() string {
	var sb strings.Builder
	for i, n := range pseudoNames {
		if p&(1<<i) != 0 {
			sb.WriteString(":" + n)
		}
	}
	return sb.String()
}

// Specificity weights.
const (
	WeightID    = 1 << 16
	WeightClass = 1 << 8
	WeightTag   = 1
	// InlineSpecificity is above anything a selector may produce.
	InlineSpecificity = 1 << 30
)

// Rule is one selector with its declarations. Descendant selectors are
// chains: "div p b" is rule div -> p -> b where only the last level (the
// leaf) carries declarations. Rules are immutable once parsed.
type Rule struct {
	Tag     string
	Classes []string
	ID      string
	Pseudo  Pseudo

	next        *Rule
	decls       Declarations
	specificity int
}

// Next returns next nesting level or nil for leaf.
func (r *Rule) Next() *Rule { return r.next }

// Leaf returns true when rule carries declarations.
func (r *Rule) Leaf() bool { return r.next == nil }

// Wildcard returns true when level has no tag, class and id predicates.
func (r *Rule) Wildcard() bool {
	return r.Tag == "" && r.ID == "" && len(r.Classes) == 0
}

// Specificity of the whole selector chain starting at this level.
func (r *Rule) Specificity() int { return r.specificity }

// LeafPseudo returns pseudo-classes of the last level, those decide which
// style buckets rule applies to.
func (r *Rule) LeafPseudo() Pseudo {
	l := r
	for l.next != nil {
		l = l.next
	}
	return l.Pseudo
}

// Declarations returns leaf declarations. Must not be modified.
func (r *Rule) Declarations() Declarations {
	l := r
	for l.next != nil {
		l = l.next
	}
	return l.decls
}

// Properties returns declared properties in application order.
func (d Declarations) Properties() []Property {
	out := make([]Property, 0, len(d))
	for p := range d {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Matches tests level predicates against element. Tag comparison is case
// insensitive, classes are whole words of class attribute. :link matches
// only anchors with href, :visited never matches as no history is kept.
func (r *Rule) Matches(e *dom.Element) bool {
	if e == nil || e.IsText() || e.Tag() == dom.TagRoot {
		return false
	}
	if r.Tag != "" && !strings.EqualFold(r.Tag, e.Name()) {
		return false
	}
	if r.ID != "" && r.ID != e.ID() {
		return false
	}
	for _, c := range r.Classes {
		if !e.HasClass(c) {
			return false
		}
	}
	if r.Pseudo&PseudoVisited != 0 {
		return false
	}
	if r.Pseudo&PseudoLink != 0 {
		if e.Tag() != dom.TagA {
			return false
		}
		if _, ok := e.Attribute(dom.AttrHref); !ok {
			return false
		}
	}
	return true
}

// Selector reconstructs selector text.
func (r *Rule) Selector() string {
	var parts []string
	for l := r; l != nil; l = l.next {
		parts = append(parts, l.level())
	}
	return strings.Join(parts, " ")
}

func (r *Rule) level() string {
	var sb strings.Builder
	sb.WriteString(r.Tag)
	if r.ID != "" {
		sb.WriteString("#" + r.ID)
	}
	for _, c := range r.Classes {
		sb.WriteString("." + c)
	}
	sb.WriteString(r.Pseudo.String())
	if sb.Len() == 0 {
		return "*"
	}
	return sb.String()
}

func (r *Rule) weight() int {
	w := len(r.Classes) * WeightClass
	for p := r.Pseudo; p != 0; p &= p - 1 {
		w += WeightClass
	}
	if r.ID != "" {
		w += WeightID
	}
	if r.Tag != "" {
		w += WeightTag
	}
	return w
}

// newChain links levels and computes specificity of every suffix.
func newChain(levels []*Rule, decls Declarations) *Rule {
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		if i+1 < len(levels) {
			l.next = levels[i+1]
			l.specificity = l.weight() + l.next.specificity
		} else {
			l.decls = decls
			l.specificity = l.weight()
		}
	}
	return levels[0]
}

// NewInlineRule creates anonymous rule for style attribute.
func NewInlineRule(decls Declarations) *Rule {
	return &Rule{decls: decls, specificity: InlineSpecificity}
}
