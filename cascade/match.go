package cascade

import (
	"cmp"
	"slices"

	"mpdom/css"
	"mpdom/dom"
	"mpdom/visual"
)

// continuation is remaining part of a descendant selector. Specificity and
// order are those of the whole selector so that continuations sort together
// with top level rules.
type continuation struct {
	rule  *css.Rule
	spec  int
	order int
}

type walker struct {
	*Engine
	rules []*css.Rule
}

// walk cascades element and its subtree. Pending are continuations matched
// by ancestors, they stay pending for the whole subtree.
func (w *walker) walk(el *dom.Element, pending []continuation) error {
	if el.IsText() || el.Explicit() && len(el.Bound()) == 0 {
		return nil
	}

	var matched []continuation
	next := pending
	test := func(c continuation) {
		if !c.rule.Matches(el) {
			return
		}
		if c.rule.Leaf() {
			matched = append(matched, c)
			return
		}
		nc := continuation{rule: c.rule.Next(), spec: c.spec, order: c.order}
		if !slices.Contains(next, nc) {
			if len(next) == len(pending) {
				next = slices.Clone(pending)
			}
			next = append(next, nc)
		}
	}
	for i, r := range w.rules {
		test(continuation{rule: r, spec: r.Specificity(), order: i})
	}
	for _, c := range pending {
		test(c)
	}
	slices.SortStableFunc(matched, func(a, b continuation) int {
		if c := cmp.Compare(a.spec, b.spec); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	detached := false
	for _, c := range matched {
		var err error
		if detached, err = w.applyRule(el, c.rule); err != nil {
			return err
		}
		if detached {
			break
		}
	}
	if !detached {
		if style, ok := el.Attribute(dom.AttrStyle); ok && style != "" {
			rule, err := w.parser.ParseInline(style)
			if err != nil {
				return err
			}
			if detached, err = w.applyRule(el, rule); err != nil {
				return err
			}
		}
	}
	if detached {
		return nil
	}
	for _, n := range el.Bound() {
		n.Refresh()
	}

	for _, c := range el.Children() {
		if err := w.walk(c, next); err != nil {
			return err
		}
	}
	return nil
}

// mask computes buckets rule with given pseudo-classes applies to on node.
// :focus and :hover go to selected bucket, :active to pressed one (when node
// has it), rules without those apply to unselected and selected buckets and
// to pressed one when node has it.
func mask(p css.Pseudo, n visual.Node) visual.Mask {
	state := p & (css.PseudoFocus | css.PseudoHover | css.PseudoActive)
	if state == 0 {
		m := visual.MaskUnselected | visual.MaskSelected
		if n.HasPressedBucket() {
			m |= visual.MaskPressed
		}
		return m
	}
	var m visual.Mask
	if state&(css.PseudoFocus|css.PseudoHover) != 0 {
		m |= visual.MaskSelected
	}
	if state&css.PseudoActive != 0 && n.HasPressedBucket() {
		m |= visual.MaskPressed
	}
	return m
}
