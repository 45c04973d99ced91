package cascade

import (
	"strings"
	"unicode"

	"mpdom/dom"
	"mpdom/visual"
)

// splitWords splits text after every whitespace run, so joining parts gives
// the original text back.
func splitWords(s string) []string {
	var (
		out         []string
		start       int
		space, word bool
	)
	for i, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && word {
			out = append(out, s[start:i])
			start = i
		}
		space, word = false, true
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Wrap replaces single text node bound to text element with one node per
// word. Clones share style objects with the original. Already wrapped or
// detached elements are left alone.
func Wrap(t *dom.Element) {
	nodes := t.Bound()
	if !t.IsText() || len(nodes) != 1 {
		return
	}
	tn, ok := nodes[0].(visual.TextNode)
	if !ok {
		return
	}
	parent := tn.Parent()
	parts := splitWords(tn.Text())
	if parent == nil || len(parts) < 2 {
		return
	}

	at := parent.IndexOf(tn)
	tn.SetText(parts[0])
	bound := []visual.Node{tn}
	for i, part := range parts[1:] {
		c := tn.Clone(part)
		parent.Insert(at+1+i, c)
		bound = append(bound, c)
	}
	t.Bind(bound...)
	parent.Refresh()
}

// Unwrap merges per word nodes of text element back into the first one.
func Unwrap(t *dom.Element) {
	nodes := t.Bound()
	if !t.IsText() || len(nodes) < 2 {
		return
	}
	first, ok := nodes[0].(visual.TextNode)
	if !ok {
		return
	}
	var sb strings.Builder
	for _, n := range nodes {
		tn, ok := n.(visual.TextNode)
		if !ok {
			continue
		}
		sb.WriteString(tn.Text())
		if n == visual.Node(first) {
			continue
		}
		if p := n.Parent(); p != nil {
			p.Remove(n)
		}
	}
	first.SetText(sb.String())
	t.Bind(first)
	if p := first.Parent(); p != nil {
		p.Refresh()
	}
}

// wrapAll wraps or unwraps every text element under el.
func wrapAll(el *dom.Element, words bool) {
	el.Walk(func(e *dom.Element) bool {
		if e.IsText() {
			if words {
				Wrap(e)
			} else {
				Unwrap(e)
			}
		}
		return true
	})
}
