package css

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Import is a resolved @import reference.
type Import struct {
	URL   *url.URL
	Media string
}

// Sheet is a parsed style sheet: rules in source order with @media blocks
// for other devices already dropped.
type Sheet struct {
	Rules   []*Rule
	Imports []Import
	Source  Source

	resolved bool
}

// ResolveURLs makes url() references absolute against sheet source. It is
// done once per sheet, fn is called for references which could not be
// resolved (relative ones without base) and those are left unchanged.
func (s *Sheet) ResolveURLs(fn func(ref string)) {
	if s.resolved {
		return
	}
	s.resolved = true
	s.RewriteURLs(func(original string) string {
		ref, err := url.Parse(original)
		if err != nil || ref.IsAbs() {
			return original
		}
		if s.Source.URL == nil {
			fn(original)
			return original
		}
		return s.Source.URL.ResolveReference(ref).String()
	})
}

// RewriteURLs walks all URL references in the sheet declarations and
// applies fn to each.
func (s *Sheet) RewriteURLs(fn func(originalURL string) string) {
	done := make(map[*Rule]bool)
	for _, r := range s.Rules {
		leaf := r
		for leaf.next != nil {
			leaf = leaf.next
		}
		// grouped selectors share declarations
		if done[leaf] {
			continue
		}
		done[leaf] = true
		rewriteURLsInDeclarations(leaf.decls, fn)
	}
}

func rewriteURLsInDeclarations(d Declarations, fn func(string) string) {
	for p, v := range d {
		if v.Kind != KindURL {
			continue
		}
		v.URL = fn(v.URL)
		v.Raw = fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(v.URL))
		d[p] = v
	}
}

// WriteTo writes the sheet to w, implementing io.WriterTo. Shorthands are
// written expanded, in property order.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, imp := range s.Imports {
		media := imp.Media
		if media != "" {
			media = " " + media
		}
		n, err := fmt.Fprintf(w, "@import url(\"%s\")%s;\n", cssEscapeDoubleQuoted(imp.URL.String()), media)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	for i, rule := range s.Rules {
		if i > 0 || len(s.Imports) > 0 {
			n, err := fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := writeRule(w, rule)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the sheet.
func (s *Sheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", rule.Selector())
	total += n
	if err != nil {
		return total, err
	}
	d := rule.Declarations()
	for _, p := range d.Properties() {
		n, err = fmt.Fprintf(w, "  %s: %s;\n", p, d[p].Raw)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
