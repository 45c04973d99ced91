package markup

import (
	"net/url"

	"mpdom/css"
	"mpdom/dom"
)

// Link is a reference to external style sheet found in <link>.
type Link struct {
	URL     *url.URL
	Media   string
	Charset string
	Title   string
}

// Document is the result of parsing single markup source.
type Document struct {
	Root *dom.Element
	// Base is document location possibly overridden by <base href>.
	Base  *url.URL
	Title string
	// Sheets are embedded style sheets in document order.
	Sheets []*css.Sheet
	// Links are external style sheets in document order, already filtered
	// by media.
	Links []Link
}

// Body returns <body> element or root when document has none.
func (d *Document) Body() *dom.Element {
	var body *dom.Element
	d.Root.Walk(func(e *dom.Element) bool {
		if body != nil {
			return false
		}
		if e.Tag() == dom.TagBody {
			body = e
			return false
		}
		return true
	})
	if body == nil {
		return d.Root
	}
	return body
}

// ByID returns first element with id.
func (d *Document) ByID(id string) *dom.Element {
	var found *dom.Element
	d.Root.Walk(func(e *dom.Element) bool {
		if found == nil && e.ID() == id {
			found = e
		}
		return found == nil
	})
	return found
}
