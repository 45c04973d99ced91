// Package fetch describes asynchronous resource loading used by the cascade
// engine and provides local file system implementation.
package fetch

import (
	"errors"
	"net/url"

	"mpdom/visual"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrBadFormat = errors.New("bad resource format")
)

// Kind of requested resource.
type Kind int

const (
	KindStylesheet Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "stylesheet"
}

// Request is a single fetch request. Target and Mask are set for images
// only.
type Request struct {
	ID       string
	Kind     Kind
	URL      *url.URL
	Encoding string
	Target   visual.Node
	Mask     visual.Mask
}

// Result is delivered once per request. Err wraps ErrNotFound or
// ErrBadFormat.
type Result struct {
	Request Request
	// Data is raw stylesheet content.
	Data []byte
	// Image is set for successfully fetched images.
	Image *visual.Image
	Err   error
}

// Fetcher queues resource requests. Both calls return immediately with the
// request identifier, results are delivered later by implementation specific
// means and must be passed to engine.
type Fetcher interface {
	EnqueueStylesheet(u *url.URL, encoding string) string
	EnqueueImage(u *url.URL, target visual.Node, mask visual.Mask) string
}
