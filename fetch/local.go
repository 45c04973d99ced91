package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mpdom/utils/images"
	"mpdom/visual"
)

// Local serves file URLs (and URLs without scheme) from file system. Every
// request is handled by its own goroutine, results are delivered on channel
// returned by Results.
type Local struct {
	log     *zap.Logger
	fsys    fs.FS
	results chan Result
	pending atomic.Int64
	// RasterizeSVG converts SVG images to PNG of the given maximum size.
	RasterizeSVG int
}

// NewLocal creates fetcher rooted at dir. Absolute URL paths are
// interpreted relative to dir.
func NewLocal(dir string, log *zap.Logger) *Local {
	return NewLocalFS(os.DirFS(dir), log)
}

// NewLocalFS creates fetcher over arbitrary file system.
func NewLocalFS(fsys fs.FS, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{
		log:     log.Named("fetch"),
		fsys:    fsys,
		results: make(chan Result, 16),
	}
}

func (l *Local) EnqueueStylesheet(u *url.URL, encoding string) string {
	return l.enqueue(Request{Kind: KindStylesheet, URL: u, Encoding: encoding})
}

func (l *Local) EnqueueImage(u *url.URL, target visual.Node, mask visual.Mask) string {
	return l.enqueue(Request{Kind: KindImage, URL: u, Target: target, Mask: mask})
}

func (l *Local) enqueue(req Request) string {
	req.ID = uuid.NewString()
	l.pending.Add(1)
	l.log.Debug("Fetch queued", zap.String("id", req.ID), zap.Stringer("kind", req.Kind), zap.Stringer("url", req.URL))
	go func() {
		l.results <- l.load(req)
	}()
	return req.ID
}

// Results returns channel results are delivered on.
func (l *Local) Results() <-chan Result {
	return l.results
}

// Pending returns number of requests whose results were not received yet.
func (l *Local) Pending() int {
	return int(l.pending.Load())
}

// Drain receives results until no request is pending passing each to fn.
// Requests enqueued by fn are waited for as well. Errors returned by fn are
// accumulated, context cancellation stops draining.
func (l *Local) Drain(ctx context.Context, fn func(Result) error) error {
	var errs error
	for l.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return multierr.Append(errs, ctx.Err())
		case r := <-l.results:
			l.pending.Add(-1)
			if err := fn(r); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", r.Request.Kind, r.Request.URL, err))
			}
		}
	}
	return errs
}

func (l *Local) load(req Request) Result {
	res := Result{Request: req}
	name, err := l.name(req.URL)
	if err != nil {
		res.Err = err
		return res
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Err = fmt.Errorf("%s: %w", name, ErrNotFound)
		} else {
			res.Err = fmt.Errorf("%s: %w: %w", name, ErrNotFound, err)
		}
		return res
	}

	if req.Kind == KindStylesheet {
		res.Data = data
		return res
	}

	info, err := images.Probe(data, name)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w: %w", name, ErrBadFormat, err)
		return res
	}
	img := &visual.Image{URL: req.URL.String(), Kind: info.Kind, Width: info.Width, Height: info.Height, Data: data}
	if info.Kind == "svg" && l.RasterizeSVG > 0 {
		png, err := images.RasterizeSVGToPNG(data, l.RasterizeSVG)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w: %w", name, ErrBadFormat, err)
			return res
		}
		img.Kind, img.Data = "png", png
	}
	res.Image = img
	return res
}

func (l *Local) name(u *url.URL) (string, error) {
	if u == nil {
		return "", fmt.Errorf("empty url: %w", ErrNotFound)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme %q: %w", u.Scheme, ErrNotFound)
	}
	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid path %q: %w", u.Path, ErrNotFound)
	}
	return name, nil
}
