// Package cascade applies style sheets to a document: rules are ordered by
// specificity, matched against document elements (descendant selectors are
// carried down the tree as pending continuations) and their declarations are
// written into styles of visual nodes bound to the elements.
package cascade

import (
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mpdom/common"
	"mpdom/css"
	"mpdom/diag"
	"mpdom/fetch"
	"mpdom/markup"
	"mpdom/visual"
)

// Options control cascading.
type Options struct {
	// Width is reference length for percentages.
	Width int
	// Font is used for nodes without font and as em base.
	Font visual.Font
	// LinkFocusBackground keeps selected bucket background of links for
	// rules set on links themselves.
	LinkFocusBackground bool
	// Wrap is initial text splitting applied before the first pass.
	Wrap common.WrapMode
	// UserSheets precede every sheet of the document. Their imports are
	// not followed.
	UserSheets []*css.Sheet
}

// slot is external sheet with its imports, imported sheets come first.
type slot struct {
	sheet   *css.Sheet
	imports []*slot
}

func (s *slot) flatten(out []*css.Sheet) []*css.Sheet {
	for _, i := range s.imports {
		out = i.flatten(out)
	}
	if s.sheet != nil {
		out = append(out, s.sheet)
	}
	return out
}

type sheetRequest struct {
	slot     *slot
	url      *url.URL
	encoding string
}

type imageRequest struct {
	prop css.Property
	node visual.Node
	mask visual.Mask
	url  string
}

type imageKey struct {
	prop css.Property
	node visual.Node
	url  string
}

// Engine cascades styles of a single document. It is not safe for concurrent
// use, fetch results must be passed to OnFetchComplete from the goroutine
// which calls Apply.
type Engine struct {
	log     *zap.Logger
	rep     *diag.Reporter
	ctx     *Context
	parser  *css.Parser
	fetcher fetch.Fetcher
	opts    Options
	doc     *markup.Document

	started  bool
	links    []*slot
	imported []*slot // imports of embedded sheets
	sheets   map[string]sheetRequest
	images   map[string]imageRequest
	asked    map[imageKey]bool
	fetched  map[string]*visual.Image
	passes   int
}

// NewEngine creates engine for document. Fetcher may be nil, in which case
// external sheets and images are never loaded.
func NewEngine(doc *markup.Document, ctx *Context, parser *css.Parser, fetcher fetch.Fetcher, rep *diag.Reporter, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Font.Size <= 0 {
		opts.Font.Size = 16
	}
	if opts.Width <= 0 {
		opts.Width = 240
	}
	return &Engine{
		log:     log.Named("cascade"),
		rep:     rep,
		ctx:     ctx,
		parser:  parser,
		fetcher: fetcher,
		opts:    opts,
		doc:     doc,
		sheets:  make(map[string]sheetRequest),
		images:  make(map[string]imageRequest),
		asked:   make(map[imageKey]bool),
		fetched: make(map[string]*visual.Image),
	}
}

// Passes returns number of completed cascade passes.
func (e *Engine) Passes() int { return e.passes }

// Pending returns number of outstanding fetch requests.
func (e *Engine) Pending() int { return len(e.sheets) + len(e.images) }

// Apply runs cascade pass over the whole document. The first call also
// queues external sheets. Returned error is abort requested by diagnostic
// handler.
func (e *Engine) Apply() error {
	if !e.started {
		e.started = true
		e.requestSheets()
		if e.opts.Wrap != common.WrapModeKeep {
			wrapAll(e.doc.Root, e.opts.Wrap.Words())
		}
	}

	sheets := e.collect()
	for _, s := range sheets {
		if !s.Source.External {
			continue
		}
		var err error
		s.ResolveURLs(func(ref string) {
			err = multierr.Append(err, e.rep.Report(diag.Diagnostic{Code: diag.CodeNoBaseUrlForRelativeReference, Value: ref, Message: "in external style sheet"}))
		})
		if err != nil {
			return err
		}
	}
	rules := sortRules(sheets)
	e.log.Debug("Cascading", zap.Int("sheets", len(sheets)), zap.Int("rules", len(rules)), zap.Int("pass", e.passes+1))

	w := &walker{Engine: e, rules: rules}
	if err := w.walk(e.doc.Root, nil); err != nil {
		return err
	}
	e.passes++
	return nil
}

// Sheets returns sheets known so far in cascade order.
func (e *Engine) Sheets() []*css.Sheet { return e.collect() }

// collect returns sheets in cascade order: user sheets, external, then
// embedded.
func (e *Engine) collect() []*css.Sheet {
	out := append([]*css.Sheet(nil), e.opts.UserSheets...)
	for _, s := range e.links {
		out = s.flatten(out)
	}
	for _, s := range e.imported {
		out = s.flatten(out)
	}
	return append(out, e.doc.Sheets...)
}

func (e *Engine) requestSheets() {
	if e.fetcher == nil {
		return
	}
	for _, l := range e.doc.Links {
		s := &slot{}
		e.links = append(e.links, s)
		e.requestSheet(s, l.URL, l.Charset)
	}
	for _, sheet := range e.doc.Sheets {
		for _, imp := range sheet.Imports {
			s := &slot{}
			e.imported = append(e.imported, s)
			e.requestSheet(s, imp.URL, "")
		}
	}
}

func (e *Engine) requestSheet(s *slot, u *url.URL, encoding string) {
	id := e.fetcher.EnqueueStylesheet(u, encoding)
	e.sheets[id] = sheetRequest{slot: s, url: u, encoding: encoding}
}

// sortRules orders rules by ascending specificity keeping source order of
// equal ones, so later rules win.
func sortRules(sheets []*css.Sheet) []*css.Rule {
	var out []*css.Rule
	for _, s := range sheets {
		for _, r := range s.Rules {
			i := len(out)
			for i > 0 && out[i-1].Specificity() > r.Specificity() {
				i--
			}
			out = append(out, nil)
			copy(out[i+1:], out[i:])
			out[i] = r
		}
	}
	return out
}

// OnFetchComplete is the single re-entry point for fetch results. Loaded
// style sheets trigger new cascade pass, loaded images are set on requesting
// nodes. Results for unknown (stale) requests are ignored.
func (e *Engine) OnFetchComplete(id string, res fetch.Result) error {
	if req, ok := e.sheets[id]; ok {
		delete(e.sheets, id)
		return e.sheetLoaded(req, res)
	}
	if req, ok := e.images[id]; ok {
		delete(e.images, id)
		return e.imageLoaded(req, res)
	}
	e.log.Debug("Ignoring stale fetch result", zap.String("id", id))
	return nil
}

func (e *Engine) reportFetch(u string, err error) error {
	code := diag.CodeResourceNotFound
	if errors.Is(err, fetch.ErrBadFormat) {
		code = diag.CodeResourceBadFormat
	}
	return e.rep.Report(diag.Diagnostic{Code: code, Value: u, Message: err.Error()})
}

func (e *Engine) sheetLoaded(req sheetRequest, res fetch.Result) error {
	if res.Err != nil {
		return e.reportFetch(req.url.String(), res.Err)
	}
	sheet, err := e.parser.Parse(res.Data, css.Source{URL: req.url, External: true, Encoding: req.encoding, Name: req.url.String()})
	if err != nil {
		return fmt.Errorf("unable to parse %s: %w", req.url, err)
	}
	req.slot.sheet = sheet
	if e.fetcher != nil {
		for _, imp := range sheet.Imports {
			s := &slot{}
			req.slot.imports = append(req.slot.imports, s)
			e.requestSheet(s, imp.URL, "")
		}
	}
	return e.Apply()
}

func (e *Engine) imageLoaded(req imageRequest, res fetch.Result) error {
	if res.Err != nil {
		return e.reportFetch(req.url, res.Err)
	}
	e.fetched[req.url] = res.Image
	setImage(req.node, req.prop, req.mask, res.Image)
	return nil
}

// image sets already fetched image or requests it.
func (e *Engine) image(n visual.Node, prop css.Property, mask visual.Mask, u *url.URL) {
	key := u.String()
	if img, ok := e.fetched[key]; ok {
		setImage(n, prop, mask, img)
		return
	}
	if e.fetcher == nil || e.asked[imageKey{prop, n, key}] {
		return
	}
	e.asked[imageKey{prop, n, key}] = true
	id := e.fetcher.EnqueueImage(u, n, mask)
	e.images[id] = imageRequest{prop: prop, node: n, mask: mask, url: key}
}

func setImage(n visual.Node, prop css.Property, mask visual.Mask, img *visual.Image) {
	for _, b := range visual.Buckets {
		st := n.Style(b)
		if st == nil || !mask.Has(b) {
			continue
		}
		if prop == css.PropListStyleImage {
			st.ListImage = img
		} else {
			st.BgImage = img
		}
	}
	n.Refresh()
}
