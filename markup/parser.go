// Package markup turns XHTML Mobile Profile like markup into a dom tree. The
// parser never fails on malformed input: problems are reported through
// diag.Reporter and the best possible tree is built. Only diagnostic handler
// may stop parsing.
package markup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"mpdom/css"
	"mpdom/diag"
	"mpdom/dom"
	"mpdom/entity"
)

// Options control parsing.
type Options struct {
	// ProcessStyles diverts <style> content to style sheet parser and
	// collects <link rel="stylesheet"> references.
	ProcessStyles bool
}

// Source describes markup input.
type Source struct {
	// URL is document location, used as base for relative references.
	URL *url.URL
	// ContentType is transport content type, its charset parameter takes
	// precedence over in-document declarations.
	ContentType string
	Name        string
}

// Parser parses markup. It may be reused for many documents but not
// concurrently.
type Parser struct {
	log      *zap.Logger
	rep      *diag.Reporter
	entities *entity.Table
	styles   *css.Parser
	opts     Options
}

// NewParser creates parser. Nil entities means built-in tables only, nil
// styles disables style processing regardless of options.
func NewParser(rep *diag.Reporter, entities *entity.Table, styles *css.Parser, opts Options, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if styles == nil {
		opts.ProcessStyles = false
	}
	return &Parser{
		log:      log.Named("markup"),
		rep:      rep,
		entities: entities,
		styles:   styles,
		opts:     opts,
	}
}

// Parse reads and decodes markup. Returned error is either input error or
// *diag.AbortError (matching diag.ErrMalformedMarkup) when handler stopped
// processing, in the latter case partially built document is returned too.
func (p *Parser) Parse(r io.Reader, src Source) (*Document, error) {
	if _, params, err := mime.ParseMediaType(src.ContentType); err == nil {
		if label, ok := params["charset"]; ok {
			if enc, _ := charset.Lookup(label); enc == nil {
				if err := p.rep.Report(diag.Diagnostic{Code: diag.CodeEncodingUnsupported, Value: label, Message: "unknown document charset"}); err != nil {
					return nil, err
				}
			}
		}
	}
	if src.ContentType == "" {
		src.ContentType = "text/html"
	}
	dr, err := charset.NewReader(r, src.ContentType)
	if err != nil {
		return nil, fmt.Errorf("unable to decode markup: %w", err)
	}
	return p.parse(dr, src)
}

// ParseString parses already decoded markup.
func (p *Parser) ParseString(text string, src Source) (*Document, error) {
	return p.parse(strings.NewReader(text), src)
}

func (p *Parser) parse(r io.Reader, src Source) (*Document, error) {
	s := &state{
		Parser: p,
		in:     &reader{br: bufio.NewReader(r), line: 1},
		doc:    &Document{Root: dom.NewRoot(), Base: src.URL},

		lineStart: true,
	}
	p.log.Debug("Parsing markup", zap.String("source", src.Name))

	_, err := s.content(s.doc.Root)
	if err == nil && s.in.err != nil {
		err = fmt.Errorf("unable to read markup: %w", s.in.err)
	}
	s.doc.Root.Walk(func(e *dom.Element) bool {
		if e.Tag() == dom.TagTitle && s.doc.Title == "" {
			s.doc.Title = strings.TrimSpace(e.InnerText())
		}
		return s.doc.Title == ""
	})
	return s.doc, err
}

// reader is rune source with one rune pushback and line counting.
type reader struct {
	br   *bufio.Reader
	line int
	last rune
	err  error
}

func (r *reader) next() (rune, bool) {
	c, _, err := r.br.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.err = err
		}
		return 0, false
	}
	if c == '\n' {
		r.line++
	}
	r.last = c
	return c, true
}

func (r *reader) back() {
	if r.br.UnreadRune() == nil && r.last == '\n' {
		r.line--
	}
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isNameChar(c rune) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-' || c == ':' || c == '.'
}

// closing tells how content of an element ended: by close tag of an
// ancestor (name) or by end of input.
type closing struct {
	name string
	eof  bool
}

// state is single parse pass.
type state struct {
	*Parser
	in    *reader
	doc   *Document
	stack []string
	pre   int

	// space is pending collapsed whitespace, it is dropped at the start
	// of a line (block boundary) and emitted when text resumes otherwise.
	space     bool
	lineStart bool
}

func (s *state) report(d diag.Diagnostic) error {
	if d.Message == "" {
		d.Message = fmt.Sprintf("line %d", s.in.line)
	} else {
		d.Message = fmt.Sprintf("line %d: %s", s.in.line, d.Message)
	}
	return s.rep.Report(d)
}

func (s *state) open(name string) bool {
	for _, n := range s.stack {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// content parses children of el until its close tag, close tag of an open
// ancestor or end of input.
func (s *state) content(el *dom.Element) (closing, error) {
	var text strings.Builder
	emit := func(str string) {
		if s.space && !s.lineStart {
			text.WriteByte(' ')
		}
		s.space, s.lineStart = false, false
		text.WriteString(str)
	}
	flush := func() {
		if s.space && text.Len() > 0 {
			text.WriteByte(' ')
			s.space = false
		}
		if text.Len() > 0 {
			el.AddChild(dom.NewText(text.String()))
		}
		text.Reset()
	}

	for {
		c, ok := s.in.next()
		if !ok {
			flush()
			return closing{eof: true}, nil
		}
		switch {
		case c == '&':
			str, err := s.entity()
			if err != nil {
				return closing{}, err
			}
			emit(str)
			continue
		case isSpace(c):
			if s.pre > 0 {
				emit(string(c))
			} else {
				s.space = true
			}
			continue
		case c != '<':
			emit(string(c))
			continue
		}

		// '<'
		n, ok := s.in.next()
		switch {
		case !ok:
			if err := s.report(diag.Diagnostic{Code: diag.CodeUnexpectedCharacter, Tag: el.Name(), Value: "<", Message: "markup ends with <"}); err != nil {
				return closing{}, err
			}
			emit("<")
		case n == '/':
			flush()
			name := s.closeTag()
			switch {
			case strings.EqualFold(name, el.Name()):
				return closing{}, nil
			case s.open(name):
				if err := s.report(diag.Diagnostic{Code: diag.CodeNoMatchingCloseTag, Tag: el.Name(), Message: "closed by </" + name + ">"}); err != nil {
					return closing{}, err
				}
				return closing{name: name}, nil
			default:
				if err := s.report(diag.Diagnostic{Code: diag.CodeUnexpectedTagClosing, Tag: name, Message: "nothing to close"}); err != nil {
					return closing{}, err
				}
			}
		case n == '!':
			if cdata := s.declaration(); cdata != "" {
				emit(cdata)
			}
		case n == '?':
			flush()
			s.skipPast("?>")
		case isNameStart(n):
			flush()
			cl, err := s.openTag(el, n)
			if err != nil {
				return closing{}, err
			}
			switch {
			case cl.eof:
				return cl, nil
			case cl.name == "":
			case strings.EqualFold(cl.name, el.Name()):
				return closing{}, nil
			default:
				if err := s.report(diag.Diagnostic{Code: diag.CodeNoMatchingCloseTag, Tag: el.Name(), Message: "closed by </" + cl.name + ">"}); err != nil {
					return closing{}, err
				}
				return cl, nil
			}
		default:
			if err := s.report(diag.Diagnostic{Code: diag.CodeUnexpectedCharacter, Tag: el.Name(), Value: "<" + string(n)}); err != nil {
				return closing{}, err
			}
			s.in.back()
			emit("<")
		}
	}
}

// entity decodes character reference after '&'. Anything which does not
// look like a complete reference is returned literally.
func (s *state) entity() (string, error) {
	var name strings.Builder
	for name.Len() < 32 {
		c, ok := s.in.next()
		if !ok {
			return "&" + name.String(), nil
		}
		if c == ';' {
			sym := name.String()
			r, err := s.entities.Decode(sym)
			if err != nil {
				if err := s.report(diag.Diagnostic{Code: diag.CodeUnrecognizedEntity, Value: sym}); err != nil {
					return "", err
				}
				return "&" + sym + ";", nil
			}
			return string(r), nil
		}
		if !isNameChar(c) && c != '#' {
			// stray & (most likely in URL query)
			s.in.back()
			return "&" + name.String(), nil
		}
		name.WriteRune(c)
	}
	return "&" + name.String(), nil
}

func (s *state) readName(first rune) string {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		c, ok := s.in.next()
		if !ok {
			return sb.String()
		}
		if !isNameChar(c) {
			s.in.back()
			return sb.String()
		}
		sb.WriteRune(c)
	}
}

// closeTag reads close tag name after "</" and skips to '>'.
func (s *state) closeTag() string {
	var name string
	if c, ok := s.in.next(); ok {
		if isNameStart(c) {
			name = s.readName(c)
		} else {
			s.in.back()
		}
	}
	s.skipPast(">")
	return name
}

// skipPast consumes input up to and including terminator.
func (s *state) skipPast(term string) {
	window := make([]rune, 0, len(term))
	for {
		c, ok := s.in.next()
		if !ok {
			return
		}
		if len(window) == len(term) {
			window = window[1:]
		}
		window = append(window, c)
		if string(window) == term {
			return
		}
	}
}

// declaration handles "<!" constructs: comments and doctype are skipped,
// CDATA content is returned.
func (s *state) declaration() string {
	c, ok := s.in.next()
	if !ok {
		return ""
	}
	switch c {
	case '-':
		if n, ok := s.in.next(); ok && n != '-' {
			s.in.back()
		}
		s.skipPast("-->")
		return ""
	case '[':
		var sb strings.Builder
		for range len("CDATA[") {
			n, ok := s.in.next()
			if !ok {
				return ""
			}
			sb.WriteRune(n)
		}
		if !strings.EqualFold(sb.String(), "CDATA[") {
			s.skipPast(">")
			return ""
		}
		return s.rawUntil("]]>")
	}
	s.skipPast(">")
	return ""
}

// rawUntil returns text up to terminator (consumed).
func (s *state) rawUntil(term string) string {
	var sb strings.Builder
	for {
		c, ok := s.in.next()
		if !ok {
			return sb.String()
		}
		sb.WriteRune(c)
		if strings.HasSuffix(sb.String(), term) {
			return strings.TrimSuffix(sb.String(), term)
		}
	}
}

// rawElement returns element content up to its close tag which is matched
// case insensitively and consumed.
func (s *state) rawElement(name string) (string, bool) {
	var sb strings.Builder
	closeTag := "</" + strings.ToLower(name)
	for {
		c, ok := s.in.next()
		if !ok {
			return sb.String(), false
		}
		sb.WriteRune(c)
		str := sb.String()
		if len(str) < len(closeTag) || !strings.EqualFold(str[len(str)-len(closeTag):], closeTag) {
			continue
		}
		n, ok := s.in.next()
		if !ok {
			return str[:len(str)-len(closeTag)], false
		}
		if n == '>' || isSpace(n) {
			if n != '>' {
				s.skipPast(">")
			}
			return str[:len(str)-len(closeTag)], true
		}
		sb.WriteRune(n)
	}
}

type attr struct {
	name, value string
}

// attributes reads attribute list up to the end of the open tag and reports
// whether tag was self closing.
func (s *state) attributes(tag string) ([]attr, bool, error) {
	var attrs []attr
	for {
		c, ok := s.in.next()
		switch {
		case !ok:
			return attrs, false, nil
		case isSpace(c):
			continue
		case c == '>':
			return attrs, false, nil
		case c == '/':
			if n, ok := s.in.next(); ok && n == '>' {
				return attrs, true, nil
			} else if ok {
				s.in.back()
			}
		case isNameStart(c):
			name := s.readName(c)
			value, end, err := s.attrValue()
			if err != nil {
				return attrs, false, err
			}
			attrs = append(attrs, attr{name: name, value: value})
			switch end {
			case '>':
				return attrs, false, nil
			case '/':
				return attrs, true, nil
			}
		default:
			if err := s.report(diag.Diagnostic{Code: diag.CodeUnexpectedCharacter, Tag: tag, Value: string(c), Message: "in attribute list"}); err != nil {
				return attrs, false, err
			}
		}
	}
}

// attrValue reads optional "= value" part. Attributes without value get
// empty one. When unquoted value is terminated by the end of the tag, end is
// '>' or '/' (for "/>").
func (s *state) attrValue() (value string, end rune, err error) {
	c, ok := s.skipSpaces()
	if !ok {
		return "", 0, nil
	}
	if c != '=' {
		s.in.back()
		return "", 0, nil
	}
	c, ok = s.skipSpaces()
	if !ok {
		return "", 0, nil
	}
	var sb strings.Builder
	quote := rune(0)
	if c == '"' || c == '\'' {
		quote = c
	} else {
		s.in.back()
	}
	for {
		c, ok := s.in.next()
		if !ok {
			return sb.String(), 0, nil
		}
		switch {
		case quote != 0 && c == quote:
			return sb.String(), 0, nil
		case quote == 0 && isSpace(c):
			return sb.String(), 0, nil
		case quote == 0 && c == '>':
			return sb.String(), '>', nil
		case quote == 0 && c == '/':
			n, ok := s.in.next()
			if ok && n == '>' {
				return sb.String(), '/', nil
			}
			if ok {
				s.in.back()
			}
			sb.WriteRune(c)
		case c == '&':
			str, err := s.entity()
			if err != nil {
				return "", 0, err
			}
			sb.WriteString(str)
		default:
			sb.WriteRune(c)
		}
	}
}

func (s *state) skipSpaces() (rune, bool) {
	for {
		c, ok := s.in.next()
		if !ok || !isSpace(c) {
			return c, ok
		}
	}
}

// emptyUnsupported are unsupported tags which never have content.
var emptyUnsupported = map[string]bool{
	"wbr": true, "embed": true, "area": true, "col": true, "frame": true,
	"basefont": true, "isindex": true, "bgsound": true, "spacer": true,
}

// openTag parses element started with "<" + first and its content.
func (s *state) openTag(parent *dom.Element, first rune) (closing, error) {
	name := s.readName(first)
	attrs, selfClosed, err := s.attributes(name)
	if err != nil {
		return closing{}, err
	}

	el := dom.New(name)
	if !el.Supported() {
		if err := s.report(diag.Diagnostic{Code: diag.CodeTagNotSupported, Tag: name}); err != nil {
			return closing{}, err
		}
		if !selfClosed && !emptyUnsupported[strings.ToLower(name)] {
			if _, ok := s.rawElement(name); !ok {
				return closing{eof: true}, nil
			}
		}
		return closing{}, nil
	}

	for _, a := range attrs {
		err := el.SetAttribute(a.name, a.value)
		if err == nil {
			continue
		}
		code := diag.CodeAttributeValueInvalid
		if errors.Is(err, dom.ErrAttributeNotSupported) {
			code = diag.CodeAttributeNotSupported
		}
		if err := s.report(diag.Diagnostic{Code: code, Tag: el.Name(), Attr: a.name, Value: a.value, Message: err.Error()}); err != nil {
			return closing{}, err
		}
	}
	parent.AddChild(el)

	switch el.Tag() {
	case dom.TagBase:
		if err := s.base(el); err != nil {
			return closing{}, err
		}
	case dom.TagLink:
		if err := s.link(el); err != nil {
			return closing{}, err
		}
	case dom.TagStyle:
		if selfClosed {
			return closing{}, nil
		}
		return s.style(el)
	}

	if el.Tag().Block() || el.Tag() == dom.TagBr {
		s.lineStart = true
		defer func() { s.lineStart = true }()
	}
	if selfClosed || el.Tag().Empty() {
		return closing{}, nil
	}

	if el.Tag() == dom.TagPre {
		s.pre++
		defer func() { s.pre-- }()
	}
	s.stack = append(s.stack, el.Name())
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	cl, err := s.content(el)
	if err != nil {
		return closing{}, err
	}
	if cl.eof {
		if err := s.report(diag.Diagnostic{Code: diag.CodeNoMatchingCloseTag, Tag: el.Name(), Message: "unexpected end of markup"}); err != nil {
			return closing{}, err
		}
	}
	return cl, nil
}

// resolve makes reference absolute against current base.
func (s *state) resolve(tag, attr, ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, s.report(diag.Diagnostic{Code: diag.CodeAttributeValueInvalid, Tag: tag, Attr: attr, Value: ref, Message: err.Error()})
	}
	if u.IsAbs() {
		return u, nil
	}
	if s.doc.Base == nil {
		return nil, s.report(diag.Diagnostic{Code: diag.CodeNoBaseUrlForRelativeReference, Tag: tag, Attr: attr, Value: ref})
	}
	return s.doc.Base.ResolveReference(u), nil
}

func (s *state) base(el *dom.Element) error {
	href, ok := el.Attribute(dom.AttrHref)
	if !ok {
		return nil
	}
	u, err := s.resolve(el.Name(), "href", href)
	if err != nil || u == nil {
		return err
	}
	s.doc.Base = u
	return nil
}

func (s *state) link(el *dom.Element) error {
	if !s.opts.ProcessStyles {
		return nil
	}
	rel, _ := el.Attribute(dom.AttrRel)
	words := strings.Fields(strings.ToLower(rel))
	stylesheet, alternate := false, false
	for _, w := range words {
		switch w {
		case "stylesheet":
			stylesheet = true
		case "alternate":
			alternate = true
		}
	}
	if !stylesheet || alternate {
		return nil
	}
	media, _ := el.Attribute(dom.AttrMedia)
	if !s.styles.MediaMatches(media) {
		s.log.Debug("Skipping style sheet link for other media", zap.String("media", media))
		return nil
	}
	href, ok := el.Attribute(dom.AttrHref)
	if !ok || strings.TrimSpace(href) == "" {
		return nil
	}
	u, err := s.resolve(el.Name(), "href", href)
	if err != nil || u == nil {
		return err
	}
	cs, _ := el.Attribute(dom.AttrCharset)
	title, _ := el.Attribute(dom.AttrTitle)
	s.doc.Links = append(s.doc.Links, Link{URL: u, Media: media, Charset: cs, Title: title})
	return nil
}

// style diverts raw <style> content to style sheet parser. Without style
// processing content is kept as text.
func (s *state) style(el *dom.Element) (closing, error) {
	raw, ok := s.rawElement(el.Name())
	if !s.opts.ProcessStyles {
		if strings.TrimSpace(raw) != "" {
			el.AddChild(dom.NewText(raw))
		}
	} else if media, _ := el.Attribute(dom.AttrMedia); s.styles.MediaMatches(media) {
		sheet, err := s.styles.Parse([]byte(raw), css.Source{URL: s.doc.Base, Name: "embedded style"})
		if err != nil {
			return closing{}, err
		}
		s.doc.Sheets = append(s.doc.Sheets, sheet)
	}
	if !ok {
		return closing{eof: true}, nil
	}
	return closing{}, nil
}
