// Package css parses style sheets into rules: embedded and external sheets
// into Sheet, style attributes into anonymous inline rules.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"mpdom/diag"
)

var (
	ErrPropertyNotSupported = errors.New("property not supported")
	ErrPropertyValueInvalid = errors.New("property value invalid")
)

// DefaultMedia is used when parser is created without explicit media list.
var DefaultMedia = []string{"handheld"}

// Source describes where sheet text came from.
type Source struct {
	// URL is location of external sheet or base of the document for
	// embedded sheets and style attributes. May be nil.
	URL      *url.URL
	External bool
	// Encoding is transport level charset label of external sheet.
	Encoding string
	// Name is used for logging only.
	Name string
}

// Parser parses CSS into rules.
type Parser struct {
	log   *zap.Logger
	rep   *diag.Reporter
	media []string
}

// NewParser creates a new CSS parser. Media lists types (besides "all")
// this device renders, @media blocks and imports for other types are
// dropped.
func NewParser(rep *diag.Reporter, media []string, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if len(media) == 0 {
		media = DefaultMedia
	}
	lower := make([]string, 0, len(media))
	for _, m := range media {
		lower = append(lower, strings.ToLower(strings.TrimSpace(m)))
	}
	return &Parser{log: log.Named("css-parser"), rep: rep, media: lower}
}

// MediaMatches tests comma separated media list. Empty list and "all" match
// always, otherwise an item must contain one of supported media types.
func (p *Parser) MediaMatches(list string) bool {
	list = strings.ToLower(strings.TrimSpace(list))
	if list == "" {
		return true
	}
	for item := range strings.SplitSeq(list, ",") {
		item = strings.TrimSpace(item)
		if item == "all" {
			return true
		}
		for _, m := range p.media {
			if strings.Contains(item, m) {
				return true
			}
		}
	}
	return false
}

// Parse parses CSS text into a Sheet. Only error returned is abort requested
// by diagnostic handler, everything else is reported and skipped.
func (p *Parser) Parse(data []byte, src Source) (*Sheet, error) {
	sheet := &Sheet{Source: src}
	if src.External {
		var err error
		if data, err = p.decode(data, src.Encoding); err != nil {
			return sheet, err
		}
	}
	p.log.Debug("Parsing CSS", zap.String("source", src.Name), zap.Bool("external", src.External), zap.Int("bytes", len(data)))

	sp := &sheetParser{Parser: p, tz: NewTokenizer(data), sheet: sheet}
	if err := sp.statements(false); err != nil {
		return sheet, err
	}
	if err := sp.tz.Err(); err != nil {
		p.log.Debug("CSS lexer error", zap.String("source", src.Name), zap.Error(err))
	}
	return sheet, nil
}

// ParseInline parses content of style attribute.
func (p *Parser) ParseInline(style string) (*Rule, error) {
	sp := &sheetParser{Parser: p, tz: NewTokenizer([]byte(style)), sheet: &Sheet{}}
	decls, err := sp.declarations()
	if err != nil {
		return nil, err
	}
	return NewInlineRule(decls), nil
}

// ParseDeclaration parses single "name: value" pair, reporting problems
// same way sheets do. Errors wrap ErrPropertyNotSupported or
// ErrPropertyValueInvalid.
func ParseDeclaration(name, value string) (Declarations, error) {
	tz := NewTokenizer([]byte(value))
	var tokens []Token
	for tok := tz.Next(); tok.Kind != TokenEOF; tok = tz.Next() {
		tokens = append(tokens, tok)
	}
	d := Declarations{}
	return d, expand(d, name, trim(tokens))
}

// decode turns external sheet into UTF-8 honoring @charset rule (which must
// be the very first thing in the sheet) or transport encoding.
func (p *Parser) decode(data []byte, hint string) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))

	var enc encoding.Encoding
	const prefix = `@charset "`
	if bytes.HasPrefix(data, []byte(prefix)) {
		end := bytes.Index(data, []byte(`";`))
		if end < 0 {
			return data, nil
		}
		label := string(data[len(prefix):end])
		data = data[end+2:]
		if enc, _ = charset.Lookup(label); enc == nil {
			return data, p.rep.Report(diag.Diagnostic{Code: diag.CodeEncodingUnsupported, Value: label, Message: "unknown @charset"})
		}
	} else if hint != "" {
		var err error
		if enc, err = ianaindex.IANA.Encoding(hint); err != nil || enc == nil {
			return data, p.rep.Report(diag.Diagnostic{Code: diag.CodeEncodingUnsupported, Value: hint, Message: "unknown transport encoding"})
		}
	}
	if enc == nil || enc == encoding.Nop {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data, p.rep.Report(diag.Diagnostic{Code: diag.CodeEncodingUnsupported, Message: err.Error()})
	}
	return out, nil
}

type sheetParser struct {
	*Parser
	tz    *Tokenizer
	sheet *Sheet
	// seen is set after the first statement, @charset is honored only before it.
	seen bool
}

// statements parses rule sets and at-rules until end of input or, when
// nested, closing brace.
func (sp *sheetParser) statements(nested bool) error {
	for {
		tok := sp.tz.NextSignificant()
		switch tok.Kind {
		case TokenEOF:
			return nil
		case TokenRBrace:
			if nested {
				return nil
			}
			sp.log.Debug("Stray closing brace")
		case TokenSemicolon:
		case TokenAtKeyword:
			if err := sp.atRule(strings.ToLower(tok.Data)); err != nil {
				return err
			}
		default:
			sp.tz.Unread(tok)
			if err := sp.ruleSet(); err != nil {
				return err
			}
		}
		sp.seen = true
	}
}

func (sp *sheetParser) atRule(name string) error {
	switch name {
	case "@charset":
		sp.until(TokenSemicolon)
		if !sp.sheet.Source.External || sp.seen {
			sp.log.Debug("Ignoring @charset", zap.String("source", sp.sheet.Source.Name))
		}
		return nil

	case "@import":
		tokens, _ := sp.until(TokenSemicolon)
		sig := significant(tokens)
		if len(sig) == 0 {
			return sp.rep.Report(diag.Diagnostic{Code: diag.CodeCssAttributeValueInvalid, Attr: "@import", Message: "missing address"})
		}
		var addr string
		switch sig[0].Kind {
		case TokenString:
			addr = unquote(sig[0].Data)
		case TokenURL, TokenFunction:
			addr = extractURL(sig[0].Data)
		default:
			return sp.rep.Report(diag.Diagnostic{Code: diag.CodeCssAttributeValueInvalid, Attr: "@import", Value: sig[0].Data})
		}
		media := joinRaw(tokens[indexAfter(tokens, sig[0]):])
		if !sp.MediaMatches(media) {
			sp.log.Debug("Skipping @import for other media", zap.String("url", addr), zap.String("media", media))
			return nil
		}
		u, err := sp.resolve(addr)
		if err != nil || u == nil {
			return err
		}
		sp.sheet.Imports = append(sp.sheet.Imports, Import{URL: u, Media: media})
		sp.log.Debug("Parsed @import", zap.Stringer("url", u))
		return nil

	case "@media":
		tokens, term := sp.until(TokenLBrace)
		if term.Kind != TokenLBrace {
			return nil
		}
		media := joinRaw(tokens)
		if !sp.MediaMatches(media) {
			sp.log.Debug("Skipping @media block", zap.String("media", media))
			sp.skipBlock()
			return nil
		}
		return sp.statements(true)
	}

	sp.log.Debug("Skipping @-rule", zap.String("rule", name))
	if _, term := sp.until(TokenSemicolon, TokenLBrace); term.Kind == TokenLBrace {
		sp.skipBlock()
	}
	return nil
}

// resolve makes address absolute against sheet source. Relative address
// without base is reported and nil is returned.
func (sp *sheetParser) resolve(addr string) (*url.URL, error) {
	ref, err := url.Parse(addr)
	if err != nil {
		return nil, sp.rep.Report(diag.Diagnostic{Code: diag.CodeCssAttributeValueInvalid, Value: addr, Message: err.Error()})
	}
	if ref.IsAbs() {
		return ref, nil
	}
	if sp.sheet.Source.URL == nil {
		return nil, sp.rep.Report(diag.Diagnostic{Code: diag.CodeNoBaseUrlForRelativeReference, Value: addr})
	}
	return sp.sheet.Source.URL.ResolveReference(ref), nil
}

// until collects tokens up to one of terminators (consumed, returned
// separately) or end of input.
func (sp *sheetParser) until(kinds ...TokenKind) ([]Token, Token) {
	var tokens []Token
	for {
		tok := sp.tz.Next()
		if tok.Kind == TokenEOF {
			return tokens, tok
		}
		for _, k := range kinds {
			if tok.Kind == k {
				return tokens, tok
			}
		}
		tokens = append(tokens, tok)
	}
}

// skipBlock skips to the brace closing already opened block.
func (sp *sheetParser) skipBlock() {
	depth := 1
	for depth > 0 {
		switch sp.tz.Next().Kind {
		case TokenEOF:
			return
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
		}
	}
}

func (sp *sheetParser) ruleSet() error {
	selector, term := sp.until(TokenLBrace, TokenRBrace, TokenSemicolon)
	switch term.Kind {
	case TokenEOF:
		return nil
	case TokenRBrace, TokenSemicolon:
		sp.log.Debug("Dropping garbage", zap.String("text", joinRaw(selector)))
		if term.Kind == TokenRBrace {
			sp.tz.Unread(term)
		}
		return nil
	}

	decls, err := sp.declarations()
	if err != nil {
		return err
	}

	for _, group := range splitGroups(selector) {
		levels, err := parseSelector(group)
		if err != nil {
			if err := sp.rep.Report(diag.Diagnostic{Code: diag.CodeCssSelectorNotSupported, Value: joinRaw(group), Message: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if len(decls) == 0 {
			continue
		}
		sp.sheet.Rules = append(sp.sheet.Rules, newChain(levels, decls))
	}
	return nil
}

// declarations parses declaration list up to closing brace or end of input.
func (sp *sheetParser) declarations() (Declarations, error) {
	decls := Declarations{}
	for {
		tok := sp.tz.NextSignificant()
		switch tok.Kind {
		case TokenEOF, TokenRBrace:
			return decls, nil
		case TokenSemicolon:
			continue
		case TokenIdent:
		default:
			sp.log.Debug("Unexpected token in declarations", zap.Stringer("kind", tok.Kind), zap.String("data", tok.Data))
			if _, term := sp.until(TokenSemicolon, TokenRBrace); term.Kind == TokenRBrace {
				return decls, nil
			}
			continue
		}

		name := strings.ToLower(tok.Data)
		if colon := sp.tz.NextSignificant(); colon.Kind != TokenColon {
			if err := sp.rep.Report(diag.Diagnostic{Code: diag.CodeCssAttributeValueInvalid, Attr: name, Message: "colon expected"}); err != nil {
				return decls, err
			}
			switch colon.Kind {
			case TokenRBrace, TokenEOF:
				return decls, nil
			case TokenSemicolon:
				continue
			}
			if _, term := sp.until(TokenSemicolon, TokenRBrace); term.Kind != TokenSemicolon {
				return decls, nil
			}
			continue
		}

		value, term := sp.until(TokenSemicolon, TokenRBrace)
		if err := sp.declare(decls, name, stripImportant(trim(value))); err != nil {
			return decls, err
		}
		if term.Kind != TokenSemicolon {
			return decls, nil
		}
	}
}

func (sp *sheetParser) declare(d Declarations, name string, tokens []Token) error {
	err := expand(d, name, tokens)
	if err == nil {
		return nil
	}
	code := diag.CodeCssAttributeValueInvalid
	if errors.Is(err, ErrPropertyNotSupported) {
		code = diag.CodeCssAttributeNotSupported
	}
	return sp.rep.Report(diag.Diagnostic{Code: code, Attr: name, Value: joinRaw(tokens), Message: err.Error()})
}

// expand stores declaration into d, expanding shorthands. Nothing is stored
// on error.
func expand(d Declarations, name string, tokens []Token) error {
	if len(tokens) == 0 {
		return fmt.Errorf("%w: %s has no value", ErrPropertyValueInvalid, name)
	}
	sig := significant(tokens)

	if ex, ok := shorthands[name]; ok {
		words := make([]Value, 0, len(sig))
		for _, t := range sig {
			v, err := parseTerm(t)
			if err != nil {
				if name == "font" {
					continue
				}
				return fmt.Errorf("%w: %w", ErrPropertyValueInvalid, err)
			}
			words = append(words, v)
		}
		if err := ex(d, words, tokens); err != nil {
			return fmt.Errorf("%w: %w", ErrPropertyValueInvalid, err)
		}
		return nil
	}

	prop := LookupProperty(name)
	if prop == PropUnknown {
		return fmt.Errorf("%w: %s", ErrPropertyNotSupported, name)
	}

	var v Value
	switch {
	case prop == PropFontFamily:
		var err error
		if v, err = parseFamily(tokens); err != nil {
			return fmt.Errorf("%w: %w", ErrPropertyValueInvalid, err)
		}
	case prop == PropTextDecoration && len(sig) > 1:
		words := make([]string, 0, len(sig))
		for _, t := range sig {
			if t.Kind != TokenIdent {
				return fmt.Errorf("%w: %s", ErrPropertyValueInvalid, t.Data)
			}
			words = append(words, strings.ToLower(t.Data))
		}
		v = Value{Raw: joinRaw(tokens), Kind: KindKeyword, Keyword: strings.Join(words, " ")}
	case len(sig) != 1:
		return fmt.Errorf("%w: single value expected for %s", ErrPropertyValueInvalid, name)
	default:
		var err error
		if v, err = parseTerm(sig[0]); err != nil {
			return fmt.Errorf("%w: %w", ErrPropertyValueInvalid, err)
		}
	}
	if !prop.accept(v) {
		return fmt.Errorf("%w: %q for %s", ErrPropertyValueInvalid, v.Raw, name)
	}
	d[prop] = v
	return nil
}

// trim drops leading and trailing whitespace tokens.
func trim(tokens []Token) []Token {
	for len(tokens) > 0 && tokens[0].Kind == TokenWhitespace {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].Kind == TokenWhitespace {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// stripImportant removes trailing "!important", priority is not honored.
func stripImportant(tokens []Token) []Token {
	n := len(tokens)
	if n >= 2 && tokens[n-1].Is(TokenIdent, "important") && tokens[n-2].Is(TokenDelim, "!") {
		return trim(tokens[:n-2])
	}
	return tokens
}

func indexAfter(tokens []Token, tok Token) int {
	for i, t := range tokens {
		if t == tok {
			return i + 1
		}
	}
	return len(tokens)
}

// splitGroups splits grouped selector on commas.
func splitGroups(tokens []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range tokens {
		if t.Kind == TokenComma {
			groups = append(groups, trim(cur))
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return append(groups, trim(cur))
}

// parseSelector turns tokens of one selector into chain levels.
func parseSelector(tokens []Token) ([]*Rule, error) {
	if len(tokens) == 0 {
		return nil, errors.New("empty selector")
	}
	var (
		levels []*Rule
		cur    = &Rule{}
		filled bool
	)
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.Kind == TokenWhitespace:
			if filled {
				levels = append(levels, cur)
				cur, filled = &Rule{}, false
			}
			continue
		case t.Kind == TokenIdent:
			if filled {
				return nil, fmt.Errorf("unexpected %q", t.Data)
			}
			cur.Tag = strings.ToLower(t.Data)
		case t.Is(TokenDelim, "*"):
			if filled {
				return nil, errors.New("unexpected *")
			}
		case t.Is(TokenDelim, "."):
			if i+1 >= len(tokens) || tokens[i+1].Kind != TokenIdent {
				return nil, errors.New("class name expected")
			}
			i++
			cur.Classes = append(cur.Classes, tokens[i].Data)
		case t.Kind == TokenHash:
			if cur.ID != "" {
				return nil, errors.New("more than one id")
			}
			cur.ID = strings.TrimPrefix(t.Data, "#")
		case t.Kind == TokenColon:
			if i+1 >= len(tokens) || tokens[i+1].Kind != TokenIdent {
				return nil, errors.New("pseudo-class expected")
			}
			i++
			ps := lookupPseudo(tokens[i].Data)
			if ps == 0 {
				return nil, fmt.Errorf("pseudo-class :%s", tokens[i].Data)
			}
			cur.Pseudo |= ps
		case t.Kind == TokenDelim && (t.Data == ">" || t.Data == "+" || t.Data == "~"):
			return nil, fmt.Errorf("combinator %q", t.Data)
		case t.Kind == TokenLBracket:
			return nil, errors.New("attribute selector")
		default:
			return nil, fmt.Errorf("unexpected %q", t.Data)
		}
		filled = true
	}
	if filled {
		levels = append(levels, cur)
	}
	return levels, nil
}
