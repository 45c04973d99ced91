package markup_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mpdom/css"
	"mpdom/diag"
	"mpdom/dom"
	"mpdom/entity"
	"mpdom/markup"
)

type collector struct {
	diags []diag.Diagnostic
	stop  diag.Code
	abort bool
}

func (c *collector) handle(d diag.Diagnostic) bool {
	c.diags = append(c.diags, d)
	return !(c.abort && d.Code == c.stop)
}

func (c *collector) count(code diag.Code) int {
	var n int
	for _, d := range c.diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func newParser(t *testing.T, c *collector, styles bool) *markup.Parser {
	t.Helper()
	log := zaptest.NewLogger(t)
	rep := diag.NewReporter(c.handle, log)
	return markup.NewParser(rep, entity.NewTable(), css.NewParser(rep, nil, log), markup.Options{ProcessStyles: styles}, log)
}

func parse(t *testing.T, c *collector, text string) *markup.Document {
	t.Helper()
	doc, err := newParser(t, c, true).ParseString(text, markup.Source{Name: t.Name()})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

// shape renders tree compactly: tag[children] and "text".
func shape(e *dom.Element) string {
	if e.IsText() {
		return `"` + e.Text() + `"`
	}
	var sb strings.Builder
	sb.WriteString(e.Name())
	for _, av := range e.Attributes() {
		sb.WriteString(" " + av.Attr.String() + "=" + av.Value)
	}
	if len(e.Children()) > 0 {
		sb.WriteString("[")
		for i, c := range e.Children() {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(shape(c))
		}
		sb.WriteString("]")
	}
	return sb.String()
}

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "nesting order",
			input: `<html><body><p>one <b>two</b> three</p><p>four</p></body></html>`,
			want:  `#root[html[body[p["one ",b["two"]," three"],p["four"]]]]`,
		},
		{
			name:  "attributes",
			input: `<p class="x y" id=first>a</p><img src="i.png" alt='pic' width="20" />`,
			want:  `#root[p class=x y id=first["a"],img src=i.png alt=pic width=20]`,
		},
		{
			name:  "attribute values kept as written",
			input: `<p align="CENTER" class="a  b">x</p><img src="i.png" width="10px"/>`,
			want:  `#root[p class=a  b align=CENTER["x"],img src=i.png width=10px]`,
		},
		{
			name:  "whitespace collapse",
			input: "<p>\n   a \t\n b   </p>\n\n<p> </p>",
			want:  `#root[p["a b "],p]`,
		},
		{
			name:  "pre keeps whitespace",
			input: "<pre>a  b\n c</pre>",
			want:  "#root[pre[\"a  b\n c\"]]",
		},
		{
			name:  "entities",
			input: `<p>a&amp;b&lt;&#65;&#x42;&nbsp;</p>`,
			want:  "#root[p[\"a&b<AB\u00a0\"]]",
		},
		{
			name:  "ampersand in url query",
			input: `<a href="page.php?a=1&b=2&amp;c=3">x &amp y</a>`,
			want:  `#root[a href=page.php?a=1&b=2&c=3["x &amp y"]]`,
		},
		{
			name:  "comments doctype and cdata",
			input: `<!DOCTYPE html><?xml version="1.0"?><p>a<!-- <b>no</b> --->b<![CDATA[<c>]]></p>`,
			want:  `#root[p["ab<c>"]]`,
		},
		{
			name:  "empty tags",
			input: `<p>a<br>b<hr/>c</p>`,
			want:  `#root[p["a",br,"b",hr,"c"]]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, &collector{}, tt.input)
			if got := shape(doc.Root); got != tt.want {
				t.Errorf("tree\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestParse_UnknownEntity(t *testing.T) {
	c := &collector{}
	doc := parse(t, c, `<p>a &zzz; b</p>`)
	if got := doc.Root.InnerText(); got != "a &zzz; b" {
		t.Errorf("text = %q", got)
	}
	if n := c.count(diag.CodeUnrecognizedEntity); n != 1 {
		t.Errorf("UnrecognizedEntity reported %d times", n)
	}
}

func TestParse_UserEntity(t *testing.T) {
	c := &collector{}
	log := zaptest.NewLogger(t)
	tbl := entity.NewTable()
	tbl.Register("logo", 0xE000)
	p := markup.NewParser(diag.NewReporter(c.handle, log), tbl, nil, markup.Options{}, log)
	doc, err := p.ParseString(`<p>&logo;</p>`, markup.Source{})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Root.InnerText(); got != "\ue000" {
		t.Errorf("text = %q", got)
	}
}

func TestParse_CloseTagRecovery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		noMatch int
		stray   int
	}{
		{
			name:    "ancestor closes",
			input:   `<div><p><b>a</div>b`,
			want:    `#root[div[p[b["a"]]],"b"]`,
			noMatch: 2,
		},
		{
			name:  "stray close",
			input: `<p>a</i>b</p>`,
			want:  `#root[p["a","b"]]`,
			stray: 1,
		},
		{
			name:    "unclosed at end",
			input:   `<div><p>a`,
			want:    `#root[div[p["a"]]]`,
			noMatch: 2,
		},
		{
			name:  "case insensitive close",
			input: `<P>a</p>`,
			want:  `#root[p["a"]]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &collector{}
			doc := parse(t, c, tt.input)
			if got := shape(doc.Root); got != tt.want {
				t.Errorf("tree\n got: %s\nwant: %s", got, tt.want)
			}
			if n := c.count(diag.CodeNoMatchingCloseTag); n != tt.noMatch {
				t.Errorf("NoMatchingCloseTag = %d, want %d", n, tt.noMatch)
			}
			if n := c.count(diag.CodeUnexpectedTagClosing); n != tt.stray {
				t.Errorf("UnexpectedTagClosing = %d, want %d", n, tt.stray)
			}
		})
	}
}

func TestParse_Abort(t *testing.T) {
	c := &collector{abort: true, stop: diag.CodeNoMatchingCloseTag}
	_, err := newParser(t, c, false).ParseString(`<div><p>a</div><p>never</p>`, markup.Source{})
	if !errors.Is(err, diag.ErrMalformedMarkup) {
		t.Fatalf("error = %v, want ErrMalformedMarkup", err)
	}
	var ae *diag.AbortError
	if !errors.As(err, &ae) || ae.Diagnostic.Tag != "p" {
		t.Errorf("abort diagnostic = %+v", ae)
	}
}

func TestParse_UnsupportedTag(t *testing.T) {
	c := &collector{}
	doc := parse(t, c, `<p>a<script>if (a < b) { x("</p>") }</SCRIPT>b<wbr>c<embed src="x"/>d</p>`)
	if got, want := shape(doc.Root), `#root[p["a","b","c","d"]]`; got != want {
		t.Errorf("tree\n got: %s\nwant: %s", got, want)
	}
	if n := c.count(diag.CodeTagNotSupported); n != 3 {
		t.Errorf("TagNotSupported = %d, want 3", n)
	}
}

func TestParse_UnsupportedAttribute(t *testing.T) {
	c := &collector{}
	with := parse(t, c, `<p bogus="1" class="c">a</p><td colspan="x">b</td>`)
	without := parse(t, &collector{}, `<p class="c">a</p><td>b</td>`)
	if shape(with.Root) != shape(without.Root) {
		t.Errorf("trees differ\n%s\n%s", shape(with.Root), shape(without.Root))
	}
	if n := c.count(diag.CodeAttributeNotSupported); n != 1 {
		t.Errorf("AttributeNotSupported = %d", n)
	}
	if n := c.count(diag.CodeAttributeValueInvalid); n != 1 {
		t.Errorf("AttributeValueInvalid = %d", n)
	}
	for _, d := range c.diags {
		if d.Code == diag.CodeAttributeNotSupported && (d.Tag != "p" || d.Attr != "bogus") {
			t.Errorf("diagnostic = %+v", d)
		}
	}
}

func TestParse_UnexpectedCharacter(t *testing.T) {
	c := &collector{}
	doc := parse(t, c, `<p>1 < 2</p>`)
	if got := doc.Root.InnerText(); got != "1 < 2" {
		t.Errorf("text = %q", got)
	}
	if n := c.count(diag.CodeUnexpectedCharacter); n != 1 {
		t.Errorf("UnexpectedCharacter = %d", n)
	}
}

func TestParse_Styles(t *testing.T) {
	base, _ := url.Parse("http://example.com/dir/page.html")
	input := `<html><head><title> Page </title>
<base href="/other/">
<style type="text/css">p{color:#ff0000}</style>
<style media="print">p{color:#00ff00}</style>
<link rel="stylesheet" href="a.css" charset="utf-8"/>
<link rel="alternate stylesheet" href="b.css"/>
<link rel="stylesheet" media="screen" href="c.css"/>
</head><body id="b"><p>x</p></body></html>`

	c := &collector{}
	doc, err := newParser(t, c, true).ParseString(input, markup.Source{URL: base})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Page" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Base.String() != "http://example.com/other/" {
		t.Errorf("base = %s", doc.Base)
	}
	if len(doc.Sheets) != 1 {
		t.Fatalf("sheets = %d, want 1", len(doc.Sheets))
	}
	if got := doc.Sheets[0].Rules[0].Declarations()[css.PropColor].Color; got != 0xFF0000 {
		t.Errorf("color = %v", got)
	}
	if len(doc.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(doc.Links))
	}
	if l := doc.Links[0]; l.URL.String() != "http://example.com/other/a.css" || l.Charset != "utf-8" {
		t.Errorf("link = %+v", l)
	}
	if doc.Body().ID() != "b" || doc.ByID("b") != doc.Body() {
		t.Errorf("body lookup failed")
	}
	style := doc.Root.Children()[0].Children()[0].Children()[2]
	if style.Tag() != dom.TagStyle || len(style.Children()) != 0 {
		t.Errorf("style content not diverted: %s", shape(style))
	}
}

func TestParse_StylesDisabled(t *testing.T) {
	doc, err := newParser(t, &collector{}, false).ParseString(`<style>p{color:red}</style><link rel="stylesheet" href="http://x/a.css"/>`, markup.Source{})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sheets) != 0 || len(doc.Links) != 0 {
		t.Errorf("styles processed: %d sheets, %d links", len(doc.Sheets), len(doc.Links))
	}
	if got := shape(doc.Root); got != `#root[style["p{color:red}"],link href=http://x/a.css rel=stylesheet]` {
		t.Errorf("tree = %s", got)
	}
}

func TestParse_RelativeLinkWithoutBase(t *testing.T) {
	c := &collector{}
	doc := parse(t, c, `<link rel="stylesheet" href="a.css"/>`)
	if len(doc.Links) != 0 {
		t.Errorf("links = %+v", doc.Links)
	}
	if n := c.count(diag.CodeNoBaseUrlForRelativeReference); n != 1 {
		t.Errorf("NoBaseUrlForRelativeReference = %d", n)
	}
}

func TestParse_Charset(t *testing.T) {
	doc, err := newParser(t, &collector{}, false).Parse(strings.NewReader("<p>\xcf\xf0\xe8</p>"), markup.Source{ContentType: "text/html; charset=windows-1251"})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Root.InnerText(); got != "При" {
		t.Errorf("text = %q", got)
	}

	c := &collector{}
	_, err = newParser(t, c, false).Parse(strings.NewReader("<p>a</p>"), markup.Source{ContentType: "text/html; charset=x-unknown-thing"})
	if err != nil {
		t.Fatal(err)
	}
	if n := c.count(diag.CodeEncodingUnsupported); n != 1 {
		t.Errorf("EncodingUnsupported = %d", n)
	}
}
