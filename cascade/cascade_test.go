package cascade_test

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"go.uber.org/zap/zaptest"

	"mpdom/cascade"
	"mpdom/common"
	"mpdom/css"
	"mpdom/diag"
	"mpdom/fetch"
	"mpdom/markup"
	"mpdom/visual"
	"mpdom/visual/box"
)

type request struct {
	kind fetch.Kind
	url  string
	node visual.Node
	mask visual.Mask
}

// recorder is a fetcher which only remembers requests.
type recorder struct {
	reqs map[string]request
	n    int
}

func (r *recorder) add(req request) string {
	r.n++
	id := fmt.Sprintf("r%d", r.n)
	if r.reqs == nil {
		r.reqs = map[string]request{}
	}
	r.reqs[id] = req
	return id
}

func (r *recorder) EnqueueStylesheet(u *url.URL, _ string) string {
	return r.add(request{kind: fetch.KindStylesheet, url: u.String()})
}

func (r *recorder) EnqueueImage(u *url.URL, n visual.Node, m visual.Mask) string {
	return r.add(request{kind: fetch.KindImage, url: u.String(), node: n, mask: m})
}

type fixture struct {
	doc    *markup.Document
	root   *box.Box
	engine *cascade.Engine
	ctx    *cascade.Context
	diags  []diag.Diagnostic
	abort  diag.Code
	stop   bool
}

type setup struct {
	base    string
	fetcher fetch.Fetcher
	catalog visual.FontCatalog
	abortOn *diag.Code
	user    []string
	wrap    common.WrapMode
}

func newFixture(t *testing.T, input string, s setup) *fixture {
	t.Helper()
	f := &fixture{}
	if s.abortOn != nil {
		f.abort, f.stop = *s.abortOn, true
	}
	log := zaptest.NewLogger(t)
	rep := diag.NewReporter(func(d diag.Diagnostic) bool {
		f.diags = append(f.diags, d)
		return !(f.stop && d.Code == f.abort)
	}, log)
	styles := css.NewParser(rep, nil, log)
	var src markup.Source
	if s.base != "" {
		u, err := url.Parse(s.base)
		if err != nil {
			t.Fatal(err)
		}
		src.URL = u
	}
	f.ctx = cascade.NewContext(s.catalog)
	p := markup.NewParser(rep, f.ctx.Entities, styles, markup.Options{ProcessStyles: true}, log)
	doc, err := p.ParseString(input, src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	f.doc = doc
	f.root = box.Build(doc.Root, box.Options{Width: 200})
	opts := cascade.Options{Width: 200, Font: visual.Font{Family: "sans-serif", Size: 16}, LinkFocusBackground: true, Wrap: s.wrap}
	for _, text := range s.user {
		sheet, err := styles.Parse([]byte(text), css.Source{External: true, Name: "user"})
		if err != nil {
			t.Fatalf("user sheet: %v", err)
		}
		opts.UserSheets = append(opts.UserSheets, sheet)
	}
	f.engine = cascade.NewEngine(doc, f.ctx, styles, s.fetcher, rep, opts, log)
	return f
}

func (f *fixture) apply(t *testing.T) {
	t.Helper()
	if err := f.engine.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
}

func (f *fixture) node(t *testing.T, id string) visual.Node {
	t.Helper()
	el := f.doc.ByID(id)
	if el == nil {
		t.Fatalf("no element %q", id)
	}
	nodes := el.Bound()
	if len(nodes) == 0 {
		t.Fatalf("element %q is not bound", id)
	}
	return nodes[0]
}

func (f *fixture) count(code diag.Code) int {
	var n int
	for _, d := range f.diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func fg(n visual.Node) visual.Color {
	return n.Style(visual.Unselected).FgColor
}

func TestApply_Specificity(t *testing.T) {
	f := newFixture(t, `<style>#x{color:#00ff00} .c{color:#0000ff} p{color:#ff0000}</style><p id="x" class="c">t</p><p id="y" class="c">u</p><p id="z">v</p>`, setup{})
	f.apply(t)
	for id, want := range map[string]visual.Color{"x": 0x00FF00, "y": 0x0000FF, "z": 0xFF0000} {
		if got := fg(f.node(t, id)); got != want {
			t.Errorf("%s color = %v, want %v", id, got, want)
		}
	}
}

func TestApply_TiesLastWins(t *testing.T) {
	tests := []struct {
		sheet string
		want  visual.Color
	}{
		{`.a{color:#ff0000} .b{color:#0000ff}`, 0x0000FF},
		{`.b{color:#0000ff} .a{color:#ff0000}`, 0xFF0000},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			f := newFixture(t, `<style>`+tt.sheet+`</style><p id="p" class="a b">t</p>`, setup{})
			f.apply(t)
			if got := fg(f.node(t, "p")); got != tt.want {
				t.Errorf("color = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_DescendantSelector(t *testing.T) {
	f := newFixture(t, `<style>div b{color:#ff0000} * i{color:#00ff00}</style>`+
		`<div><p><span><b id="in">x</b></span></p></div><b id="out">y</b><p><b id="sib">z</b></p><p><i id="i">w</i></p>`, setup{})
	f.apply(t)
	if got := fg(f.node(t, "in")); got != 0xFF0000 {
		t.Errorf("nested b color = %v", got)
	}
	for _, id := range []string{"out", "sib"} {
		if got := fg(f.node(t, id)); got != 0 {
			t.Errorf("%s color = %v, want black", id, got)
		}
	}
	if got := fg(f.node(t, "i")); got != 0x00FF00 {
		t.Errorf("wildcard descendant color = %v", got)
	}
}

func TestApply_InlineStyleWins(t *testing.T) {
	f := newFixture(t, `<style>#x{color:#ff0000}</style><p id="x" style="color:#00ff00">t</p>`, setup{})
	f.apply(t)
	if got := fg(f.node(t, "x")); got != 0x00FF00 {
		t.Errorf("color = %v", got)
	}
}

func TestApply_UserSheets(t *testing.T) {
	f := newFixture(t, `<style>#a{color:#ff0000}</style><p id="a">a</p><p id="b" class="u">b</p>`,
		setup{user: []string{"p{color:#00ff00} #a{color:#0000ff} .u{margin:2px}"}})
	f.apply(t)
	if got := fg(f.node(t, "a")); got != 0xFF0000 {
		t.Errorf("document sheet lost tie, color = %v", got)
	}
	b := f.node(t, "b")
	if got := fg(b); got != 0x00FF00 {
		t.Errorf("user sheet color = %v", got)
	}
	if got := b.Style(visual.Unselected).Margin; got != [4]int{2, 2, 2, 2} {
		t.Errorf("user sheet margin = %v", got)
	}
	if got := len(f.engine.Sheets()); got != 2 {
		t.Errorf("sheets = %d, want 2", got)
	}
}

func TestApply_DisplayNone(t *testing.T) {
	f := newFixture(t, `<style>.h{display:none; color:#ff0000} #d{display:none}</style>`+
		`<p id="p">a<span id="s" class="h">b</span>c</p><div id="d"><p>x</p></div>`, setup{})
	p := f.node(t, "p").(visual.Container)
	f.apply(t)

	if n := f.doc.ByID("s").Bound(); len(n) != 0 {
		t.Errorf("hidden span bound to %d nodes", len(n))
	}
	if n := len(visual.Leaves(p)); n != 2 {
		t.Errorf("p leaves = %d, want 2", n)
	}
	if len(f.doc.ByID("d").Bound()) != 0 {
		t.Errorf("div still bound")
	}
	for _, l := range visual.Leaves(f.root) {
		if l.Text() == "x" || l.Text() == "b" {
			t.Errorf("detached text %q still in tree", l.Text())
		}
	}
	// second pass keeps things as they are
	f.apply(t)
	if n := len(visual.Leaves(p)); n != 2 {
		t.Errorf("p leaves after second pass = %d", n)
	}
}

func TestApply_ShorthandEqualsLonghands(t *testing.T) {
	tests := []struct {
		short string
		long  string
		want  [4]int
	}{
		{"margin:5px", "margin-top:5px;margin-right:5px;margin-bottom:5px;margin-left:5px", [4]int{5, 5, 5, 5}},
		{"margin:1px 2px", "margin-top:1px;margin-right:2px;margin-bottom:1px;margin-left:2px", [4]int{1, 2, 1, 2}},
		{"margin:1px 2px 3px", "margin-top:1px;margin-right:2px;margin-bottom:3px;margin-left:2px", [4]int{1, 2, 3, 2}},
		{"margin:1px 2px 3px 4px", "margin-top:1px;margin-right:2px;margin-bottom:3px;margin-left:4px", [4]int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.short, func(t *testing.T) {
			var got [2][4]int
			for i, decl := range []string{tt.short, tt.long} {
				f := newFixture(t, `<style>p{`+decl+`}</style><p id="p">t</p>`, setup{})
				f.apply(t)
				got[i] = f.node(t, "p").Style(visual.Unselected).Margin
			}
			if got[0] != tt.want || got[1] != tt.want {
				t.Errorf("shorthand %v, longhands %v, want %v", got[0], got[1], tt.want)
			}
		})
	}
}

func TestApply_EndToEnd(t *testing.T) {
	f := newFixture(t, `<style>p{color:#ff0000} .a{margin:5px} b{color:#0000ff}</style><p id="p" class="a">Hi <b id="b">there</b></p>`, setup{})
	f.apply(t)

	p := f.node(t, "p")
	if got := fg(p); got != 0xFF0000 {
		t.Errorf("p color = %v", got)
	}
	if got := p.Style(visual.Unselected).Margin; got != [4]int{5, 5, 5, 5} {
		t.Errorf("p margin = %v", got)
	}
	b := f.node(t, "b")
	if got := fg(b); got != 0x0000FF {
		t.Errorf("b color = %v", got)
	}
	if b.Parent() != p {
		t.Errorf("b is not laid out in p box")
	}
	for _, l := range visual.Leaves(p) {
		if l.Style(visual.Unselected).Margin != [4]int{} {
			t.Errorf("margin applied to text %q", l.Text())
		}
	}
	if f.engine.Passes() != 1 {
		t.Errorf("passes = %d", f.engine.Passes())
	}
}

func TestApply_BoxModelRedirect(t *testing.T) {
	f := newFixture(t, `<style>b{margin-left:3px} li{padding-top:4px}</style>`+
		`<p id="p">a <b>b</b></p><table><tr id="tr"><li id="li">x</li></tr></table><ul><li id="li2">y</li></ul>`, setup{})
	f.apply(t)
	if got := f.node(t, "p").Style(visual.Unselected).Margin; got != [4]int{0, 0, 0, 3} {
		t.Errorf("p margin = %v", got)
	}
	if got := f.node(t, "tr").Style(visual.Unselected).Padding; got != [4]int{4, 0, 0, 0} {
		t.Errorf("tr padding = %v", got)
	}
	if got := f.node(t, "li").Style(visual.Unselected).Padding; got != [4]int{} {
		t.Errorf("li in table padding = %v", got)
	}
	if got := f.node(t, "li2").Style(visual.Unselected).Padding; got != [4]int{4, 0, 0, 0} {
		t.Errorf("li padding = %v", got)
	}
}

func TestApply_BorderMerge(t *testing.T) {
	f := newFixture(t, `<style>p{border-top:1px solid #ff0000} .c{border-bottom-width:2px;border-bottom-style:dashed}</style><p id="p" class="c">t</p>`, setup{})
	f.apply(t)
	b := f.node(t, "p").Style(visual.Unselected).Border
	if b == nil {
		t.Fatal("no border")
	}
	top, bottom := b.Sides[visual.Top], b.Sides[visual.Bottom]
	if top == nil || top.Width != 1 || top.Style != visual.BorderSolid || !top.HasColor || top.Color != 0xFF0000 {
		t.Errorf("top = %+v", top)
	}
	if bottom == nil || bottom.Width != 2 || bottom.Style != visual.BorderDashed {
		t.Errorf("bottom = %+v", bottom)
	}
	if b.Sides[visual.Left] != nil || b.Sides[visual.Right] != nil {
		t.Errorf("unexpected sides: %+v", b.Sides)
	}
}

func TestApply_Masks(t *testing.T) {
	f := newFixture(t, `<style>#a:focus{background-color:#ff0000} a:active{color:#00ff00} span{background-color:#0000ff} p:active{color:#ff00ff}</style>`+
		`<p id="p"><a id="a" href="x">link</a> <span><a id="a2" href="y">two</a></span></p>`, setup{})
	f.apply(t)

	a := f.node(t, "a")
	if st := a.Style(visual.Selected); st.BgTransparent || st.BgColor != 0xFF0000 {
		t.Errorf("focused link background = %v", st.BgColor)
	}
	if !a.Style(visual.Unselected).BgTransparent {
		t.Errorf("unselected link background changed")
	}
	if got := a.Style(visual.Pressed).FgColor; got != 0x00FF00 {
		t.Errorf("pressed color = %v", got)
	}
	if got := fg(a); got == 0x00FF00 {
		t.Errorf(":active changed unselected bucket")
	}

	a2 := f.node(t, "a2")
	if a2.Style(visual.Unselected).BgColor != 0x0000FF {
		t.Errorf("span background not applied to link text")
	}
	if !a2.Style(visual.Selected).BgTransparent {
		t.Errorf("span background leaked into link focus bucket")
	}
	if got := fg(f.node(t, "p")); got == 0xFF00FF {
		t.Errorf(":active applied to node without pressed bucket")
	}
}

func TestApply_Recursive(t *testing.T) {
	f := newFixture(t, `<style>div{text-align:center;text-transform:uppercase;text-indent:10px;visibility:hidden} #v{visibility:visible}</style>`+
		`<div id="d"><p id="p">one two</p><p id="v">three</p></div>`, setup{})
	f.apply(t)
	d := f.node(t, "d").(visual.Container)
	leaves := visual.Leaves(d)
	if len(leaves) != 2 {
		t.Fatalf("leaves = %d", len(leaves))
	}
	for _, l := range leaves {
		if l.Style(visual.Unselected).Align != visual.AlignCenter {
			t.Errorf("%q not centered", l.Text())
		}
	}
	if leaves[0].Text() != "ONE TWO" || leaves[1].Text() != "THREE" {
		t.Errorf("texts = %q, %q", leaves[0].Text(), leaves[1].Text())
	}
	if leaves[0].Style(visual.Unselected).Indent != 10 || leaves[1].Style(visual.Unselected).Indent != 0 {
		t.Errorf("indent applied to wrong leaves")
	}
	if leaves[0].Visible() || f.node(t, "p").Visible() {
		t.Errorf("hidden content is visible")
	}
	if !leaves[1].Visible() || !f.node(t, "v").Visible() || !d.Visible() {
		t.Errorf("re-shown content or its ancestor is hidden")
	}
}

func TestApply_WhiteSpace(t *testing.T) {
	f := newFixture(t, `<style>.w{white-space:normal} .n{white-space:nowrap}</style><p id="p" class="w">one two three</p>`, setup{})
	f.apply(t)
	p := f.node(t, "p").(visual.Container)
	if n := len(p.Children()); n != 3 {
		t.Fatalf("wrapped nodes = %d, want 3", n)
	}
	if got := p.Children()[1].(visual.TextNode).Text(); got != "two " {
		t.Errorf("second word = %q", got)
	}
	f.apply(t)
	if n := len(p.Children()); n != 3 {
		t.Errorf("second pass changed node count to %d", n)
	}
}

func TestWrap_Idempotent(t *testing.T) {
	f := newFixture(t, `<p id="p">one two three</p>`, setup{})
	p := f.doc.ByID("p")
	text := p.Children()[0]
	container := f.node(t, "p").(visual.Container)

	cascade.Wrap(text)
	once := len(container.Children())
	cascade.Wrap(text)
	if once != 3 || len(container.Children()) != once {
		t.Errorf("wrap: once %d, twice %d", once, len(container.Children()))
	}
	if len(text.Bound()) != 3 {
		t.Errorf("text bound to %d nodes", len(text.Bound()))
	}
	shared := container.Children()[0].Style(visual.Unselected)
	if container.Children()[2].Style(visual.Unselected) != shared {
		t.Errorf("wrapped nodes do not share style")
	}

	cascade.Unwrap(text)
	cascade.Unwrap(text)
	if n := len(container.Children()); n != 1 {
		t.Fatalf("unwrap left %d nodes", n)
	}
	if got := container.Children()[0].(visual.TextNode).Text(); got != "one two three" {
		t.Errorf("unwrapped text = %q", got)
	}
}

func TestApply_InitialWrap(t *testing.T) {
	f := newFixture(t, `<p id="p">a b c</p>`, setup{wrap: common.WrapModeWords})
	f.apply(t)
	if n := len(f.node(t, "p").(visual.Container).Children()); n != 3 {
		t.Errorf("nodes = %d", n)
	}
}

type catalog []visual.Font

func (c catalog) Fonts() []visual.Font { return c }

func TestApply_Fonts(t *testing.T) {
	cat := catalog{
		{Family: "DejaVu Sans", Size: 12},
		{Family: "DejaVu Sans", Size: 20},
		{Family: "DejaVu Sans", Size: 20, Weight: visual.FontWeightBold},
		{Family: "DejaVu Serif", Size: 16, Style: visual.FontStyleItalic},
	}
	f := newFixture(t, `<style>p{font-size:19px;font-weight:bold} .s{font-family:"Missing", serif;font-style:italic}</style>`+
		`<p id="p">a</p><p id="q">b</p><div class="s" id="s">c</div>`, setup{catalog: cat})
	f.apply(t)

	pf := f.node(t, "p").Style(visual.Unselected).Font
	if pf.Family != "DejaVu Sans" || pf.Size != 20 || pf.Weight != visual.FontWeightBold {
		t.Errorf("p font = %v", pf)
	}
	if qf := f.node(t, "q").Style(visual.Unselected).Font; qf != pf {
		t.Errorf("equal requests are not shared: %p %p", qf, pf)
	}
	sf := f.node(t, "s").Style(visual.Unselected).Font
	if sf.Family != "DejaVu Serif" || sf.Style != visual.FontStyleItalic {
		t.Errorf("div font = %v", sf)
	}
	leaf := visual.Leaves(f.node(t, "s"))[0]
	if leaf.Style(visual.Unselected).Font.Family != "DejaVu Serif" {
		t.Errorf("font not inherited by text")
	}

	if f.ctx.CachedFonts() == 0 {
		t.Fatal("font cache is empty")
	}
	f.ctx.Reset()
	if f.ctx.CachedFonts() != 0 {
		t.Errorf("cache not cleared")
	}
}

func TestApply_RelativeFontSize(t *testing.T) {
	size := func(n visual.Node) int { return n.Style(visual.Unselected).Font.Size }
	tests := []struct {
		name  string
		sheet string
		want  map[string]int
	}{
		{"percent", `p{font-size:150%}`, map[string]int{"p": 24, "q": 24}},
		{"larger once", `p{font-size:larger} .a{font-size:larger}`, map[string]int{"p": 19, "q": 19}},
		{"smaller after larger", `p{font-size:larger} .a{font-size:smaller}`, map[string]int{"p": 13, "q": 19}},
		{"em from parent", `div{font-size:20px} p{font-size:2em}`, map[string]int{"p": 40, "q": 40, "b": 40}},
		{"child percent", `div{font-size:20px} b{font-size:50%}`, map[string]int{"p": 20, "b": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, `<style>`+tt.sheet+`</style><div><p id="p" class="a">x<b id="b">y</b></p><p id="q">z</p></div>`, setup{})
			for pass := 1; pass <= 3; pass++ {
				f.apply(t)
				for id, want := range tt.want {
					if got := size(f.node(t, id)); got != want {
						t.Errorf("pass %d: %s font size = %d, want %d", pass, id, got, want)
					}
				}
			}
		})
	}
}

func TestApply_Fetch(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, `<link rel="stylesheet" href="main.css"/><style>@import "extra.css"; .bg{background-image:url(img/bg.png)}</style><p id="p" class="bg">t</p>`,
		setup{base: "http://example.com/doc/index.html", fetcher: rec})
	f.apply(t)

	var sheetID, importID, imageID string
	for id, r := range rec.reqs {
		switch r.url {
		case "http://example.com/doc/main.css":
			sheetID = id
		case "http://example.com/doc/extra.css":
			importID = id
		case "http://example.com/doc/img/bg.png":
			imageID = id
			if r.node != f.node(t, "p") || r.mask != visual.MaskUnselected|visual.MaskSelected {
				t.Errorf("image request = %+v", r)
			}
		}
	}
	if sheetID == "" || importID == "" || imageID == "" || f.engine.Pending() != 3 {
		t.Fatalf("requests = %+v", rec.reqs)
	}

	su, _ := url.Parse("http://example.com/doc/main.css")
	err := f.engine.OnFetchComplete(sheetID, fetch.Result{Request: fetch.Request{ID: sheetID, URL: su}, Data: []byte(`p{color:#ff0000;background-image:url(../i/x.gif)}`)})
	if err != nil {
		t.Fatal(err)
	}
	if f.engine.Passes() != 2 {
		t.Errorf("passes = %d", f.engine.Passes())
	}
	if got := fg(f.node(t, "p")); got != 0xFF0000 {
		t.Errorf("external rule not applied, color = %v", got)
	}
	var relative bool
	for _, r := range rec.reqs {
		relative = relative || r.url == "http://example.com/i/x.gif"
	}
	if !relative {
		t.Errorf("external sheet url not resolved against sheet: %+v", rec.reqs)
	}

	img := &visual.Image{URL: "http://example.com/doc/img/bg.png", Kind: "png", Width: 2, Height: 2}
	if err := f.engine.OnFetchComplete(imageID, fetch.Result{Image: img}); err != nil {
		t.Fatal(err)
	}
	if f.node(t, "p").Style(visual.Unselected).BgImage != img {
		t.Errorf("background image not set")
	}

	if err := f.engine.OnFetchComplete(importID, fetch.Result{Err: fmt.Errorf("gone: %w", fetch.ErrNotFound)}); err != nil {
		t.Fatal(err)
	}
	if f.count(diag.CodeResourceNotFound) != 1 {
		t.Errorf("ResourceNotFound = %d", f.count(diag.CodeResourceNotFound))
	}
	if err := f.engine.OnFetchComplete("stale", fetch.Result{}); err != nil {
		t.Errorf("stale result error = %v", err)
	}
}

func TestApply_NoBaseURL(t *testing.T) {
	f := newFixture(t, `<style>p{background-image:url(x.png)}</style><p>t</p>`, setup{fetcher: &recorder{}})
	f.apply(t)
	if f.count(diag.CodeNoBaseUrlForRelativeReference) != 1 {
		t.Errorf("NoBaseUrlForRelativeReference = %d", f.count(diag.CodeNoBaseUrlForRelativeReference))
	}

	code := diag.CodeNoBaseUrlForRelativeReference
	f = newFixture(t, `<style>p{background-image:url(x.png)}</style><p>t</p>`, setup{abortOn: &code})
	err := f.engine.Apply()
	if !errors.Is(err, diag.ErrMalformedMarkup) {
		t.Errorf("error = %v, want ErrMalformedMarkup", err)
	}
}

func TestContext_Entities(t *testing.T) {
	ctx := cascade.NewContext(nil)
	ctx.Entities.Register("x", 'X')
	if r, err := ctx.Entities.Decode("x"); err != nil || r != 'X' {
		t.Fatalf("Decode() = %q, %v", r, err)
	}
	ctx.Reset()
	if _, err := ctx.Entities.Decode("x"); err == nil {
		t.Errorf("user entity survived reset")
	}
	want := visual.Font{Family: "any", Size: 7}
	if got := ctx.Font(want); *got != want {
		t.Errorf("font without catalog = %v", got)
	}
}
