package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mpdom/config"
	"mpdom/diag"
	"mpdom/state"
)

const sampleDocument = `<html><head><title>Sample</title><link rel="stylesheet" href="style.css"></head>` +
	`<body><p>Hi</p><img src="img/dot.png" alt="dot"></body></html>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func sampleFiles(t *testing.T, color string) map[string][]byte {
	return map[string][]byte{
		"doc.html":    []byte(sampleDocument),
		"style.css":   []byte("p { color: " + color + " }"),
		"img/dot.png": pngData(t, 7, 3),
	}
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	err := process(ctx, filepath.Join(t.TempDir(), "missing", "doc.html"), t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Fatalf("process() error = %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	err := process(ctx, t.TempDir(), t.TempDir(), env.Log)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("process() error = %v, want context.Canceled", err)
	}
}

func TestProcess_NotMarkup(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := t.TempDir()
	writeFiles(t, src, map[string][]byte{"notes.txt": []byte("hello")})
	err := process(ctx, filepath.Join(src, "notes.txt"), t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("process() error = %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src, dst := t.TempDir(), t.TempDir()
	writeFiles(t, src, sampleFiles(t, "#ff0000"))

	if err := process(ctx, filepath.Join(src, "doc.html"), dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	out := readOutput(t, filepath.Join(dst, "doc.tree"))
	for _, want := range []string{`text "Hi" fg=#ff0000`, `image "img/dot.png" (png 7x3)`} {
		if !strings.Contains(out, want) {
			t.Errorf("tree has no %q:\n%s", want, out)
		}
	}
	for _, ext := range []string{".xhtml", ".css"} {
		if _, err := os.Stat(filepath.Join(dst, "doc"+ext)); !os.IsNotExist(err) {
			t.Errorf("unexpected output %s: %v", ext, err)
		}
	}
}

func TestProcess_Overwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src, dst := t.TempDir(), t.TempDir()
	writeFiles(t, src, sampleFiles(t, "#ff0000"))
	name := filepath.Join(src, "doc.html")
	if err := process(ctx, name, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	writeFiles(t, src, map[string][]byte{"style.css": []byte("p { color: #0000ff }")})
	if err := process(ctx, name, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if out := readOutput(t, filepath.Join(dst, "doc.tree")); !strings.Contains(out, "fg=#ff0000") {
		t.Errorf("existing output was replaced:\n%s", out)
	}

	env.Overwrite = true
	if err := process(ctx, name, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if out := readOutput(t, filepath.Join(dst, "doc.tree")); !strings.Contains(out, "fg=#0000ff") {
		t.Errorf("output was not replaced:\n%s", out)
	}
}

func TestProcess_Directory(t *testing.T) {
	tests := []struct {
		name   string
		noDirs bool
		want   []string
	}{
		{"keep structure", false, []string{"a/one.tree", "a/b/two.tree"}},
		{"flat", true, []string{"one.tree", "two.tree"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			env.NoDirs = tt.noDirs
			src, dst := t.TempDir(), t.TempDir()
			writeFiles(t, src, map[string][]byte{
				"a/one.html":    []byte("<p>one</p>"),
				"a/b/two.xhtml": []byte(`<html xmlns="http://www.w3.org/1999/xhtml"><body><p>two</p></body></html>`),
				"a/notes.txt":   []byte("skip"),
				"a/fake.html":   pngData(t, 1, 1),
			})
			if err := process(ctx, src, dst, env.Log); err != nil {
				t.Fatalf("process() error = %v", err)
			}
			for _, w := range tt.want {
				if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(w))); err != nil {
					t.Errorf("missing output %s: %v", w, err)
				}
			}
			for _, name := range []string{"fake.tree", filepath.Join("a", "fake.tree"), "notes.tree"} {
				if _, err := os.Stat(filepath.Join(dst, name)); !os.IsNotExist(err) {
					t.Errorf("unexpected output %s: %v", name, err)
				}
			}
		})
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src, dst := t.TempDir(), t.TempDir()
	files := map[string][]byte{"other/skip.html": []byte("<p>skip</p>")}
	for name, data := range sampleFiles(t, "#00ff00") {
		files["docs/"+name] = data
	}
	arc := filepath.Join(src, "pack.zip")
	writeZip(t, arc, files)

	if err := process(ctx, filepath.Join(arc, "docs"), dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	out := readOutput(t, filepath.Join(dst, "docs", "doc.tree"))
	for _, want := range []string{"fg=#00ff00", "(png 7x3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree has no %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "other", "skip.tree")); !os.IsNotExist(err) {
		t.Errorf("document outside of requested path was rendered: %v", err)
	}
}

func TestProcessDocument_UserSheets(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"user sheet applies", "<p>x</p>", "fg=#00ff00"},
		{"document sheet wins ties", "<style>p{color:#ff0000}</style><p>x</p>", "fg=#ff0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			env.Stylesheets = []state.UserSheet{{Name: "user.css", Data: []byte("p { color: #00ff00 }")}}
			dst := t.TempDir()
			err := processDocument(ctx, strings.NewReader(tt.doc), "text/html", "x.html", os.DirFS(t.TempDir()), dst, env.Log)
			if err != nil {
				t.Fatalf("processDocument() error = %v", err)
			}
			if out := readOutput(t, filepath.Join(dst, "x.tree")); !strings.Contains(out, tt.want) {
				t.Errorf("tree has no %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestProcessDocument_Outputs(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Document.Outputs = config.OutputsConfig{XHTML: true, CSS: true}
	dst := t.TempDir()
	doc := `<html><head><style>p { color: red }</style></head><body><p class="x">text</p></body></html>`
	if err := processDocument(ctx, strings.NewReader(doc), "text/html", "out.html", os.DirFS(t.TempDir()), dst, env.Log); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "out.tree")); !os.IsNotExist(err) {
		t.Errorf("tree output was not disabled: %v", err)
	}
	if out := readOutput(t, filepath.Join(dst, "out.xhtml")); !strings.Contains(out, `class="x"`) {
		t.Errorf("xhtml output:\n%s", out)
	}
	if out := readOutput(t, filepath.Join(dst, "out.css")); !strings.Contains(out, "color") {
		t.Errorf("css output:\n%s", out)
	}
}

func TestProcessDocument_Abort(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Document.AbortOn = []string{"UnrecognizedEntity"}
	dst := t.TempDir()
	err := processDocument(ctx, strings.NewReader("<p>a &bogus; b</p>"), "text/html", "bad.html", os.DirFS(t.TempDir()), dst, env.Log)
	if !errors.Is(err, diag.ErrMalformedMarkup) {
		t.Fatalf("processDocument() error = %v, want ErrMalformedMarkup", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "bad.tree")); !os.IsNotExist(err) {
		t.Errorf("output written for aborted document: %v", err)
	}
}

func TestProcessDocument_BaseURL(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Document.BaseURL = "file:///site/"
	src := t.TempDir()
	writeFiles(t, src, map[string][]byte{"site/s.css": []byte("p { color: #123456 }")})
	dst := t.TempDir()
	doc := `<html><head><link rel="stylesheet" href="s.css"></head><body><p>x</p></body></html>`
	if err := processDocument(ctx, strings.NewReader(doc), "text/html", "page.html", os.DirFS(src), dst, env.Log); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	if out := readOutput(t, filepath.Join(dst, "page.tree")); !strings.Contains(out, "fg=#123456") {
		t.Errorf("sheet from base location was not applied:\n%s", out)
	}
}

func TestLoadUserSheets(t *testing.T) {
	_, env := setupTestEnv(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{"a.css": []byte("p{}")})
	if err := loadUserSheets(env, []string{filepath.Join(dir, "a.css")}); err != nil {
		t.Fatalf("loadUserSheets() error = %v", err)
	}
	if len(env.Stylesheets) != 1 || env.Stylesheets[0].Name != "a.css" {
		t.Errorf("sheets = %+v", env.Stylesheets)
	}
	if err := loadUserSheets(env, []string{filepath.Join(dir, "missing.css")}); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestRegisterEntities(t *testing.T) {
	tests := []struct {
		def     string
		name    string
		want    rune
		wantErr bool
	}{
		{"star=U+2605", "star", '★', false},
		{"heart=♥", "heart", '♥', false},
		{"bad", "", 0, true},
		{"two=ab", "", 0, true},
		{"hex=U+ZZ", "", 0, true},
		{"=x", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			_, env := setupTestEnv(t)
			err := registerEntities(env, []string{tt.def})
			if (err != nil) != tt.wantErr {
				t.Fatalf("registerEntities() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			r, err := env.Cascade().Entities.Decode(tt.name)
			if err != nil || r != tt.want {
				t.Errorf("Decode(%q) = %q, %v; want %q", tt.name, r, err, tt.want)
			}
		})
	}
}
