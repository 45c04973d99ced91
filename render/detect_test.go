package render

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

func encode(t *testing.T, data []byte, enc transform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, enc)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("encode close: %v", err)
	}
	return buf.Bytes()
}

func TestDetectBOM(t *testing.T) {
	text := []byte("<p>x</p>")
	tests := []struct {
		name string
		data []byte
		want srcEncoding
	}{
		{"plain", text, encUnknown},
		{"utf8", append([]byte{0xEF, 0xBB, 0xBF}, text...), encUTF8},
		{"utf16be", encode(t, text, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()), encUTF16BigEndian},
		{"utf16le", encode(t, text, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()), encUTF16LittleEndian},
		{"utf32be", encode(t, text, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder()), encUTF32BigEndian},
		{"utf32le", encode(t, text, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder()), encUTF32LittleEndian},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectBOM(tt.data); got != tt.want {
				t.Errorf("detectBOM() = %v, want %v", got, tt.want)
			}
			r, _ := selectReader(bytes.NewReader(tt.data), "text/html", tt.want)
			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(out) != string(text) {
				t.Errorf("decoded = %q", out)
			}
		})
	}
}

func TestSelectReader_ContentType(t *testing.T) {
	if _, ct := selectReader(bytes.NewReader(nil), "text/html", encUnknown); ct != "text/html" {
		t.Errorf("content type without BOM = %q", ct)
	}
	if _, ct := selectReader(bytes.NewReader(nil), "text/html", encUTF16LittleEndian); ct != "text/html; charset=utf-8" {
		t.Errorf("content type with BOM = %q", ct)
	}
}

func TestMarkupType(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
		ok   bool
	}{
		{"a.html", []byte("<p>"), "text/html", true},
		{"A.HTM", []byte("<p>"), "text/html", true},
		{"a.xhtml", []byte("<?xml"), "application/xhtml+xml", true},
		{"a.xht", nil, "application/xhtml+xml", true},
		{"a.txt", []byte("<p>"), "", false},
		{"a.css", []byte("p{}"), "", false},
		{"a.html", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := markupType(tt.name, tt.head)
			if got != tt.want || ok != tt.ok {
				t.Errorf("markupType() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "good.zip"), map[string][]byte{"a.html": []byte("<p>")})
	writeFiles(t, dir, map[string][]byte{
		"bad.zip":  []byte("not an archive"),
		"zip.html": []byte("<p>"),
	})
	tests := []struct {
		name string
		want bool
	}{
		{"good.zip", true},
		{"bad.zip", false},
		{"zip.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := isArchiveFile(filepath.Join(dir, tt.name))
			if err != nil {
				t.Fatalf("isArchiveFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isArchiveFile() = %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := isArchiveFile(filepath.Join(dir, "missing.zip")); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v", err)
	}
}
