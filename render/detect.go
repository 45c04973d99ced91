package render

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// srcEncoding is encoding announced by byte order mark.
type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "UTF-8"
	case encUTF16BigEndian:
		return "UTF-16BE"
	case encUTF16LittleEndian:
		return "UTF-16LE"
	case encUTF32BigEndian:
		return "UTF-32BE"
	case encUTF32LittleEndian:
		return "UTF-32LE"
	}
	return "unknown"
}

// markupTypes maps file extensions to content types of documents we render.
var markupTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".xhtml": "application/xhtml+xml",
	".xht":   "application/xhtml+xml",
}

// headSize is enough for both BOM and file type signatures.
const headSize = 262

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

func detectBOM(head []byte) srcEncoding {
	switch {
	case bytes.HasPrefix(head, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return encUTF32BigEndian
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return encUTF32LittleEndian
	case bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}):
		return encUTF8
	case bytes.HasPrefix(head, []byte{0xFE, 0xFF}):
		return encUTF16BigEndian
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE}):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// markupType returns content type for markup document or false when name or
// content does not look like one.
func markupType(name string, head []byte) (string, srcEncoding, bool) {
	ct, ok := markupTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", encUnknown, false
	}
	enc := detectBOM(head)
	if enc == encUnknown {
		// binary content with markup extension
		if kind, _ := filetype.Match(head); kind != filetype.Unknown {
			return "", encUnknown, false
		}
	}
	return ct, enc, true
}

func isMarkupFile(path string) (string, srcEncoding, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", encUnknown, false, err
	}
	defer f.Close()
	head, err := readHead(f)
	if err != nil {
		return "", encUnknown, false, err
	}
	ct, enc, ok := markupType(path, head)
	return ct, enc, ok, nil
}

func isMarkupInArchive(f *zip.File) (string, srcEncoding, bool, error) {
	if _, ok := markupTypes[strings.ToLower(filepath.Ext(f.Name))]; !ok {
		return "", encUnknown, false, nil
	}
	r, err := f.Open()
	if err != nil {
		return "", encUnknown, false, err
	}
	defer r.Close()
	head, err := readHead(r)
	if err != nil {
		return "", encUnknown, false, err
	}
	ct, enc, ok := markupType(f.Name, head)
	return ct, enc, ok, nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// selectReader decodes input announced by byte order mark into UTF-8, the
// rest is left to markup parser. Returned content type reflects decoding.
func selectReader(r io.Reader, contentType string, enc srcEncoding) (io.Reader, string) {
	var e encoding.Encoding
	switch enc {
	case encUnknown:
		return r, contentType
	case encUTF8:
		e = unicode.UTF8BOM
	case encUTF16BigEndian:
		e = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case encUTF16LittleEndian:
		e = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case encUTF32BigEndian:
		e = utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case encUTF32LittleEndian:
		e = utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	}
	return transform.NewReader(r, e.NewDecoder()), contentType + "; charset=utf-8"
}
