package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnknownFormat = errors.New("unknown image format")

// Info describes image resource.
type Info struct {
	// Kind is file extension of detected format.
	Kind   string
	Width  int
	Height int
}

// Probe detects image format and intrinsic size. SVG is recognized by
// content or by name extension.
func Probe(data []byte, name string) (Info, error) {
	if isSVG(data, name) {
		w, h, err := SVGSize(data)
		if err != nil {
			return Info{}, fmt.Errorf("bad svg: %w", err)
		}
		return Info{Kind: "svg", Width: w, Height: h}, nil
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return Info{}, ErrUnknownFormat
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", kind.Extension, ErrUnknownFormat)
	}
	ext := kind.Extension
	if ext == "" {
		ext = format
	}
	return Info{Kind: ext, Width: cfg.Width, Height: cfg.Height}, nil
}

func isSVG(data []byte, name string) bool {
	if strings.EqualFold(path.Ext(name), ".svg") {
		return true
	}
	head := data[:min(len(data), 512)]
	return bytes.Contains(head, []byte("<svg"))
}
