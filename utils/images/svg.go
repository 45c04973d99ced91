package images

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize is used when viewBox has no size.
const defaultSVGSize = 256

// maxRasterDim caps rasterized image size, huge viewBox values would
// otherwise allocate enormous buffers.
var maxRasterDim = 4096

// SVGSize returns intrinsic size of SVG image from its viewBox.
func SVGSize(data []byte) (int, int, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = defaultSVGSize
	}
	if h <= 0 {
		h = defaultSVGSize
	}
	return w, h, nil
}

// RasterizeSVG renders SVG on white background fitting it into maxDim x
// maxDim box (intrinsic size when maxDim is 0) and returns image.
func RasterizeSVG(data []byte, maxDim int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = defaultSVGSize
	}
	if h <= 0 {
		h = defaultSVGSize
	}
	if maxDim <= 0 || maxDim > maxRasterDim {
		maxDim = maxRasterDim
	}
	if w > maxDim || h > maxDim {
		s := min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}

// RasterizeSVGToPNG is RasterizeSVG with PNG encoding of the result.
func RasterizeSVGToPNG(data []byte, maxDim int) ([]byte, error) {
	img, err := RasterizeSVG(data, maxDim)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
