// Package imaging normalises uploaded item images: only JPEG and PNG are
// accepted, large images are downscaled and everything is stored as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension caps the longest edge of a stored image.
	DefaultMaxDimension = 1024
	// DefaultQuality is the JPEG encoder quality.
	DefaultQuality = 85
	// OutputMIME is the content type of every processed image.
	OutputMIME = "image/jpeg"
)

var (
	// ErrTooLarge is returned when the upload exceeds the byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrUnsupportedFormat is returned for anything but JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Processor holds the limits applied to uploads.
type Processor struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

// NewProcessor returns a processor with the default dimension and quality.
func NewProcessor(maxBytes int64) *Processor {
	return &Processor{MaxBytes: maxBytes, MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

// Result is a re-encoded image ready for upload.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process sniffs the real content type from the bytes, decodes, downscales
// and re-encodes the image.
func (p *Processor) Process(r io.Reader) (*Result, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	detected := http.DetectContentType(data)
	if !accepted[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	maxDim := p.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	quality := p.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	out := flatten(img, maxDim)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	b := out.Bounds()
	return &Result{Data: buf.Bytes(), MIME: OutputMIME, Width: b.Dx(), Height: b.Dy()}, nil
}

// flatten scales img to fit within maxDim on a white canvas, which also
// removes PNG transparency that JPEG cannot carry.
func flatten(img image.Image, maxDim int) image.Image {
	src := img.Bounds()
	w, h := Fit(src.Dx(), src.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

// Fit returns dimensions no larger than maxDim on either edge, preserving
// the aspect ratio.
func Fit(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
