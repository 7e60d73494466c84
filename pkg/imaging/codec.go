package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
)

// Decode reads a PNG or JPEG stream into an Image. The pixel data is
// converted to NRGBA; orientation defaults to upright since neither format
// carries an orientation tag this package interprets.
func Decode(r io.Reader) (Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return New(ToNRGBA(src)), nil
}

// EncodePNG writes the image's displayed representation as PNG.
func EncodePNG(w io.Writer, m Image) error {
	norm := m.Normalize()
	if norm.Pixels == nil {
		return fmt.Errorf("cannot encode empty image")
	}
	if err := png.Encode(w, norm.Pixels); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// EncodeJPEG writes the image's displayed representation as JPEG with the
// given quality (1-100).
func EncodeJPEG(w io.Writer, m Image, quality int) error {
	norm := m.Normalize()
	if norm.Pixels == nil {
		return fmt.Errorf("cannot encode empty image")
	}
	if err := jpeg.Encode(w, norm.Pixels, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// ToNRGBA converts any image to NRGBA, copying even when the source already
// has that type so callers own the returned buffer.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
