package imaging

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// ScaleTo resamples the image's displayed representation to width x height
// using Catmull-Rom interpolation. Orientation is applied first so the
// result is upright; metadata other than orientation is preserved.
func (m Image) ScaleTo(width, height int) Image {
	norm := m.Normalize()
	if norm.Pixels == nil || (norm.Width() == width && norm.Height() == height) {
		return norm
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), norm.Pixels, norm.Pixels.Bounds(), xdraw.Src, nil)
	norm.Pixels = dst
	return norm
}

// ScaleToFitDisplay resamples the image to match the displayed extent of ref.
func (m Image) ScaleToFitDisplay(ref Image) Image {
	return m.ScaleTo(ref.DisplayWidth(), ref.DisplayHeight())
}
