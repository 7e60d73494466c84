// Package imaging provides the image value type passed through a filter
// chain: pixel data plus the orientation, color space, and scale metadata
// that every render step must preserve.
package imaging

import (
	"image"
	"image/draw"
)

// Orientation is an EXIF-style orientation tag describing how the stored
// pixel grid maps to the displayed image.
type Orientation int

const (
	OrientUp            Orientation = 1 // row 0 top, column 0 left
	OrientUpMirrored    Orientation = 2 // mirrored across vertical axis
	OrientDown          Orientation = 3 // rotated 180
	OrientDownMirrored  Orientation = 4 // mirrored across horizontal axis
	OrientLeftMirrored  Orientation = 5 // mirrored, then rotated 270 CW
	OrientRight         Orientation = 6 // rotated 90 CW
	OrientRightMirrored Orientation = 7 // mirrored, then rotated 90 CW
	OrientLeft          Orientation = 8 // rotated 270 CW
)

// Transposed reports whether the orientation swaps width and height when
// the image is displayed.
func (o Orientation) Transposed() bool {
	return o >= OrientLeftMirrored && o <= OrientLeft
}

// Valid reports whether o is one of the eight EXIF orientation tags.
func (o Orientation) Valid() bool {
	return o >= OrientUp && o <= OrientLeft
}

// ColorSpace identifies the color space pixel values are expressed in.
type ColorSpace string

const (
	ColorSpaceSRGB      ColorSpace = "srgb"
	ColorSpaceDisplayP3 ColorSpace = "display-p3"
	ColorSpaceLinear    ColorSpace = "linear-srgb"
)

// Image is a bitmap plus the metadata a render must carry end to end.
// Pixel data is treated as immutable once an Image is handed to a render;
// operations that change pixels allocate a new backing buffer.
type Image struct {
	Pixels      *image.NRGBA
	Orientation Orientation
	Space       ColorSpace
	Scale       float64
}

// New wraps pixel data in an upright sRGB image at scale 1.
func New(pix *image.NRGBA) Image {
	return Image{
		Pixels:      pix,
		Orientation: OrientUp,
		Space:       ColorSpaceSRGB,
		Scale:       1,
	}
}

// Empty reports whether the image carries no pixel data.
func (m Image) Empty() bool {
	return m.Pixels == nil || m.Pixels.Bounds().Empty()
}

// Width returns the stored pixel-grid width.
func (m Image) Width() int {
	if m.Pixels == nil {
		return 0
	}
	return m.Pixels.Bounds().Dx()
}

// Height returns the stored pixel-grid height.
func (m Image) Height() int {
	if m.Pixels == nil {
		return 0
	}
	return m.Pixels.Bounds().Dy()
}

// DisplayWidth returns the width of the image as displayed, accounting for
// orientations that transpose the axes.
func (m Image) DisplayWidth() int {
	if m.Orientation.Transposed() {
		return m.Height()
	}
	return m.Width()
}

// DisplayHeight returns the height of the image as displayed.
func (m Image) DisplayHeight() int {
	if m.Orientation.Transposed() {
		return m.Width()
	}
	return m.Height()
}

// Clone returns a deep copy of the image and its pixel buffer.
func (m Image) Clone() Image {
	if m.Pixels == nil {
		return m
	}
	dup := image.NewNRGBA(m.Pixels.Bounds())
	copy(dup.Pix, m.Pixels.Pix)
	out := m
	out.Pixels = dup
	return out
}

// Normalize returns an upright copy of the image: the orientation transform
// is applied to the pixel grid and the tag reset to OrientUp. Images already
// upright are returned unchanged without copying.
func (m Image) Normalize() Image {
	if m.Pixels == nil || m.Orientation == OrientUp || !m.Orientation.Valid() {
		out := m
		out.Orientation = OrientUp
		return out
	}

	src := m.Pixels
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.NRGBA
	if m.Orientation.Transposed() {
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch m.Orientation {
			case OrientUpMirrored:
				dx, dy = w-1-x, y
			case OrientDown:
				dx, dy = w-1-x, h-1-y
			case OrientDownMirrored:
				dx, dy = x, h-1-y
			case OrientLeftMirrored:
				dx, dy = y, x
			case OrientRight:
				dx, dy = h-1-y, x
			case OrientRightMirrored:
				dx, dy = h-1-y, w-1-x
			case OrientLeft:
				dx, dy = y, w-1-x
			}
			dst.SetNRGBA(dx, dy, src.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	out := m
	out.Pixels = dst
	out.Orientation = OrientUp
	return out
}

// ConformTo crops or pads the image to the reference's displayed extent and
// adopts the reference's color space and scale. The result is upright, which
// displays identically to the reference's corrected orientation.
func (m Image) ConformTo(ref Image) Image {
	norm := m.Normalize()
	w, h := ref.DisplayWidth(), ref.DisplayHeight()
	if norm.Width() != w || norm.Height() != h {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		if norm.Pixels != nil {
			draw.Draw(dst, dst.Bounds(), norm.Pixels, norm.Pixels.Bounds().Min, draw.Src)
		}
		norm.Pixels = dst
	}
	norm.Space = ref.Space
	norm.Scale = ref.Scale
	return norm
}
