package builtin

import (
	"image"
	"image/color"
	"image/draw"
)

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// mapPixels applies fn to every pixel, returning a new buffer.
func mapPixels(src *image.NRGBA, fn func(c color.NRGBA) color.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(x, y, fn(src.NRGBAAt(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return dst
}

// boxBlur performs a separable box blur with the given radius in pixels.
func boxBlur(src *image.NRGBA, radius int) *image.NRGBA {
	if radius <= 0 {
		dup := image.NewNRGBA(src.Bounds())
		copy(dup.Pix, src.Pix)
		return dup
	}

	horiz := blurPass(src, radius, true)
	return blurPass(horiz, radius, false)
}

func blurPass(src *image.NRGBA, radius int, horizontal bool) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a, n float64
			for d := -radius; d <= radius; d++ {
				sx, sy := x, y
				if horizontal {
					sx += d
				} else {
					sy += d
				}
				if sx < 0 || sx >= w || sy < 0 || sy >= h {
					continue
				}
				c := src.NRGBAAt(b.Min.X+sx, b.Min.Y+sy)
				r += float64(c.R)
				g += float64(c.G)
				bl += float64(c.B)
				a += float64(c.A)
				n++
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampU8(r / n),
				G: clampU8(g / n),
				B: clampU8(bl / n),
				A: clampU8(a / n),
			})
		}
	}
	return dst
}

// mix linearly interpolates two buffers of equal size by t in [0, 1].
func mix(a, b *image.NRGBA, t float64) *image.NRGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	ab := a.Bounds()
	bb := b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	if bb.Dx() < w {
		w = bb.Dx()
	}
	if bb.Dy() < h {
		h = bb.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ca := a.NRGBAAt(ab.Min.X+x, ab.Min.Y+y)
			cb := b.NRGBAAt(bb.Min.X+x, bb.Min.Y+y)
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampU8(float64(ca.R)*(1-t) + float64(cb.R)*t),
				G: clampU8(float64(ca.G)*(1-t) + float64(cb.G)*t),
				B: clampU8(float64(ca.B)*(1-t) + float64(cb.B)*t),
				A: clampU8(float64(ca.A)*(1-t) + float64(cb.A)*t),
			})
		}
	}
	return dst
}

// over composites fg onto bg with standard alpha compositing, on a canvas
// sized to bg.
func over(fg, bg *image.NRGBA) *image.NRGBA {
	bb := bg.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(dst, dst.Bounds(), bg, bb.Min, draw.Src)
	draw.Draw(dst, fg.Bounds().Sub(fg.Bounds().Min), fg, fg.Bounds().Min, draw.Over)
	return dst
}
