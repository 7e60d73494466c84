package builtin

import (
	"image"
	"image/color"
	"math"

	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

// derived wraps new pixel data in the source image's metadata.
func derived(src *imaging.Image, pix *image.NRGBA) *imaging.Image {
	out := src.Normalize()
	out.Pixels = pix
	return &out
}

func paramOr(params map[string]float64, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return fallback
}

func init() {
	register(&filterSpec{
		name:       "ExposureAdjust",
		category:   "adjustment",
		inputKeys:  []string{registry.KeyInputImage, "inputEV"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage: imageAttrs("Image"),
			"inputEV": numberAttrs("EV", "scalar", map[string]float64{
				registry.AttrDefault:   0,
				registry.AttrIdentity:  0,
				registry.AttrSliderMin: -4,
				registry.AttrSliderMax: 4,
			}),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			gain := math.Pow(2, paramOr(in.params, "inputEV", 0))
			norm := in.image.Normalize()
			pix := mapPixels(norm.Pixels, func(c color.NRGBA) color.NRGBA {
				return color.NRGBA{
					R: clampU8(float64(c.R) * gain),
					G: clampU8(float64(c.G) * gain),
					B: clampU8(float64(c.B) * gain),
					A: c.A,
				}
			})
			return derived(in.image, pix)
		},
	})

	register(&filterSpec{
		name:       "ColorInvert",
		category:   "adjustment",
		inputKeys:  []string{registry.KeyInputImage},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage: imageAttrs("Image"),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			norm := in.image.Normalize()
			pix := mapPixels(norm.Pixels, func(c color.NRGBA) color.NRGBA {
				return color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
			})
			return derived(in.image, pix)
		},
	})
}
