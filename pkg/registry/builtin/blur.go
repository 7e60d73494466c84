package builtin

import (
	"image/color"

	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

func init() {
	register(&filterSpec{
		name:       "BoxBlur",
		category:   "blur",
		inputKeys:  []string{registry.KeyInputImage, "inputRadius"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage: imageAttrs("Image"),
			"inputRadius": numberAttrs("Radius", "distance", map[string]float64{
				registry.AttrDefault:   5,
				registry.AttrIdentity:  0,
				registry.AttrMin:       0,
				registry.AttrSliderMax: 50,
			}),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			radius := int(paramOr(in.params, "inputRadius", 5))
			norm := in.image.Normalize()
			return derived(in.image, boxBlur(norm.Pixels, radius))
		},
	})

	register(&filterSpec{
		name:       "BloomFilter",
		category:   "stylize",
		inputKeys:  []string{registry.KeyInputImage, "inputIntensity", "inputRadius"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage: imageAttrs("Image"),
			"inputIntensity": numberAttrs("Intensity", "scalar", map[string]float64{
				registry.AttrDefault:   0.5,
				registry.AttrIdentity:  0,
				registry.AttrSliderMin: 0,
				registry.AttrSliderMax: 1,
			}),
			"inputRadius": numberAttrs("Radius", "distance", map[string]float64{
				registry.AttrDefault:   10,
				registry.AttrMin:       0,
				registry.AttrSliderMax: 100,
			}),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			intensity := paramOr(in.params, "inputIntensity", 0.5)
			radius := int(paramOr(in.params, "inputRadius", 10))

			norm := in.image.Normalize()
			glow := boxBlur(norm.Pixels, radius)

			// Add the blurred highlights back on top of the source.
			b := norm.Pixels.Bounds()
			out := mapPixels(norm.Pixels, func(c color.NRGBA) color.NRGBA { return c })
			for y := 0; y < b.Dy(); y++ {
				for x := 0; x < b.Dx(); x++ {
					c := out.NRGBAAt(x, y)
					g := glow.NRGBAAt(x, y)
					out.SetNRGBA(x, y, color.NRGBA{
						R: clampU8(float64(c.R) + intensity*highlight(g.R)),
						G: clampU8(float64(c.G) + intensity*highlight(g.G)),
						B: clampU8(float64(c.B) + intensity*highlight(g.B)),
						A: c.A,
					})
				}
			}
			return derived(in.image, out)
		},
	})
}

// highlight extracts the bright portion of a blurred channel value.
func highlight(v uint8) float64 {
	const threshold = 160
	if v <= threshold {
		return 0
	}
	return float64(v - threshold)
}
