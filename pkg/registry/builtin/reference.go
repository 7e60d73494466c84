package builtin

import (
	"image/color"

	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

// Filters in this file are catalogued but not fully supported for editing:
// they declare parameter types outside the editable numeric set, or lack a
// primary image input altogether. They keep the reference-only paths of the
// catalog honest.

func init() {
	register(&filterSpec{
		name:       "MonochromeTint",
		category:   "adjustment",
		inputKeys:  []string{registry.KeyInputImage, "inputColor", "inputIntensity"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage: imageAttrs("Image"),
			"inputColor": {
				registry.AttrDisplayName: "Color",
				registry.AttrClassType:   "color",
				registry.AttrType:        "color",
			},
			"inputIntensity": numberAttrs("Intensity", "scalar", map[string]float64{
				registry.AttrDefault:   1,
				registry.AttrIdentity:  0,
				registry.AttrSliderMin: 0,
				registry.AttrSliderMax: 1,
			}),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			intensity := paramOr(in.params, "inputIntensity", 1)
			norm := in.image.Normalize()
			pix := mapPixels(norm.Pixels, func(c color.NRGBA) color.NRGBA {
				gray := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
				return color.NRGBA{
					R: clampU8(float64(c.R)*(1-intensity) + gray*intensity),
					G: clampU8(float64(c.G)*(1-intensity) + gray*intensity),
					B: clampU8(float64(c.B)*(1-intensity) + gray*intensity),
					A: c.A,
				}
			})
			return derived(in.image, pix)
		},
	})

	// Generator with no primary image input; never usable in a chain.
	register(&filterSpec{
		name:       "LinearGradient",
		category:   "generator",
		inputKeys:  []string{"inputColor0", "inputColor1"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			"inputColor0": {
				registry.AttrDisplayName: "Color 1",
				registry.AttrClassType:   "color",
				registry.AttrType:        "color",
			},
			"inputColor1": {
				registry.AttrDisplayName: "Color 2",
				registry.AttrClassType:   "color",
				registry.AttrType:        "color",
			},
		},
		apply: func(in applyInput) *imaging.Image {
			return nil
		},
	})
}
