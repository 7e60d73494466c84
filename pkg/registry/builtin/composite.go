package builtin

import (
	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

func init() {
	register(&filterSpec{
		name:       "SourceOverCompositing",
		category:   "composite",
		inputKeys:  []string{registry.KeyInputImage, registry.KeyBackgroundImage},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage:      imageAttrs("Image"),
			registry.KeyBackgroundImage: imageAttrs("Background Image"),
		},
		apply: func(in applyInput) *imaging.Image {
			if in.image == nil {
				return nil
			}
			// Without a background the composite degenerates to the input.
			if in.background == nil {
				out := in.image.Normalize()
				return &out
			}
			fg := in.image.Normalize()
			bg := in.background.Normalize()
			return derived(in.image, over(fg.Pixels, bg.Pixels))
		},
	})

	register(&filterSpec{
		name:       "DissolveTransition",
		category:   "transition",
		inputKeys:  []string{registry.KeyInputImage, registry.KeyTargetImage, "inputTime"},
		outputKeys: []string{registry.KeyOutputImage},
		attributes: map[string]map[string]any{
			registry.KeyInputImage:  imageAttrs("Image"),
			registry.KeyTargetImage: imageAttrs("Target Image"),
			"inputTime": numberAttrs("Time", "time", map[string]float64{
				registry.AttrDefault:   0,
				registry.AttrIdentity:  0,
				registry.AttrMin:       0,
				registry.AttrMax:       1,
			}),
		},
		apply: func(in applyInput) *imaging.Image {
			// A transition has nothing to show without both endpoints.
			if in.image == nil || in.target == nil {
				return nil
			}
			t := paramOr(in.params, "inputTime", 0)
			from := in.image.Normalize()
			to := in.target.Normalize()
			return derived(in.image, mix(from.Pixels, to.Pixels, t))
		},
	})
}
