package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/filterchain/pkg/catalog"
	"github.com/glowkit/filterchain/pkg/chain"
	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
	"github.com/glowkit/filterchain/pkg/registry/builtin"
)

func flatImage(w, h int, c color.NRGBA) imaging.Image {
	pix := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix.SetNRGBA(x, y, c)
		}
	}
	return imaging.New(pix)
}

func newBuiltinExecutor(t *testing.T) (*catalog.Catalog, *Executor) {
	t.Helper()
	reg := builtin.New()
	cat := catalog.Build(reg, nil)
	return cat, NewExecutor(reg, cat, nil)
}

func appendFilter(t *testing.T, c chain.Chain, cat *catalog.Catalog, name string) chain.Chain {
	t.Helper()
	def, ok := cat.Get(name)
	require.True(t, ok, "filter %s not in catalog", name)
	out, err := c.Append(def)
	require.NoError(t, err)
	return out
}

func setParam(t *testing.T, c chain.Chain, idx int, name string, v float64) chain.Chain {
	t.Helper()
	out, err := c.SetParameter(c.Entries()[idx].ID, name, v)
	require.NoError(t, err)
	return out
}

func TestRender_SingleFilterPreservesGeometry(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(20, 16, color.NRGBA{R: 120, G: 130, B: 140, A: 255})

	c := appendFilter(t, chain.New(), cat, "BloomFilter")
	c = setParam(t, c, 0, "inputIntensity", 0.5)

	out, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 20, out.Width())
	assert.Equal(t, 16, out.Height())
	assert.Equal(t, imaging.OrientUp, out.Orientation)
	assert.Equal(t, base.Space, out.Space)
}

func TestRender_OrientedBase(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(20, 16, color.NRGBA{R: 100, A: 255})
	base.Orientation = imaging.OrientRight // displays as 16x20

	c := appendFilter(t, chain.New(), cat, "ColorInvert")

	out, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)
	assert.Equal(t, 16, out.Width())
	assert.Equal(t, 20, out.Height())
	assert.Equal(t, imaging.OrientUp, out.Orientation)
}

func TestRender_EmptyChainReturnsBase(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	_ = cat
	base := flatImage(4, 4, color.NRGBA{R: 9, G: 8, B: 7, A: 255})

	out, err := exec.Render(context.Background(), RenderInput{Chain: chain.New(), Base: base})
	require.NoError(t, err)
	assert.Equal(t, base.Pixels.Pix, out.Pixels.Pix)
}

func TestRender_DisabledEntryEqualsRemovedEntry(t *testing.T) {
	cat, _ := newBuiltinExecutor(t)
	base := flatImage(8, 8, color.NRGBA{R: 60, G: 70, B: 80, A: 255})

	full := appendFilter(t, chain.New(), cat, "ExposureAdjust")
	full = setParam(t, full, 0, "inputEV", 1)
	full = appendFilter(t, full, cat, "ColorInvert")
	full = appendFilter(t, full, cat, "BoxBlur")
	full = setParam(t, full, 2, "inputRadius", 1)
	full = full.SetEnabled(full.Entries()[1].ID, false)

	trimmed := appendFilter(t, chain.New(), cat, "ExposureAdjust")
	trimmed = setParam(t, trimmed, 0, "inputEV", 1)
	trimmed = appendFilter(t, trimmed, cat, "BoxBlur")
	trimmed = setParam(t, trimmed, 1, "inputRadius", 1)

	// Fresh executors so instance caches cannot interact.
	reg := builtin.New()
	outFull, err := NewExecutor(reg, cat, nil).Render(context.Background(), RenderInput{Chain: full, Base: base})
	require.NoError(t, err)
	outTrimmed, err := NewExecutor(reg, cat, nil).Render(context.Background(), RenderInput{Chain: trimmed, Base: base})
	require.NoError(t, err)

	assert.Equal(t, outTrimmed.Pixels.Pix, outFull.Pixels.Pix)
}

func TestRender_OrderChangesOutput(t *testing.T) {
	cat, _ := newBuiltinExecutor(t)
	base := flatImage(4, 4, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	c := appendFilter(t, chain.New(), cat, "ExposureAdjust")
	c = setParam(t, c, 0, "inputEV", 1)
	c = appendFilter(t, c, cat, "ColorInvert")

	reg := builtin.New()
	forward, err := NewExecutor(reg, cat, nil).Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)

	reordered := c.Move(c.Entries()[0].ID, 1)
	backward, err := NewExecutor(reg, cat, nil).Render(context.Background(), RenderInput{Chain: reordered, Base: base})
	require.NoError(t, err)

	assert.NotEqual(t, forward.Pixels.Pix, backward.Pixels.Pix,
		"exposure and invert do not commute")
}

func TestRender_MissingOutputAbortsWholeRender(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(4, 4, color.NRGBA{R: 200, A: 255})

	// Invert runs first and succeeds; the transition then fails for want of
	// a target image. No partial result may escape.
	c := appendFilter(t, chain.New(), cat, "ColorInvert")
	c = appendFilter(t, c, cat, "DissolveTransition")

	out, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	assert.Nil(t, out)

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "DissolveTransition", rerr.FilterName)
	assert.Equal(t, c.Entries()[1].ID, rerr.EntryID)
}

func TestRender_SecondaryBoundToTargetRole(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(8, 8, color.NRGBA{R: 255, A: 255})
	target := flatImage(8, 8, color.NRGBA{B: 255, A: 255})

	c := appendFilter(t, chain.New(), cat, "DissolveTransition")
	c = setParam(t, c, 0, "inputTime", 1)

	out, err := exec.Render(context.Background(), RenderInput{
		Chain: c, Base: base, Secondary: &target,
	})
	require.NoError(t, err)
	got := out.Pixels.NRGBAAt(4, 4)
	assert.Equal(t, uint8(0), got.R)
	assert.Equal(t, uint8(255), got.B)
}

func TestRender_StaleSecondaryIsUnbound(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(8, 8, color.NRGBA{R: 255, A: 255})
	target := flatImage(8, 8, color.NRGBA{B: 255, A: 255})

	c := appendFilter(t, chain.New(), cat, "DissolveTransition")
	c = setParam(t, c, 0, "inputTime", 1)

	// First render binds the target; the second supplies none, so the same
	// cached instance must have the role cleared and fail rather than show
	// last render's image.
	_, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base, Secondary: &target})
	require.NoError(t, err)

	out, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	assert.Nil(t, out)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "DissolveTransition", rerr.FilterName)
}

func TestRender_ScaleSecondaryToFit(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(8, 8, color.NRGBA{R: 255, A: 255})
	small := flatImage(4, 4, color.NRGBA{G: 255, A: 255})

	c := appendFilter(t, chain.New(), cat, "DissolveTransition")
	c = setParam(t, c, 0, "inputTime", 1)

	out, err := exec.Render(context.Background(), RenderInput{
		Chain: c, Base: base, Secondary: &small, ScaleSecondaryToFit: true,
	})
	require.NoError(t, err)
	// The rescaled secondary covers the full base extent.
	corner := out.Pixels.NRGBAAt(7, 7)
	assert.Equal(t, uint8(255), corner.G)
	assert.Equal(t, uint8(255), corner.A)
}

func TestRender_ScaleSecondaryToFit_OrientedSecondary(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(8, 8, color.NRGBA{R: 255, A: 255})

	// Stored 4x2, row 0 green and row 1 blue; rotated 90 CW it displays
	// 2x4 with blue on the left and green on the right.
	pix := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		pix.SetNRGBA(x, 0, color.NRGBA{G: 255, A: 255})
		pix.SetNRGBA(x, 1, color.NRGBA{B: 255, A: 255})
	}
	secondary := imaging.New(pix)
	secondary.Orientation = imaging.OrientRight

	c := appendFilter(t, chain.New(), cat, "DissolveTransition")
	c = setParam(t, c, 0, "inputTime", 1)

	out, err := exec.Render(context.Background(), RenderInput{
		Chain: c, Base: base, Secondary: &secondary, ScaleSecondaryToFit: true,
	})
	require.NoError(t, err)
	require.Equal(t, 8, out.Width())
	require.Equal(t, 8, out.Height())

	left := out.Pixels.NRGBAAt(0, 4)
	right := out.Pixels.NRGBAAt(7, 4)
	assert.Greater(t, left.B, left.G, "left edge keeps the rotated blue column")
	assert.Greater(t, right.G, right.B, "right edge keeps the rotated green column")
}

func TestRender_CancelledBeforeStart(t *testing.T) {
	cat, exec := newBuiltinExecutor(t)
	base := flatImage(4, 4, color.NRGBA{A: 255})
	c := appendFilter(t, chain.New(), cat, "ColorInvert")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := exec.Render(ctx, RenderInput{Chain: c, Base: base})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)

	var rerr *RenderError
	assert.False(t, errors.As(err, &rerr), "cancellation is not a render failure")
}

// countingRegistry wraps instantiation so tests can observe instance churn
// and binding order.
type countingRegistry struct {
	registry.Registry
	instantiated int
	instances    []*recordingInstance
}

func (r *countingRegistry) Instantiate(name string) (registry.Instance, error) {
	inner, err := r.Registry.Instantiate(name)
	if err != nil {
		return nil, err
	}
	r.instantiated++
	inst := &recordingInstance{Instance: inner}
	r.instances = append(r.instances, inst)
	return inst, nil
}

type recordingInstance struct {
	registry.Instance
	sets []string
}

func (ri *recordingInstance) SetInput(key string, value any) error {
	ri.sets = append(ri.sets, key)
	return ri.Instance.SetInput(key, value)
}

func TestRender_InstancesReusedAcrossRenders(t *testing.T) {
	reg := &countingRegistry{Registry: builtin.New()}
	cat := catalog.Build(reg, nil)
	exec := NewExecutor(reg, cat, nil)
	base := flatImage(4, 4, color.NRGBA{R: 10, A: 255})

	c := appendFilter(t, chain.New(), cat, "ExposureAdjust")

	_, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.instantiated)

	// Changing a parameter must not rebuild the instance.
	c = setParam(t, c, 0, "inputEV", 2)
	_, err = exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.instantiated)

	// A removed-and-readded filter is a new entry and a new instance.
	c = c.Remove(c.Entries()[0].ID)
	c = appendFilter(t, c, cat, "ExposureAdjust")
	_, err = exec.Render(context.Background(), RenderInput{Chain: c, Base: base})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.instantiated)
}

func TestRender_CancelledRenderLeavesCacheUntouched(t *testing.T) {
	reg := &countingRegistry{Registry: builtin.New()}
	cat := catalog.Build(reg, nil)
	exec := NewExecutor(reg, cat, nil)
	base := flatImage(4, 4, color.NRGBA{A: 255})

	c := appendFilter(t, chain.New(), cat, "ColorInvert")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Render(ctx, RenderInput{Chain: c, Base: base})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, reg.instantiated)
}

// dualRoleRegistry declares a filter with both background and target image
// inputs; no shipping filter does, so the tie-break is covered here.
type dualRoleRegistry struct{}

func (dualRoleRegistry) ListBuiltinFilterNames() []string { return []string{"DualRole"} }

func (dualRoleRegistry) Describe(name string) (*registry.Description, error) {
	if name != "DualRole" {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}
	img := func(display string) map[string]any {
		return map[string]any{
			registry.AttrDisplayName: display,
			registry.AttrClassType:   "image",
			registry.AttrType:        "image",
		}
	}
	return &registry.Description{
		Name:       "DualRole",
		InputKeys:  []string{registry.KeyInputImage, registry.KeyBackgroundImage, registry.KeyTargetImage},
		OutputKeys: []string{registry.KeyOutputImage},
		Attributes: map[string]map[string]any{
			registry.KeyInputImage:      img("Image"),
			registry.KeyBackgroundImage: img("Background Image"),
			registry.KeyTargetImage:     img("Target Image"),
		},
	}, nil
}

func (dualRoleRegistry) Instantiate(name string) (registry.Instance, error) {
	return &dualRoleInstance{inputs: map[string]any{}}, nil
}

type dualRoleInstance struct {
	inputs map[string]any
	sets   []string
}

func (d *dualRoleInstance) SetInput(key string, value any) error {
	d.sets = append(d.sets, key)
	if value == nil {
		delete(d.inputs, key)
		return nil
	}
	d.inputs[key] = value
	return nil
}

func (d *dualRoleInstance) Output() *imaging.Image {
	img, _ := d.inputs[registry.KeyInputImage].(*imaging.Image)
	return img
}

func TestRender_BackgroundRoleWinsOverTarget(t *testing.T) {
	reg := dualRoleRegistry{}
	cat := catalog.Build(reg, nil)
	exec := NewExecutor(reg, cat, nil)
	base := flatImage(4, 4, color.NRGBA{A: 255})
	secondary := flatImage(4, 4, color.NRGBA{R: 1, A: 255})

	c := appendFilter(t, chain.New(), cat, "DualRole")

	_, err := exec.Render(context.Background(), RenderInput{Chain: c, Base: base, Secondary: &secondary})
	require.NoError(t, err)

	// Reach into the cached instance to check which role was bound.
	inst := exec.instances[c.Entries()[0].ID].(*dualRoleInstance)
	assert.Contains(t, inst.sets, registry.KeyBackgroundImage)
	assert.NotContains(t, inst.sets, registry.KeyTargetImage)
}
