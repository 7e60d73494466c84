// Package engine executes filter chains against concrete imagery. It owns
// the per-entry filter-instance cache and the render scheduler; pixel
// algorithms belong to the registry the engine drives.
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/glowkit/filterchain/pkg/catalog"
	"github.com/glowkit/filterchain/pkg/chain"
	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

// RenderError reports the chain step that failed to produce output. One
// broken step invalidates the whole render; the caller never sees a
// partially rendered image.
type RenderError struct {
	FilterName string
	EntryID    string
	Err        error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("filter '%s' failed: %v", e.FilterName, e.Err)
	}
	return fmt.Sprintf("filter '%s' produced no output", e.FilterName)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// RenderInput is one complete desired render state.
type RenderInput struct {
	Chain               chain.Chain
	Base                imaging.Image
	Secondary           *imaging.Image
	ScaleSecondaryToFit bool
}

// Executor renders chains, reusing filter instances across renders for the
// lifetime of a chain entry. An executor is a single-writer resource: only
// one render runs at a time and the cache is only touched inside it.
type Executor struct {
	reg    registry.Registry
	cat    *catalog.Catalog
	logger *zap.Logger

	mu        sync.Mutex
	instances map[string]registry.Instance
}

// NewExecutor creates an executor over the given registry and catalog.
// A nil logger disables logging.
func NewExecutor(reg registry.Registry, cat *catalog.Catalog, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		reg:       reg,
		cat:       cat,
		logger:    logger,
		instances: map[string]registry.Instance{},
	}
}

// Render executes the chain against the base image. Enabled entries run in
// chain order; the first step that yields no output aborts the render with a
// RenderError. A cancelled context aborts with ctx.Err() and no result,
// leaving the instance cache as it was.
func (e *Executor) Render(ctx context.Context, in RenderInput) (*imaging.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := in.Base.Normalize()

	var secondary *imaging.Image
	if in.Secondary != nil {
		s := in.Secondary.Normalize()
		if in.ScaleSecondaryToFit {
			s = s.ScaleToFitDisplay(in.Base)
		}
		secondary = &s
	}

	e.evictRemoved(in.Chain)

	// New instances are staged and merged only when the render completes,
	// so cancellation leaves the cache exactly as it was.
	staged := map[string]registry.Instance{}

	current := base
	for _, entry := range in.Chain.Entries() {
		if !entry.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		def, ok := e.cat.Get(entry.Name)
		if !ok {
			return nil, &RenderError{FilterName: entry.Name, EntryID: entry.ID,
				Err: fmt.Errorf("filter not in catalog")}
		}

		inst, err := e.instanceFor(entry, staged)
		if err != nil {
			return nil, &RenderError{FilterName: entry.Name, EntryID: entry.ID, Err: err}
		}

		if err := e.bind(inst, def, entry, &current, secondary); err != nil {
			return nil, &RenderError{FilterName: entry.Name, EntryID: entry.ID, Err: err}
		}

		out := inst.Output()
		if out == nil {
			e.logger.Debug("render aborted",
				zap.String("filter", entry.Name), zap.String("entry", entry.ID))
			return nil, &RenderError{FilterName: entry.Name, EntryID: entry.ID}
		}
		current = *out
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for id, inst := range staged {
		e.instances[id] = inst
	}

	result := current.ConformTo(in.Base)
	return &result, nil
}

// instanceFor returns the cached instance for an entry, creating one on
// first use. Instances are reused even when parameter values change.
func (e *Executor) instanceFor(entry chain.Entry, staged map[string]registry.Instance) (registry.Instance, error) {
	if inst, ok := e.instances[entry.ID]; ok {
		return inst, nil
	}
	if inst, ok := staged[entry.ID]; ok {
		return inst, nil
	}
	inst, err := e.reg.Instantiate(entry.Name)
	if err != nil {
		return nil, err
	}
	staged[entry.ID] = inst
	return inst, nil
}

// bind wires the working image, the secondary image, and every override
// into the instance. The background role is checked before the target role;
// no observed filter declares both. An absent secondary is explicitly
// unbound so no stale image from an earlier render stays attached.
func (e *Executor) bind(inst registry.Instance, def *catalog.FilterDefinition, entry chain.Entry, current *imaging.Image, secondary *imaging.Image) error {
	if def.HasInputKey(registry.KeyInputImage) {
		img := *current
		if err := inst.SetInput(registry.KeyInputImage, &img); err != nil {
			return err
		}
	}

	if def.HasInputKey(registry.KeyBackgroundImage) {
		if err := setOptionalImage(inst, registry.KeyBackgroundImage, secondary); err != nil {
			return err
		}
	} else if def.HasInputKey(registry.KeyTargetImage) {
		if err := setOptionalImage(inst, registry.KeyTargetImage, secondary); err != nil {
			return err
		}
	}

	for _, ov := range entry.Overrides {
		if err := inst.SetInput(ov.Name, ov.Value); err != nil {
			return err
		}
	}
	return nil
}

func setOptionalImage(inst registry.Instance, key string, img *imaging.Image) error {
	if img == nil {
		return inst.SetInput(key, nil)
	}
	return inst.SetInput(key, img)
}

// evictRemoved drops cached instances whose chain entry no longer exists.
func (e *Executor) evictRemoved(c chain.Chain) {
	live := map[string]bool{}
	for _, entry := range c.Entries() {
		live[entry.ID] = true
	}
	for id := range e.instances {
		if !live[id] {
			delete(e.instances, id)
		}
	}
}
