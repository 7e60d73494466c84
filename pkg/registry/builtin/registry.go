// Package builtin provides a self-contained filter library implementing the
// registry contract. It exists so the engine has something real to sequence
// in the demo binary and in tests; pixel algorithms live here, never in the
// engine.
package builtin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/glowkit/filterchain/pkg/imaging"
	"github.com/glowkit/filterchain/pkg/registry"
)

// applyInput carries the resolved bindings handed to a filter's apply func.
type applyInput struct {
	image      *imaging.Image
	background *imaging.Image
	target     *imaging.Image
	params     map[string]float64
}

// filterSpec declares one builtin filter: its metadata plus the function
// that produces output from bound inputs. apply returns nil when the
// bindings are insufficient.
type filterSpec struct {
	name       string
	category   string
	inputKeys  []string
	outputKeys []string
	attributes map[string]map[string]any
	apply      func(in applyInput) *imaging.Image
}

var (
	specsMu sync.Mutex
	specs   = map[string]*filterSpec{}
)

// register adds a filter spec; called from init funcs in this package.
func register(spec *filterSpec) {
	specsMu.Lock()
	defer specsMu.Unlock()
	specs[spec.name] = spec
}

// Registry is the builtin filter library.
type Registry struct {
	filters map[string]*filterSpec
}

// New returns a registry containing every builtin filter.
func New() *Registry {
	specsMu.Lock()
	defer specsMu.Unlock()

	filters := make(map[string]*filterSpec, len(specs))
	for name, spec := range specs {
		filters[name] = spec
	}
	return &Registry{filters: filters}
}

// ListBuiltinFilterNames returns all filter names in sorted order.
func (r *Registry) ListBuiltinFilterNames() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the declared metadata for one filter.
func (r *Registry) Describe(name string) (*registry.Description, error) {
	spec, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}

	attrs := make(map[string]map[string]any, len(spec.attributes))
	for key, m := range spec.attributes {
		dup := make(map[string]any, len(m))
		for k, v := range m {
			dup[k] = v
		}
		attrs[key] = dup
	}

	return &registry.Description{
		Name:       spec.name,
		Category:   spec.category,
		InputKeys:  append([]string(nil), spec.inputKeys...),
		OutputKeys: append([]string(nil), spec.outputKeys...),
		Attributes: attrs,
	}, nil
}

// Instantiate creates a fresh instance of the named filter.
func (r *Registry) Instantiate(name string) (registry.Instance, error) {
	spec, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}
	return &instance{spec: spec, inputs: map[string]any{}}, nil
}

// instance holds the current bindings of one live filter object.
type instance struct {
	spec   *filterSpec
	inputs map[string]any
}

// SetInput binds a value to an input key; nil clears the binding.
func (in *instance) SetInput(key string, value any) error {
	known := false
	for _, k := range in.spec.inputKeys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("filter '%s' has no input '%s'", in.spec.name, key)
	}

	if value == nil {
		delete(in.inputs, key)
		return nil
	}
	in.inputs[key] = value
	return nil
}

// Output evaluates the filter against its current bindings. Returns nil
// when no output can be produced.
func (in *instance) Output() *imaging.Image {
	ai := applyInput{params: map[string]float64{}}
	for key, raw := range in.inputs {
		switch v := raw.(type) {
		case *imaging.Image:
			in.assignImage(&ai, key, v)
		case imaging.Image:
			in.assignImage(&ai, key, &v)
		case float64:
			ai.params[key] = v
		case int:
			ai.params[key] = float64(v)
		}
	}
	return in.spec.apply(ai)
}

func (in *instance) assignImage(ai *applyInput, key string, img *imaging.Image) {
	switch key {
	case registry.KeyInputImage:
		ai.image = img
	case registry.KeyBackgroundImage:
		ai.background = img
	case registry.KeyTargetImage:
		ai.target = img
	}
}

// numberAttrs builds the attribute dictionary for a numeric parameter.
// Optional bounds are added only when present, since absence is meaningful
// to the catalog's resolution rules.
func numberAttrs(display, typeTag string, bounds map[string]float64) map[string]any {
	attrs := map[string]any{
		registry.AttrDisplayName: display,
		registry.AttrClassType:   "number",
		registry.AttrType:        typeTag,
	}
	for name, v := range bounds {
		attrs[name] = v
	}
	return attrs
}

// imageAttrs builds the attribute dictionary for an image-role parameter.
func imageAttrs(display string) map[string]any {
	return map[string]any{
		registry.AttrDisplayName: display,
		registry.AttrClassType:   "image",
		registry.AttrType:        "image",
	}
}
