package catalog

import (
	"sort"

	"go.uber.org/zap"

	"github.com/glowkit/filterchain/pkg/registry"
)

// FilterDefinition is the catalog's immutable view of one filter.
type FilterDefinition struct {
	Name       string
	Category   string
	InputKeys  []string
	OutputKeys []string

	// Parameters follows the order of InputKeys, minus any declarations
	// that failed to parse.
	Parameters []ParameterDefinition
}

// HasInputKey reports whether the filter declares the given input key.
func (d *FilterDefinition) HasInputKey(key string) bool {
	for _, k := range d.InputKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Usable reports whether the filter can participate in a chain: it must
// accept a primary input image and produce an output image.
func (d *FilterDefinition) Usable() bool {
	if !d.HasInputKey(registry.KeyInputImage) {
		return false
	}
	for _, k := range d.OutputKeys {
		if k == registry.KeyOutputImage {
			return true
		}
	}
	return false
}

// FullySupported reports whether the filter is usable and every non-image
// parameter has an editable type. Usable filters that are not fully
// supported stay in the catalog for reference but are excluded from the
// default add surface.
func (d *FilterDefinition) FullySupported() bool {
	if !d.Usable() {
		return false
	}
	for i := range d.Parameters {
		if !d.Parameters[i].Supported() {
			return false
		}
	}
	return true
}

// Parameter looks up a parameter by name.
func (d *FilterDefinition) Parameter(name string) (*ParameterDefinition, bool) {
	for i := range d.Parameters {
		if d.Parameters[i].Name == name {
			return &d.Parameters[i], true
		}
	}
	return nil, false
}

// EditableParameters returns the parameters seeded into a new chain entry:
// supported, non-image-role, in declared order.
func (d *FilterDefinition) EditableParameters() []ParameterDefinition {
	out := make([]ParameterDefinition, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Editable() {
			out = append(out, p)
		}
	}
	return out
}

// Catalog is an immutable snapshot of every filter a registry offers.
type Catalog struct {
	definitions map[string]*FilterDefinition
}

// Build queries the registry for all builtin filters and constructs the
// catalog. Malformed parameter declarations are dropped locally; a filter
// whose description cannot be fetched is skipped. Build never fails.
func Build(reg registry.Registry, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}

	definitions := map[string]*FilterDefinition{}
	for _, name := range reg.ListBuiltinFilterNames() {
		desc, err := reg.Describe(name)
		if err != nil {
			logger.Warn("skipping undescribable filter",
				zap.String("filter", name), zap.Error(err))
			continue
		}

		def := &FilterDefinition{
			Name:       desc.Name,
			Category:   desc.Category,
			InputKeys:  append([]string(nil), desc.InputKeys...),
			OutputKeys: append([]string(nil), desc.OutputKeys...),
		}
		for _, key := range desc.InputKeys {
			param := ParseParameter(key, desc.Attributes[key])
			if param == nil {
				logger.Debug("dropping parameter",
					zap.String("filter", name), zap.String("key", key))
				continue
			}
			def.Parameters = append(def.Parameters, *param)
		}
		definitions[def.Name] = def
	}

	logger.Info("filter catalog built", zap.Int("filters", len(definitions)))
	return &Catalog{definitions: definitions}
}

// Get looks up a definition by filter name.
func (c *Catalog) Get(name string) (*FilterDefinition, bool) {
	def, ok := c.definitions[name]
	return def, ok
}

// Definitions returns the full lookup table, including reference-only
// filters.
func (c *Catalog) Definitions() map[string]*FilterDefinition {
	out := make(map[string]*FilterDefinition, len(c.definitions))
	for name, def := range c.definitions {
		out[name] = def
	}
	return out
}

// All returns every definition sorted by name.
func (c *Catalog) All() []*FilterDefinition {
	out := make([]*FilterDefinition, 0, len(c.definitions))
	for _, def := range c.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Supported returns the definitions offered on the default add surface:
// usable and fully supported, sorted by name.
func (c *Catalog) Supported() []*FilterDefinition {
	out := make([]*FilterDefinition, 0, len(c.definitions))
	for _, def := range c.definitions {
		if def.FullySupported() {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
