// Package registry defines the contract between the chain engine and an
// external filter library. The engine never implements a filter's pixel
// algorithm; it discovers filters through a Registry, reads their declared
// attributes, and drives Instance handles at render time.
package registry

import "github.com/glowkit/filterchain/pkg/imaging"

// Well-known parameter keys carrying image roles. A filter is only
// executable in a chain if it declares KeyInputImage among its input keys
// and KeyOutputImage among its output keys.
const (
	KeyInputImage      = "inputImage"
	KeyBackgroundImage = "inputBackgroundImage"
	KeyTargetImage     = "inputTargetImage"
	KeyOutputImage     = "outputImage"
)

// Attribute map field names supplied by Describe for each input key.
const (
	AttrDisplayName = "displayName"
	AttrClassType   = "classType"
	AttrDescription = "description"
	AttrType        = "type"
	AttrDefault     = "default"
	AttrIdentity    = "identity"
	AttrMin         = "min"
	AttrMax         = "max"
	AttrSliderMin   = "sliderMin"
	AttrSliderMax   = "sliderMax"
)

// Description is the raw metadata a registry reports for one filter.
type Description struct {
	Name       string
	Category   string
	InputKeys  []string
	OutputKeys []string

	// Attributes maps each input key to its attribute dictionary. Values
	// are untyped; the catalog validates and types them.
	Attributes map[string]map[string]any
}

// Instance is a live filter object. Inputs are bound by key; binding nil
// clears a previously bound value. Output returns nil when the instance
// cannot produce an image with its current bindings.
type Instance interface {
	SetInput(key string, value any) error
	Output() *imaging.Image
}

// Registry is the external filter library the engine sequences.
type Registry interface {
	// ListBuiltinFilterNames returns the names of all available filters.
	ListBuiltinFilterNames() []string

	// Describe returns the declared metadata for one filter.
	Describe(name string) (*Description, error)

	// Instantiate creates a fresh filter instance.
	Instantiate(name string) (Instance, error)
}
