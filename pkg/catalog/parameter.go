// Package catalog normalizes the raw filter metadata reported by a registry
// into typed definitions the chain layer can validate against.
package catalog

import (
	"github.com/glowkit/filterchain/pkg/registry"
)

// ParameterType is the closed set of declared parameter type tags.
type ParameterType string

const (
	TypeTime        ParameterType = "time"
	TypeScalar      ParameterType = "scalar"
	TypeDistance    ParameterType = "distance"
	TypeAngle       ParameterType = "angle"
	TypeBoolean     ParameterType = "boolean"
	TypeInteger     ParameterType = "integer"
	TypeCount       ParameterType = "count"
	TypePosition    ParameterType = "position"
	TypeOffset      ParameterType = "offset"
	TypePosition3   ParameterType = "position3"
	TypeRectangle   ParameterType = "rectangle"
	TypeOpaqueColor ParameterType = "opaqueColor"
	TypeColor       ParameterType = "color"
	TypeGradient    ParameterType = "gradient"
	TypeImage       ParameterType = "image"
	TypeTransform   ParameterType = "transform"
)

var knownTypes = map[ParameterType]bool{
	TypeTime: true, TypeScalar: true, TypeDistance: true, TypeAngle: true,
	TypeBoolean: true, TypeInteger: true, TypeCount: true, TypePosition: true,
	TypeOffset: true, TypePosition3: true, TypeRectangle: true,
	TypeOpaqueColor: true, TypeColor: true, TypeGradient: true,
	TypeImage: true, TypeTransform: true,
}

// editableTypes are the parameter types exposed for user editing.
var editableTypes = map[ParameterType]bool{
	TypeScalar: true, TypeDistance: true, TypeTime: true,
	TypeInteger: true, TypeAngle: true,
}

// ParameterDefinition is one validated, typed parameter of a filter.
// Bound fields are nil when the registry did not declare them; absence is
// meaningful to the resolution rules below.
type ParameterDefinition struct {
	Name        string
	DisplayName string
	ClassType   string
	Description string
	Type        ParameterType

	Default   *float64
	Identity  *float64
	Min       *float64
	Max       *float64
	SliderMin *float64
	SliderMax *float64

	// ImageRole marks parameters that receive an image from the executor
	// (primary, background, or transition target) rather than a user value.
	ImageRole bool
}

// ParseParameter validates one raw attribute dictionary into a typed
// definition. Returns nil when the declaration is malformed (missing display
// name or class) or its type tag is unrecognized; such parameters are
// dropped, never retained as unknowns.
func ParseParameter(key string, attrs map[string]any) *ParameterDefinition {
	displayName, ok := attrs[registry.AttrDisplayName].(string)
	if !ok || displayName == "" {
		return nil
	}
	classType, ok := attrs[registry.AttrClassType].(string)
	if !ok || classType == "" {
		return nil
	}

	tag, _ := attrs[registry.AttrType].(string)
	typ := ParameterType(tag)
	if !knownTypes[typ] {
		return nil
	}

	description, _ := attrs[registry.AttrDescription].(string)

	return &ParameterDefinition{
		Name:        key,
		DisplayName: displayName,
		ClassType:   classType,
		Description: description,
		Type:        typ,
		Default:     floatAttr(attrs, registry.AttrDefault),
		Identity:    floatAttr(attrs, registry.AttrIdentity),
		Min:         floatAttr(attrs, registry.AttrMin),
		Max:         floatAttr(attrs, registry.AttrMax),
		SliderMin:   floatAttr(attrs, registry.AttrSliderMin),
		SliderMax:   floatAttr(attrs, registry.AttrSliderMax),
		ImageRole:   isImageRoleKey(key),
	}
}

func isImageRoleKey(key string) bool {
	switch key {
	case registry.KeyInputImage, registry.KeyBackgroundImage, registry.KeyTargetImage:
		return true
	}
	return false
}

// floatAttr extracts an optional numeric attribute, tolerating the numeric
// types a dynamic attribute map may carry.
func floatAttr(attrs map[string]any, name string) *float64 {
	raw, ok := attrs[name]
	if !ok {
		return nil
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return nil
	}
	return &v
}

// Supported reports whether the parameter can appear on the editing surface:
// its type is editable, or it is an image role filled in by the executor.
func (p *ParameterDefinition) Supported() bool {
	return editableTypes[p.Type] || p.ImageRole
}

// Editable reports whether the parameter takes a user-supplied numeric value.
func (p *ParameterDefinition) Editable() bool {
	return editableTypes[p.Type] && !p.ImageRole
}

// PreferredDefault resolves the initial value for an editable parameter:
// default, then identity, min, max, sliderMin, sliderMax, then 0.
func (p *ParameterDefinition) PreferredDefault() float64 {
	for _, v := range []*float64{p.Default, p.Identity, p.Min, p.Max, p.SliderMin, p.SliderMax} {
		if v != nil {
			return *v
		}
	}
	return 0
}

// PreferredSliderMin resolves the lower slider bound: min, then sliderMin,
// then 0. Default and identity are never consulted.
func (p *ParameterDefinition) PreferredSliderMin() float64 {
	if p.Min != nil {
		return *p.Min
	}
	if p.SliderMin != nil {
		return *p.SliderMin
	}
	return 0
}

// PreferredSliderMax resolves the upper slider bound: max, then sliderMax,
// then 0.
func (p *ParameterDefinition) PreferredSliderMax() float64 {
	if p.Max != nil {
		return *p.Max
	}
	if p.SliderMax != nil {
		return *p.SliderMax
	}
	return 0
}
