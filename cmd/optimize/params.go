// Package main provides a CMA-ES baseline that tunes the weights of a fixed
// linear brain against headless generations.
package main

import (
	"github.com/pthm-cable/flappy/neural"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Input   string  // Brain input the weight is attached to
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates one weight per brain input, in input order.
// The default jumps when the bird is closer to the gap bottom than the gap top.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "w_y", Input: "bird y", Min: -2, Max: 2, Default: 0},
			{Name: "w_top", Input: "distance to gap top", Min: -2, Max: 2, Default: 0.05},
			{Name: "w_bottom", Input: "distance to gap bottom", Min: -2, Max: 2, Default: -0.05},
			{Name: "w_bias", Input: "bias", Min: -8, Max: 8, Default: 0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Weights returns clamped values as brain weights, ordered like the brain inputs.
func (pv *ParamVector) Weights(values []float64) [neural.BrainInputs]float64 {
	clamped := pv.Clamp(values)

	var w [neural.BrainInputs]float64
	copy(w[:], clamped)
	return w
}

// Named returns clamped values keyed by parameter name.
func (pv *ParamVector) Named(values []float64) map[string]float64 {
	clamped := pv.Clamp(values)

	named := make(map[string]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		named[spec.Name] = clamped[i]
	}
	return named
}
