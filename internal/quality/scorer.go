// Package quality computes the weighted 0-100 composite quality index and
// its ordinal rating bucket from calibrated parameter values.
package quality

import (
	"fmt"
	"math"

	"github.com/fieldsense-data/habitat.report/internal/units"
)

// Mode selects the sub-score shape for one parameter.
type Mode int

const (
	// Optimum scores 100 at the ideal target, falling off linearly with
	// distance: 100 - Slope*|value - Ideal|.
	Optimum Mode = iota

	// HigherWorse scores 100 at zero, falling linearly: 100 - Slope*value.
	HigherWorse

	// HigherBetter scores proportionally toward the ideal: value/Ideal*100.
	HigherBetter
)

// ParamScore configures one parameter's contribution to the index.
type ParamScore struct {
	Name   string
	Mode   Mode
	Ideal  float64 // target for Optimum and HigherBetter
	Slope  float64 // penalty per unit distance for Optimum and HigherWorse
	Weight float64 // relative weight, must be positive
}

// Rating is the ordinal quality bucket.
type Rating string

// Breakpoint maps a minimum index value (inclusive) to a rating.
type Breakpoint struct {
	Min    float64
	Rating Rating
}

// Scale buckets an index into a rating via descending breakpoints; an index
// below every breakpoint receives Fallback.
type Scale struct {
	Breakpoints []Breakpoint
	Fallback    Rating
}

// Record is the scored result for one tick.
type Record struct {
	Index  float64
	Rating Rating
}

// Scorer is a stateless weighted composite scorer.
type Scorer struct {
	params []ParamScore
	scale  Scale
}

// NewScorer validates the configuration and builds a scorer. Weights must be
// positive and breakpoints strictly descending.
func NewScorer(params []ParamScore, scale Scale) (*Scorer, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("quality: at least one parameter required")
	}
	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("quality: parameter name must not be empty")
		}
		if p.Weight <= 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return nil, fmt.Errorf("quality: %s weight must be a positive finite number, got %v", p.Name, p.Weight)
		}
		if p.Mode == HigherBetter && p.Ideal == 0 {
			return nil, fmt.Errorf("quality: %s needs a non-zero ideal for proportional scoring", p.Name)
		}
		if (p.Mode == Optimum || p.Mode == HigherWorse) && p.Slope <= 0 {
			return nil, fmt.Errorf("quality: %s slope must be positive, got %v", p.Name, p.Slope)
		}
	}
	if len(scale.Breakpoints) == 0 {
		return nil, fmt.Errorf("quality: at least one rating breakpoint required")
	}
	if scale.Fallback == "" {
		return nil, fmt.Errorf("quality: fallback rating must not be empty")
	}
	for i, bp := range scale.Breakpoints {
		if bp.Rating == "" {
			return nil, fmt.Errorf("quality: breakpoint %d rating must not be empty", i)
		}
		if i > 0 && bp.Min >= scale.Breakpoints[i-1].Min {
			return nil, fmt.Errorf("quality: breakpoints must be strictly descending, got %v after %v", bp.Min, scale.Breakpoints[i-1].Min)
		}
	}
	return &Scorer{
		params: append([]ParamScore(nil), params...),
		scale: Scale{
			Breakpoints: append([]Breakpoint(nil), scale.Breakpoints...),
			Fallback:    scale.Fallback,
		},
	}, nil
}

func (p ParamScore) subscore(v float64) float64 {
	var s float64
	switch p.Mode {
	case Optimum:
		s = 100 - p.Slope*math.Abs(v-p.Ideal)
	case HigherWorse:
		s = 100 - p.Slope*v
	case HigherBetter:
		s = v / p.Ideal * 100
	}
	return units.Clamp(s, 0, 100)
}

// Score computes the weighted composite index and its rating. Parameters
// missing from values are excluded along with their weight, so a partial map
// still yields a finite index in [0, 100].
func (s *Scorer) Score(values map[string]float64) Record {
	var weighted, totalWeight float64
	for _, p := range s.params {
		v, ok := values[p.Name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		weighted += p.Weight * p.subscore(v)
		totalWeight += p.Weight
	}
	var index float64
	if totalWeight > 0 {
		index = units.Clamp(weighted/totalWeight, 0, 100)
	}
	return Record{Index: index, Rating: s.rate(index)}
}

func (s *Scorer) rate(index float64) Rating {
	for _, bp := range s.scale.Breakpoints {
		if index >= bp.Min {
			return bp.Rating
		}
	}
	return s.scale.Fallback
}
