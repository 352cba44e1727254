// Package indicator evaluates calibrated values against configured threshold
// bands, producing an ordered boolean indicator vector per tick.
package indicator

import (
	"fmt"
	"math"
)

// ParamConfig holds the threshold bands for one parameter. The optimal band
// must sit strictly inside the critical band: a reading can exceed the
// optimal band (caution) well before it exceeds the critical band.
type ParamConfig struct {
	Name string

	// Optimal band. A value outside [OptimalMin, OptimalMax] raises the
	// "<name>.range" indicator.
	OptimalMin float64
	OptimalMax float64

	// Critical band, enabled by Critical. A value outside
	// [CriticalMin, CriticalMax] raises "<name>.critical".
	Critical    bool
	CriticalMin float64
	CriticalMax float64

	// DeviationPct, when positive, raises "<name>.deviation" if the value
	// differs from the learned baseline by at least this percentage. The
	// indicator stays false until a baseline is available, and also while
	// the baseline is exactly zero: percent deviation from zero is
	// ill-defined, so a zero baseline never raises the indicator. Sensors
	// whose idle reading can legitimately characterize to zero should use
	// the absolute critical band instead.
	DeviationPct float64

	// RecoveryHigh, enabled by Recovery, marks the parameter as recovered
	// once the value crosses back above this threshold. Recovery flags are
	// reported separately and never count toward ActiveCount; they exist
	// for actuator early-exit decisions.
	Recovery     bool
	RecoveryHigh float64
}

func (p ParamConfig) validate() error {
	if p.Name == "" {
		return fmt.Errorf("indicator: parameter name must not be empty")
	}
	if p.OptimalMin >= p.OptimalMax {
		return fmt.Errorf("indicator: %s optimal band [%v, %v] is empty", p.Name, p.OptimalMin, p.OptimalMax)
	}
	if p.Critical {
		if p.CriticalMin >= p.OptimalMin {
			return fmt.Errorf("indicator: %s critical lower bound %v must be strictly below optimal %v", p.Name, p.CriticalMin, p.OptimalMin)
		}
		if p.CriticalMax <= p.OptimalMax {
			return fmt.Errorf("indicator: %s critical upper bound %v must be strictly above optimal %v", p.Name, p.CriticalMax, p.OptimalMax)
		}
	}
	if p.DeviationPct < 0 {
		return fmt.Errorf("indicator: %s deviation percentage must not be negative, got %v", p.Name, p.DeviationPct)
	}
	return nil
}

// Vector is the result of one evaluation pass: an ordered, fixed set of named
// boolean indicators plus derived counts.
type Vector struct {
	// Names lists every indicator in its fixed configuration order.
	Names []string

	// Active maps each indicator name to its current state.
	Active map[string]bool

	// ActiveCount is the number of true indicators.
	ActiveCount int

	// CriticalCount is the number of true critical-band indicators.
	CriticalCount int

	// Total is the number of configured indicators.
	Total int

	// Recovered maps "<name>.recovered" flags for parameters configured
	// with a recovery threshold. Not part of the indicator set.
	Recovered map[string]bool
}

// Evaluator is a stateless threshold evaluator over a fixed parameter set.
type Evaluator struct {
	params []ParamConfig
	names  []string
}

// New builds an evaluator. Misordered threshold bands are construction-time
// errors; evaluation itself never fails.
func New(params []ParamConfig) (*Evaluator, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("indicator: at least one parameter required")
	}
	seen := make(map[string]bool, len(params))
	var names []string
	for _, p := range params {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("indicator: duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		names = append(names, p.Name+".range")
		if p.Critical {
			names = append(names, p.Name+".critical")
		}
		if p.DeviationPct > 0 {
			names = append(names, p.Name+".deviation")
		}
	}
	return &Evaluator{params: params, names: names}, nil
}

// Names returns the ordered indicator names.
func (e *Evaluator) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Evaluate compares the calibrated values against the configured bands.
// baselines carries the learned reference per parameter; parameters whose
// baseline is not yet available keep their deviation indicator false.
// Values are assumed clamped and finite (the conditioner guarantees this).
func (e *Evaluator) Evaluate(values map[string]float64, baselines map[string]float64) Vector {
	v := Vector{
		Names:     e.Names(),
		Active:    make(map[string]bool, len(e.names)),
		Total:     len(e.names),
		Recovered: make(map[string]bool),
	}
	for _, p := range e.params {
		val, ok := values[p.Name]
		if !ok {
			// No reading for this parameter this tick; all its indicators
			// stay false rather than guessing.
			v.Active[p.Name+".range"] = false
			if p.Critical {
				v.Active[p.Name+".critical"] = false
			}
			if p.DeviationPct > 0 {
				v.Active[p.Name+".deviation"] = false
			}
			continue
		}

		outOfBand := val < p.OptimalMin || val > p.OptimalMax
		v.Active[p.Name+".range"] = outOfBand
		if outOfBand {
			v.ActiveCount++
		}

		if p.Critical {
			crit := val < p.CriticalMin || val > p.CriticalMax
			v.Active[p.Name+".critical"] = crit
			if crit {
				v.ActiveCount++
				v.CriticalCount++
			}
		}

		if p.DeviationPct > 0 {
			deviated := false
			// base == 0 keeps the indicator false; see DeviationPct.
			if base, ok := baselines[p.Name]; ok && base != 0 {
				deviated = math.Abs(val-base)/math.Abs(base)*100 >= p.DeviationPct
			}
			v.Active[p.Name+".deviation"] = deviated
			if deviated {
				v.ActiveCount++
			}
		}

		if p.Recovery {
			v.Recovered[p.Name+".recovered"] = val >= p.RecoveryHigh
		}
	}
	return v
}
