package engine

import (
	"fmt"

	"github.com/fieldsense-data/habitat.report/internal/actuator"
	"github.com/fieldsense-data/habitat.report/internal/alert"
	"github.com/fieldsense-data/habitat.report/internal/indicator"
	"github.com/fieldsense-data/habitat.report/internal/quality"
	"github.com/fieldsense-data/habitat.report/internal/signal"
	"github.com/fieldsense-data/habitat.report/internal/window"
)

// BaselineConfig selects the window behaviour for one parameter.
type BaselineConfig struct {
	// Mode chooses between one-shot characterization and a continuous
	// moving average.
	Mode window.Mode

	// Capacity is the window size: the characterization sample count or
	// the moving-average span. Must be at least 1.
	Capacity int

	// Default is the mean reported before any sample has been pushed.
	Default float64
}

// ParamConfig is the complete per-parameter configuration.
type ParamConfig struct {
	Name        string
	Calibration signal.Calibration
	Baseline    BaselineConfig
	Thresholds  indicator.ParamConfig
	Score       quality.ParamScore

	// Smooth routes the moving-average mean (rather than the instantaneous
	// calibrated value) into the decision stages. Only meaningful with
	// Mode == window.Moving.
	Smooth bool
}

// Config is the immutable engine configuration, supplied once at
// construction. A constructed engine treats it as the sole source of truth
// for thresholds; changing configuration requires reconstructing the engine.
type Config struct {
	Params    []ParamConfig
	Tiers     []alert.TierConfig
	Scale     quality.Scale
	Actuators actuator.Config
}

// Validate checks the whole configuration. Any violation is a
// construction-time fatal error: the engine refuses to start rather than run
// with ill-defined behaviour.
func (c Config) Validate() error {
	if len(c.Params) == 0 {
		return fmt.Errorf("engine: at least one parameter required")
	}
	for _, p := range c.Params {
		if p.Name == "" {
			return fmt.Errorf("engine: parameter name must not be empty")
		}
		if p.Name != p.Thresholds.Name || p.Name != p.Score.Name {
			return fmt.Errorf("engine: parameter %q has mismatched threshold/score names", p.Name)
		}
		if err := p.Calibration.Validate(); err != nil {
			return fmt.Errorf("engine: parameter %q: %w", p.Name, err)
		}
		if p.Baseline.Capacity < 1 {
			return fmt.Errorf("engine: parameter %q window capacity must be at least 1", p.Name)
		}
		if p.Smooth && p.Baseline.Mode != window.Moving {
			return fmt.Errorf("engine: parameter %q smoothing requires a moving-average window", p.Name)
		}
		if p.Thresholds.DeviationPct > 0 && p.Baseline.Mode != window.Characterization {
			return fmt.Errorf("engine: parameter %q deviation threshold requires a characterization baseline", p.Name)
		}
	}
	// Leaf constructors validate the rest; run them on throwaway instances
	// so every configuration error surfaces before the engine starts.
	thresholds := make([]indicator.ParamConfig, 0, len(c.Params))
	scores := make([]quality.ParamScore, 0, len(c.Params))
	for _, p := range c.Params {
		thresholds = append(thresholds, p.Thresholds)
		scores = append(scores, p.Score)
	}
	if _, err := indicator.New(thresholds); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := quality.NewScorer(scores, c.Scale); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := alert.NewMachine(c.Tiers); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Actuators.Validate(len(c.Tiers)); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
