// Package config loads subsystem profiles from JSON files and converts them
// into engine configuration.
//
// Profiles use pointer fields so partial files are safe: fields omitted from
// the JSON keep their defaults through the Get* accessors. All semantic
// validation lives in the engine configuration itself; a profile that builds
// an invalid engine.Config fails at construction, never at runtime.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldsense-data/habitat.report/internal/actuator"
	"github.com/fieldsense-data/habitat.report/internal/alert"
	"github.com/fieldsense-data/habitat.report/internal/engine"
	"github.com/fieldsense-data/habitat.report/internal/indicator"
	"github.com/fieldsense-data/habitat.report/internal/quality"
	"github.com/fieldsense-data/habitat.report/internal/signal"
	"github.com/fieldsense-data/habitat.report/internal/window"
)

// Profile is the root JSON schema for one subsystem (soil, fire, water).
type Profile struct {
	Name            *string `json:"name,omitempty"`
	IntervalSeconds *int    `json:"interval_seconds,omitempty"`

	// TimestampColumn names the CSV timestamp column for replay datasets.
	TimestampColumn *string `json:"timestamp_column,omitempty"`

	Parameters []ParamProfile   `json:"parameters"`
	Tiers      []TierProfile    `json:"tiers"`
	Quality    *QualityProfile  `json:"quality,omitempty"`
	Actuators  *ActuatorProfile `json:"actuators,omitempty"`
}

// ParamProfile configures one parameter end to end: calibration, baseline
// window, threshold bands, and quality scoring.
type ParamProfile struct {
	Name string `json:"name"`

	// Column is the CSV column for replay; defaults to the parameter name.
	Column          *string `json:"column,omitempty"`
	SecondaryColumn *string `json:"secondary_column,omitempty"`

	// Calibration
	Method       *string  `json:"method,omitempty"` // "ratio" (default) or "two_point"
	ADCMax       *int     `json:"adc_max,omitempty"`
	VRef         *float64 `json:"vref,omitempty"`
	RefLowValue  *float64 `json:"ref_low_value,omitempty"`
	RefLowVolts  *float64 `json:"ref_low_volts,omitempty"`
	RefHighValue *float64 `json:"ref_high_value,omitempty"`
	RefHighVolts *float64 `json:"ref_high_volts,omitempty"`
	ScaleMax     *float64 `json:"scale_max,omitempty"`
	CompCoeff    *float64 `json:"comp_coeff,omitempty"`
	CompRef      *float64 `json:"comp_ref,omitempty"`
	PhysicalMin  *float64 `json:"physical_min,omitempty"`
	PhysicalMax  *float64 `json:"physical_max,omitempty"`

	// Threshold bands
	OptimalMin   *float64 `json:"optimal_min,omitempty"`
	OptimalMax   *float64 `json:"optimal_max,omitempty"`
	CriticalMin  *float64 `json:"critical_min,omitempty"`
	CriticalMax  *float64 `json:"critical_max,omitempty"`
	DeviationPct *float64 `json:"deviation_pct,omitempty"`
	RecoveryHigh *float64 `json:"recovery_high,omitempty"`

	// Baseline window
	BaselineMode    *string  `json:"baseline_mode,omitempty"` // "moving" (default) or "characterization"
	WindowSize      *int     `json:"window_size,omitempty"`
	BaselineDefault *float64 `json:"baseline_default,omitempty"`
	Smooth          *bool    `json:"smooth,omitempty"`

	// Quality scoring
	ScoreMode *string  `json:"score_mode,omitempty"` // "optimum", "higher_worse", "higher_better"
	Ideal     *float64 `json:"ideal,omitempty"`
	Slope     *float64 `json:"slope,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
}

// TierProfile configures one alert tier, ascending severity order.
type TierProfile struct {
	Name          string `json:"name"`
	MinActive     *int   `json:"min_active,omitempty"`
	OnAnyCritical *bool  `json:"on_any_critical,omitempty"`
	OnAllActive   *bool  `json:"on_all_active,omitempty"`
	Debounce      *int   `json:"debounce,omitempty"`
}

// QualityProfile configures the rating scale.
type QualityProfile struct {
	Breakpoints []BreakpointProfile `json:"breakpoints"`
	Fallback    string              `json:"fallback"`
}

// BreakpointProfile maps a minimum index to a rating label.
type BreakpointProfile struct {
	Min    float64 `json:"min"`
	Rating string  `json:"rating"`
}

// ActuatorProfile configures LEDs, buzzer, and the optional motor.
type ActuatorProfile struct {
	LEDCount    *int          `json:"led_count,omitempty"`
	BuzzerLevel *int          `json:"buzzer_level,omitempty"`
	Motor       *MotorProfile `json:"motor,omitempty"`
}

// MotorProfile configures the motor sub-machine.
type MotorProfile struct {
	TriggerTier       int    `json:"trigger_tier"`
	RunTicks          uint64 `json:"run_ticks"`
	RecoveryIndicator string `json:"recovery_indicator,omitempty"`
}

// LoadProfile loads a profile from a JSON file. The file must have a .json
// extension and stay under the size cap.
func LoadProfile(path string) (*Profile, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("profile file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat profile: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("profile too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	return &p, nil
}

// MustLoadProfile loads a profile by searching the current directory and
// common parent directories. Panics on failure; intended for test setup.
func MustLoadProfile(rel string) *Profile {
	candidates := []string{
		rel,
		filepath.Join("..", "..", rel),
		filepath.Join("..", "..", "..", rel),
	}
	for _, path := range candidates {
		if p, err := LoadProfile(path); err == nil {
			return p
		}
	}
	panic("cannot find " + rel + " - run tests from repository root")
}

// GetName returns the subsystem name or a default.
func (p *Profile) GetName() string {
	if p.Name == nil || *p.Name == "" {
		return "subsystem"
	}
	return *p.Name
}

// GetIntervalSeconds returns the sampling period or the 60s default.
func (p *Profile) GetIntervalSeconds() int {
	if p.IntervalSeconds == nil || *p.IntervalSeconds <= 0 {
		return 60
	}
	return *p.IntervalSeconds
}

// GetTimestampColumn returns the CSV timestamp column or the default.
func (p *Profile) GetTimestampColumn() string {
	if p.TimestampColumn == nil || *p.TimestampColumn == "" {
		return "timestamp"
	}
	return *p.TimestampColumn
}

// GetColumn returns the CSV column for this parameter.
func (pp *ParamProfile) GetColumn() string {
	if pp.Column == nil || *pp.Column == "" {
		return pp.Name
	}
	return *pp.Column
}

// GetSecondaryColumn returns the CSV column for the secondary variable, or
// empty when the parameter has none.
func (pp *ParamProfile) GetSecondaryColumn() string {
	if pp.SecondaryColumn == nil {
		return ""
	}
	return *pp.SecondaryColumn
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool) bool { return p != nil && *p }

func strOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// Engine converts the profile into a validated engine configuration.
func (p *Profile) Engine() (engine.Config, error) {
	var cfg engine.Config
	for _, pp := range p.Parameters {
		param, err := pp.engineParam()
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Params = append(cfg.Params, param)
	}

	for _, tp := range p.Tiers {
		cfg.Tiers = append(cfg.Tiers, alert.TierConfig{
			Name:          tp.Name,
			MinActive:     intOr(tp.MinActive, 0),
			OnAnyCritical: boolOr(tp.OnAnyCritical),
			OnAllActive:   boolOr(tp.OnAllActive),
			Debounce:      intOr(tp.Debounce, 1),
		})
	}

	cfg.Scale = quality.Scale{Fallback: "very_poor"}
	if p.Quality != nil {
		for _, bp := range p.Quality.Breakpoints {
			cfg.Scale.Breakpoints = append(cfg.Scale.Breakpoints, quality.Breakpoint{
				Min:    bp.Min,
				Rating: quality.Rating(bp.Rating),
			})
		}
		if p.Quality.Fallback != "" {
			cfg.Scale.Fallback = quality.Rating(p.Quality.Fallback)
		}
	}
	if len(cfg.Scale.Breakpoints) == 0 {
		cfg.Scale.Breakpoints = []quality.Breakpoint{
			{Min: 90, Rating: "excellent"},
			{Min: 70, Rating: "good"},
			{Min: 50, Rating: "fair"},
			{Min: 25, Rating: "poor"},
		}
	}

	cfg.Actuators = actuator.Config{LEDCount: 3, BuzzerLevel: len(cfg.Tiers)}
	if p.Actuators != nil {
		cfg.Actuators.LEDCount = intOr(p.Actuators.LEDCount, 3)
		cfg.Actuators.BuzzerLevel = intOr(p.Actuators.BuzzerLevel, len(cfg.Tiers))
		if p.Actuators.Motor != nil {
			cfg.Actuators.Motor = actuator.MotorConfig{
				Enabled:           true,
				TriggerTier:       p.Actuators.Motor.TriggerTier,
				RunTicks:          p.Actuators.Motor.RunTicks,
				RecoveryIndicator: p.Actuators.Motor.RecoveryIndicator,
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("profile %s: %w", p.GetName(), err)
	}
	return cfg, nil
}

func (pp *ParamProfile) engineParam() (engine.ParamConfig, error) {
	if pp.Name == "" {
		return engine.ParamConfig{}, fmt.Errorf("profile parameter name must not be empty")
	}
	if pp.OptimalMin == nil || pp.OptimalMax == nil {
		return engine.ParamConfig{}, fmt.Errorf("parameter %q: optimal_min and optimal_max are required", pp.Name)
	}
	if (pp.CriticalMin == nil) != (pp.CriticalMax == nil) {
		return engine.ParamConfig{}, fmt.Errorf("parameter %q: critical_min and critical_max must be set together", pp.Name)
	}

	cal := signal.Calibration{
		ADCMax:      intOr(pp.ADCMax, 4095),
		VRef:        floatOr(pp.VRef, 3.3),
		ScaleMax:    floatOr(pp.ScaleMax, 100),
		CompCoeff:   floatOr(pp.CompCoeff, 0),
		CompRef:     floatOr(pp.CompRef, 0),
		PhysicalMin: floatOr(pp.PhysicalMin, 0),
		PhysicalMax: floatOr(pp.PhysicalMax, 100),
	}
	switch method := strOr(pp.Method, "ratio"); method {
	case "ratio":
		cal.Method = signal.Ratio
	case "two_point":
		cal.Method = signal.TwoPoint
		cal.RefLowValue = floatOr(pp.RefLowValue, 0)
		cal.RefLowVolts = floatOr(pp.RefLowVolts, 0)
		cal.RefHighValue = floatOr(pp.RefHighValue, 0)
		cal.RefHighVolts = floatOr(pp.RefHighVolts, 0)
	default:
		return engine.ParamConfig{}, fmt.Errorf("parameter %q: unknown calibration method %q", pp.Name, method)
	}

	baseline := engine.BaselineConfig{
		Capacity: intOr(pp.WindowSize, 5),
		Default:  floatOr(pp.BaselineDefault, 0),
	}
	switch mode := strOr(pp.BaselineMode, "moving"); mode {
	case "moving":
		baseline.Mode = window.Moving
	case "characterization":
		baseline.Mode = window.Characterization
	default:
		return engine.ParamConfig{}, fmt.Errorf("parameter %q: unknown baseline mode %q", pp.Name, mode)
	}

	thresholds := indicator.ParamConfig{
		Name:         pp.Name,
		OptimalMin:   *pp.OptimalMin,
		OptimalMax:   *pp.OptimalMax,
		DeviationPct: floatOr(pp.DeviationPct, 0),
	}
	if pp.CriticalMin != nil {
		thresholds.Critical = true
		thresholds.CriticalMin = *pp.CriticalMin
		thresholds.CriticalMax = *pp.CriticalMax
	}
	if pp.RecoveryHigh != nil {
		thresholds.Recovery = true
		thresholds.RecoveryHigh = *pp.RecoveryHigh
	}

	score := quality.ParamScore{
		Name:   pp.Name,
		Ideal:  floatOr(pp.Ideal, 0),
		Slope:  floatOr(pp.Slope, 1),
		Weight: floatOr(pp.Weight, 1),
	}
	switch mode := strOr(pp.ScoreMode, "optimum"); mode {
	case "optimum":
		score.Mode = quality.Optimum
	case "higher_worse":
		score.Mode = quality.HigherWorse
	case "higher_better":
		score.Mode = quality.HigherBetter
	default:
		return engine.ParamConfig{}, fmt.Errorf("parameter %q: unknown score mode %q", pp.Name, mode)
	}

	return engine.ParamConfig{
		Name:        pp.Name,
		Calibration: cal,
		Baseline:    baseline,
		Thresholds:  thresholds,
		Score:       score,
		Smooth:      boolOr(pp.Smooth),
	}, nil
}
