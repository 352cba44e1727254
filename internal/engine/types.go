package engine

import (
	"math"

	"github.com/fieldsense-data/habitat.report/internal/quality"
)

// Sample is one raw reading for one parameter on one tick, as handed in by
// the external sensor driver.
type Sample struct {
	// Raw is the ADC count in [0, ADCMax].
	Raw int

	// Secondary is an auxiliary measured variable used for compensation,
	// e.g. a temperature correction term. Only meaningful when
	// HasSecondary is true.
	Secondary    float64
	HasSecondary bool

	// Valid is false when the upstream driver failed to read the sensor.
	// Invalid samples reject the tick for their parameter.
	Valid bool

	// Tick is the monotonic tick counter assigned by the caller.
	Tick uint64
}

// NewSample builds a valid sample.
func NewSample(tick uint64, raw int) Sample {
	return Sample{Raw: raw, Valid: true, Tick: tick}
}

// NewCompensatedSample builds a valid sample carrying a secondary variable.
// A non-finite secondary marks the sample invalid rather than letting NaN
// reach the pipeline.
func NewCompensatedSample(tick uint64, raw int, secondary float64) Sample {
	if math.IsNaN(secondary) || math.IsInf(secondary, 0) {
		return InvalidSample(tick)
	}
	return Sample{Raw: raw, Secondary: secondary, HasSecondary: true, Valid: true, Tick: tick}
}

// InvalidSample marks an upstream read failure for one tick.
func InvalidSample(tick uint64) Sample {
	return Sample{Tick: tick}
}

// TelemetryRecord is the per-tick output handed to the external telemetry
// publisher.
type TelemetryRecord struct {
	Tick uint64 `json:"tick"`

	// Values holds the calibrated (and, for smoothed parameters, averaged)
	// value per parameter — the values the decision stages consumed.
	Values map[string]float64 `json:"values"`

	// Indicators is the evaluated indicator vector.
	Indicators map[string]bool `json:"indicators"`

	// Level is the debounced alert level: the highest active tier, 0 if none.
	Level int `json:"level"`

	QualityIndex  float64        `json:"quality_index"`
	QualityRating quality.Rating `json:"quality_rating"`

	// Stale is true when at least one parameter's reading failed this tick
	// and its previous value was reused. StaleParams names them.
	Stale       bool     `json:"stale"`
	StaleParams []string `json:"stale_params,omitempty"`
}
