// Package signal converts raw ADC samples into calibrated physical values.
//
// Calibration is a pure function of the sample and the immutable Calibration
// parameters: no state, no side effects, identical inputs always produce the
// identical output. Results are always clamped to the configured physical
// range, so downstream stages never see NaN, Inf, or out-of-range values.
package signal

import (
	"fmt"
	"math"

	"github.com/fieldsense-data/habitat.report/internal/units"
)

// Method selects how a raw ADC count is mapped to a physical value.
type Method int

const (
	// TwoPoint inverts a linear voltage response through two reference
	// (value, voltage) pairs, e.g. a pH probe characterized at pH 4 and pH 7.
	TwoPoint Method = iota

	// Ratio scales the ADC fraction raw/adcMax onto [0, ScaleMax], e.g. a
	// smoke sensor reported as a percentage of full scale.
	Ratio
)

// Calibration holds the immutable parameters for one sensor channel.
type Calibration struct {
	Method Method

	// ADCMax is the full-scale ADC count (e.g. 1023 for 10-bit, 4095 for 12-bit).
	ADCMax int

	// VRef is the converter reference voltage at full scale. Only used by TwoPoint.
	VRef float64

	// TwoPoint reference pairs. The voltages must differ and the values must
	// differ, otherwise the inversion is undefined.
	RefLowValue   float64
	RefLowVolts   float64
	RefHighValue  float64
	RefHighVolts  float64

	// ScaleMax is the value at full scale for Ratio calibration.
	ScaleMax float64

	// Optional linear compensation by a secondary measured variable:
	// value *= 1 + CompCoeff*(secondary - CompRef). A zero CompCoeff
	// disables compensation.
	CompCoeff float64
	CompRef   float64

	// PhysicalMin/PhysicalMax bound the physically valid range. Every
	// calibrated value is clamped into this interval.
	PhysicalMin float64
	PhysicalMax float64
}

// Validate reports whether the calibration parameters define a usable mapping.
func (c Calibration) Validate() error {
	if c.ADCMax <= 0 {
		return fmt.Errorf("signal: adc max must be positive, got %d", c.ADCMax)
	}
	if c.PhysicalMin >= c.PhysicalMax {
		return fmt.Errorf("signal: physical range [%v, %v] is empty", c.PhysicalMin, c.PhysicalMax)
	}
	for _, v := range []float64{c.VRef, c.RefLowValue, c.RefLowVolts, c.RefHighValue, c.RefHighVolts, c.ScaleMax, c.CompCoeff, c.CompRef, c.PhysicalMin, c.PhysicalMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("signal: calibration parameter is not finite")
		}
	}
	switch c.Method {
	case TwoPoint:
		if c.VRef <= 0 {
			return fmt.Errorf("signal: vref must be positive for two-point calibration, got %v", c.VRef)
		}
		if c.RefHighVolts == c.RefLowVolts {
			return fmt.Errorf("signal: two-point reference voltages must differ")
		}
		if c.RefHighValue == c.RefLowValue {
			return fmt.Errorf("signal: two-point reference values must differ")
		}
	case Ratio:
		if c.ScaleMax == 0 {
			return fmt.Errorf("signal: scale max must be non-zero for ratio calibration")
		}
	default:
		return fmt.Errorf("signal: unknown calibration method %d", c.Method)
	}
	return nil
}

// Calibrate maps a raw ADC count to a calibrated physical value. The raw
// count is clamped to [0, ADCMax] before conversion and the result is clamped
// to [PhysicalMin, PhysicalMax]. When hasSecondary is true the secondary
// variable contributes a linear compensation term.
func (c Calibration) Calibrate(raw int, secondary float64, hasSecondary bool) float64 {
	var value float64
	switch c.Method {
	case TwoPoint:
		volts := units.ADCToVolts(raw, c.ADCMax, c.VRef)
		slope := (c.RefHighVolts - c.RefLowVolts) / (c.RefHighValue - c.RefLowValue)
		value = c.RefLowValue + (volts-c.RefLowVolts)/slope
	case Ratio:
		if raw < 0 {
			raw = 0
		}
		if raw > c.ADCMax {
			raw = c.ADCMax
		}
		value = float64(raw) / float64(c.ADCMax) * c.ScaleMax
	}

	if hasSecondary && c.CompCoeff != 0 && !math.IsNaN(secondary) && !math.IsInf(secondary, 0) {
		value *= 1 + c.CompCoeff*(secondary-c.CompRef)
	}

	return units.Clamp(value, c.PhysicalMin, c.PhysicalMax)
}
