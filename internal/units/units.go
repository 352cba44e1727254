// Package units provides shared conversion and range helpers for sensor values.
package units

import "math"

// ADCToVolts converts a raw ADC count to volts given the converter's
// full-scale count and reference voltage.
func ADCToVolts(raw, adcMax int, vref float64) float64 {
	if adcMax <= 0 {
		return 0
	}
	if raw < 0 {
		raw = 0
	}
	if raw > adcMax {
		raw = adcMax
	}
	return float64(raw) / float64(adcMax) * vref
}

// Clamp limits v to the inclusive range [lo, hi]. NaN collapses to lo so a
// clamped value is always usable in arithmetic downstream.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CelsiusToFahrenheit converts degrees Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// FahrenheitToCelsius converts degrees Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// PercentOfRange expresses v as a percentage position inside [lo, hi],
// clamped to [0, 100]. Used for ratio-scaled sensors reported as percentages.
func PercentOfRange(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return Clamp((v-lo)/(hi-lo)*100.0, 0, 100)
}
