package main

import (
	"context"

	"github.com/fieldsense-data/habitat.report/internal/actuator"
	"github.com/fieldsense-data/habitat.report/internal/config"
	"github.com/fieldsense-data/habitat.report/internal/engine"
	"github.com/fieldsense-data/habitat.report/internal/monitoring"
	"github.com/fieldsense-data/habitat.report/internal/samplesource"
)

// runLoop advances the engine one tick per reading line until the context is
// cancelled or the source closes.
func runLoop(ctx context.Context, profile *config.Profile, eng *engine.Engine, lines <-chan string) {
	var tick uint64
	var prev actuator.Command
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch samplesource.ClassifyLine(line) {
			case samplesource.LineTypeStatus:
				monitoring.Logf("node: %s", line)
				continue
			case samplesource.LineTypeUnknown:
				continue
			}

			raws, err := samplesource.ParseReading(line)
			if err != nil {
				monitoring.Logf("skipping malformed reading: %v", err)
				raws = nil
			}

			tick++
			rec, cmd := eng.Step(tick, profileSamples(profile, tick, raws))
			logTelemetry(rec)
			logCommandTransitions(prev, cmd)
			prev = cmd
		}
	}
}

// profileSamples maps parsed raw counts onto engine samples using the
// profile's column mapping. A parameter missing from the reading becomes an
// invalid sample so the engine takes its stale path.
func profileSamples(profile *config.Profile, tick uint64, raws map[string]int) map[string]engine.Sample {
	samples := make(map[string]engine.Sample, len(profile.Parameters))
	for i := range profile.Parameters {
		pp := &profile.Parameters[i]
		raw, ok := raws[pp.GetColumn()]
		if !ok {
			samples[pp.Name] = engine.InvalidSample(tick)
			continue
		}
		if col := pp.GetSecondaryColumn(); col != "" {
			sec, ok := raws[col]
			if !ok {
				samples[pp.Name] = engine.InvalidSample(tick)
				continue
			}
			samples[pp.Name] = engine.NewCompensatedSample(tick, raw, float64(sec))
			continue
		}
		samples[pp.Name] = engine.NewSample(tick, raw)
	}
	return samples
}

func logTelemetry(rec engine.TelemetryRecord) {
	monitoring.Logf("tick=%d level=%d quality=%.1f rating=%s stale=%v values=%v",
		rec.Tick, rec.Level, rec.QualityIndex, rec.QualityRating, rec.Stale, rec.Values)
}

// logCommandTransitions reports actuator edges only, not steady state.
func logCommandTransitions(prev, cmd actuator.Command) {
	if prev.LEDPattern != cmd.LEDPattern {
		monitoring.Logf("led pattern -> %08b", cmd.LEDPattern)
	}
	if prev.BuzzerOn != cmd.BuzzerOn {
		monitoring.Logf("buzzer -> %v", cmd.BuzzerOn)
	}
	if prev.MotorOn != cmd.MotorOn {
		monitoring.Logf("motor -> %v", cmd.MotorOn)
	}
}
