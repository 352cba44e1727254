// Package engine orchestrates the per-tick decision pipeline: signal
// conditioning, baseline tracking, indicator evaluation, alert transitions,
// quality scoring, and actuator mapping, strictly in that order.
//
// The engine is single-threaded and side-effect-free: time arrives as a
// monotonic tick counter from the caller, state transitions are reported
// through an observer hook, and all I/O lives outside the core boundary.
package engine

import (
	"fmt"

	"github.com/fieldsense-data/habitat.report/internal/actuator"
	"github.com/fieldsense-data/habitat.report/internal/alert"
	"github.com/fieldsense-data/habitat.report/internal/indicator"
	"github.com/fieldsense-data/habitat.report/internal/quality"
	"github.com/fieldsense-data/habitat.report/internal/window"
)

// Engine runs the decision pipeline for one subsystem. Instances are created
// once at system start and mutated exactly once per tick by the owning loop;
// they must not be shared across concurrent callers.
type Engine struct {
	cfg     Config
	windows map[string]*window.Tracker
	eval    *indicator.Evaluator
	alerts  *alert.Machine
	scorer  *quality.Scorer
	driver  *actuator.Driver

	// lastValues carries each parameter's most recent decision value so a
	// rejected tick can reuse it.
	lastValues map[string]float64
}

// Option customizes engine construction.
type Option func(*options)

type options struct {
	observer alert.Observer
}

// WithObserver attaches an observer receiving alert transition events.
func WithObserver(obs alert.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New validates the configuration and constructs the engine. Invalid
// configuration is fatal here; the pipeline itself cannot fail afterwards.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	windows := make(map[string]*window.Tracker, len(cfg.Params))
	thresholds := make([]indicator.ParamConfig, 0, len(cfg.Params))
	scores := make([]quality.ParamScore, 0, len(cfg.Params))
	for _, p := range cfg.Params {
		var tr *window.Tracker
		var err error
		switch p.Baseline.Mode {
		case window.Characterization:
			tr, err = window.NewCharacterization(p.Baseline.Capacity, p.Baseline.Default)
		default:
			tr, err = window.NewMovingAverage(p.Baseline.Capacity, p.Baseline.Default)
		}
		if err != nil {
			return nil, fmt.Errorf("engine: parameter %q: %w", p.Name, err)
		}
		windows[p.Name] = tr
		thresholds = append(thresholds, p.Thresholds)
		scores = append(scores, p.Score)
	}

	eval, err := indicator.New(thresholds)
	if err != nil {
		return nil, err
	}
	scorer, err := quality.NewScorer(scores, cfg.Scale)
	if err != nil {
		return nil, err
	}
	var machineOpts []alert.Option
	if o.observer != nil {
		machineOpts = append(machineOpts, alert.WithObserver(o.observer))
	}
	alerts, err := alert.NewMachine(cfg.Tiers, machineOpts...)
	if err != nil {
		return nil, err
	}
	driver, err := actuator.NewDriver(cfg.Actuators, len(cfg.Tiers))
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		windows:    windows,
		eval:       eval,
		alerts:     alerts,
		scorer:     scorer,
		driver:     driver,
		lastValues: make(map[string]float64, len(cfg.Params)),
	}, nil
}

// Step advances the pipeline by one tick. samples maps parameter names to
// their readings for this tick; a missing or invalid sample rejects the tick
// for that parameter: its window is not updated, its previous value is
// reused, and the record is marked stale. Step never fails.
func (e *Engine) Step(tick uint64, samples map[string]Sample) (TelemetryRecord, actuator.Command) {
	values := make(map[string]float64, len(e.cfg.Params))
	baselines := make(map[string]float64, len(e.cfg.Params))
	var staleParams []string

	for _, p := range e.cfg.Params {
		tr := e.windows[p.Name]

		s, ok := samples[p.Name]
		if !ok || !s.Valid {
			// Rejected tick for this parameter: skip the window update and
			// carry the previous decision value. Recomputing indicators
			// from the carried value and unchanged baseline reproduces the
			// previous indicator states.
			staleParams = append(staleParams, p.Name)
			if last, seen := e.lastValues[p.Name]; seen {
				values[p.Name] = last
			}
			if base, ready := e.baseline(p, tr); ready {
				baselines[p.Name] = base
			}
			continue
		}

		calibrated := p.Calibration.Calibrate(s.Raw, s.Secondary, s.HasSecondary)
		tr.Push(calibrated)

		v := calibrated
		if p.Smooth {
			v = tr.Mean()
		}
		values[p.Name] = v
		e.lastValues[p.Name] = v

		if base, ready := e.baseline(p, tr); ready {
			baselines[p.Name] = base
		}
	}

	vec := e.eval.Evaluate(values, baselines)
	snap := e.alerts.Step(tick, vec)
	score := e.scorer.Score(values)
	cmd := e.driver.Update(tick, snap, vec)

	rec := TelemetryRecord{
		Tick:          tick,
		Values:        values,
		Indicators:    vec.Active,
		Level:         snap.Level,
		QualityIndex:  score.Index,
		QualityRating: score.Rating,
		Stale:         len(staleParams) > 0,
		StaleParams:   staleParams,
	}
	return rec, cmd
}

// baseline returns the parameter's reference baseline and whether it is
// ready for deviation checks. Characterization baselines are ready only once
// frozen; moving averages are ready as soon as a sample exists.
func (e *Engine) baseline(p ParamConfig, tr *window.Tracker) (float64, bool) {
	if p.Baseline.Mode == window.Characterization {
		if !tr.Complete() {
			return 0, false
		}
		return tr.Mean(), true
	}
	return tr.Mean(), true
}

// Characterized reports whether every characterization-mode parameter has
// frozen its baseline.
func (e *Engine) Characterized() bool {
	for _, p := range e.cfg.Params {
		if p.Baseline.Mode == window.Characterization && !e.windows[p.Name].Complete() {
			return false
		}
	}
	return true
}

// AlertSnapshot returns the current debounced alert state without advancing
// a tick.
func (e *Engine) AlertSnapshot() alert.Snapshot {
	return e.alerts.Snapshot()
}
