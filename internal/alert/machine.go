// Package alert implements the tiered, debounced alert state machine.
//
// Each severity tier owns a consecutive-qualifying-tick counter and an active
// flag. Activation is debounced and edge-triggered; deactivation is immediate
// unless the tier is held by the escalation latch. The machine is
// deterministic and never fails: it only transitions state from its inputs.
package alert

import (
	"fmt"

	"github.com/fieldsense-data/habitat.report/internal/indicator"
)

// TierConfig describes one severity tier. Tiers are ordered ascending by
// severity; index 0 is the lowest tier and its entry predicate doubles as the
// aggregate condition that clears the escalation latch.
type TierConfig struct {
	Name string

	// MinActive fires the tier when the indicator vector's ActiveCount
	// reaches this threshold. Zero disables the count predicate (the tier
	// must then use one of the flags below).
	MinActive int

	// OnAnyCritical fires the tier when any critical-band indicator is true.
	OnAnyCritical bool

	// OnAllActive fires the tier when every configured indicator is true.
	OnAllActive bool

	// Debounce is the number of consecutive qualifying ticks required
	// before the tier activates. Must be at least 1 (1 = immediate).
	Debounce int
}

// TierState is the per-tier runtime state.
type TierState struct {
	// ConsecutiveCount counts qualifying ticks toward activation. It tracks
	// the tier's own predicate and is capped at Debounce+1; a tier held
	// active purely by the escalation latch can show a zero count.
	ConsecutiveCount int

	// Active reports whether the tier is currently active.
	Active bool
}

// Snapshot is the machine state after one tick.
type Snapshot struct {
	// Tiers holds one state per configured tier, ascending severity.
	Tiers []TierState

	// Level is the 1-based index of the highest active tier, 0 if none.
	Level int
}

// Observer receives edge-triggered state transition events. Implementations
// must not call back into the machine.
type Observer interface {
	// TierActivated fires once on each tier's inactive-to-active edge.
	TierActivated(tick uint64, tier int, name string)

	// AlertsCleared fires once when the aggregate condition clears and
	// every tier resets.
	AlertsCleared(tick uint64)
}

// NopObserver is an Observer that ignores all events.
type NopObserver struct{}

func (NopObserver) TierActivated(uint64, int, string) {}
func (NopObserver) AlertsCleared(uint64)              {}

// Machine evaluates tier transitions once per tick. It is owned by a single
// tick loop and is not safe for concurrent use.
type Machine struct {
	tiers  []TierConfig
	states []TierState

	// latched marks tiers forced active by a higher tier's activation. A
	// latched tier stays active regardless of its own predicate and of the
	// higher tier's later state; only the global reset releases it.
	latched []bool

	obs Observer
}

// Option customizes a Machine.
type Option func(*Machine)

// WithObserver attaches a transition observer.
func WithObserver(obs Observer) Option {
	return func(m *Machine) {
		if obs != nil {
			m.obs = obs
		}
	}
}

// NewMachine constructs the state machine. Ill-defined tier configuration is
// a construction-time error; Step itself cannot fail.
func NewMachine(tiers []TierConfig, opts ...Option) (*Machine, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("alert: at least one tier required")
	}
	for i, t := range tiers {
		if t.Debounce < 1 {
			return nil, fmt.Errorf("alert: tier %d (%s) debounce must be at least 1, got %d", i+1, t.Name, t.Debounce)
		}
		if t.MinActive < 0 {
			return nil, fmt.Errorf("alert: tier %d (%s) min active must not be negative", i+1, t.Name)
		}
		if t.MinActive == 0 && !t.OnAnyCritical && !t.OnAllActive {
			return nil, fmt.Errorf("alert: tier %d (%s) has no entry condition", i+1, t.Name)
		}
	}
	if tiers[0].MinActive < 1 {
		return nil, fmt.Errorf("alert: lowest tier needs a min-active threshold; it defines the aggregate clear condition")
	}
	m := &Machine{
		tiers:   append([]TierConfig(nil), tiers...),
		states:  make([]TierState, len(tiers)),
		latched: make([]bool, len(tiers)),
		obs:     NopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Machine) qualifies(t TierConfig, v indicator.Vector) bool {
	if t.MinActive > 0 && v.ActiveCount >= t.MinActive {
		return true
	}
	if t.OnAnyCritical && v.CriticalCount > 0 {
		return true
	}
	if t.OnAllActive && v.Total > 0 && v.ActiveCount == v.Total {
		return true
	}
	return false
}

// Step evaluates one tick. Tiers are processed in ascending severity; a
// higher tier activating forces all lower tiers active (escalation latch).
// Latched tiers stay active even after the higher tier itself deactivates.
// When any tier is active and the lowest tier's aggregate condition is false,
// every tier resets simultaneously.
func (m *Machine) Step(tick uint64, v indicator.Vector) Snapshot {
	qual := make([]bool, len(m.tiers))
	for i, t := range m.tiers {
		qual[i] = m.qualifies(t, v)
	}

	// Aggregate clear: atomic global reset of all tiers, counters, and
	// latches.
	if m.level() > 0 && !qual[0] {
		for i := range m.states {
			m.states[i] = TierState{}
			m.latched[i] = false
		}
		m.obs.AlertsCleared(tick)
		return m.snapshot()
	}

	prev := make([]bool, len(m.states))
	for i := range m.states {
		prev[i] = m.states[i].Active
	}

	for i := range m.tiers {
		s := &m.states[i]
		if qual[i] {
			if s.ConsecutiveCount <= m.tiers[i].Debounce {
				s.ConsecutiveCount++
			}
			if s.ConsecutiveCount >= m.tiers[i].Debounce {
				s.Active = true
			}
		} else if m.latched[i] {
			// Held by the escalation latch until the aggregate clear; the
			// counter still tracks the tier's own predicate.
			s.ConsecutiveCount = 0
		} else {
			// Deactivation is immediate; debounce applies to activation
			// only.
			s.ConsecutiveCount = 0
			s.Active = false
		}
	}

	// Escalation latch: the highest active tier forces all lower tiers
	// active regardless of their own predicates.
	highest := 0
	for i := len(m.states) - 1; i >= 0; i-- {
		if m.states[i].Active {
			highest = i + 1
			break
		}
	}
	for i := 0; i < highest-1; i++ {
		m.states[i].Active = true
		m.latched[i] = true
	}

	for i := range m.states {
		if m.states[i].Active && !prev[i] {
			m.obs.TierActivated(tick, i+1, m.tiers[i].Name)
		}
	}
	return m.snapshot()
}

func (m *Machine) level() int {
	for i := len(m.states) - 1; i >= 0; i-- {
		if m.states[i].Active {
			return i + 1
		}
	}
	return 0
}

func (m *Machine) snapshot() Snapshot {
	out := Snapshot{
		Tiers: make([]TierState, len(m.states)),
		Level: m.level(),
	}
	copy(out.Tiers, m.states)
	return out
}

// Snapshot returns the current state without advancing a tick.
func (m *Machine) Snapshot() Snapshot { return m.snapshot() }
