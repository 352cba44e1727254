package window

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Mode selects the baseline tracking behaviour.
type Mode int

const (
	// Characterization accumulates exactly capacity samples, freezes their
	// arithmetic mean, and ignores every later push. Used to learn a
	// site-specific reference level before anomaly detection is meaningful.
	Characterization Mode = iota

	// Moving keeps a continuously updated mean over the last capacity
	// samples (partial-window mean before the buffer fills). Used as noise
	// smoothing ahead of decision logic.
	Moving
)

// Tracker maintains a baseline over a fixed-capacity window of calibrated
// samples. It is owned by a single tick loop and is not safe for concurrent
// use.
type Tracker struct {
	mode        Mode
	ring        *Ring
	defaultMean float64
	frozen      float64
	complete    bool
}

// NewCharacterization creates a tracker that freezes its baseline after
// exactly capacity pushes.
func NewCharacterization(capacity int, defaultMean float64) (*Tracker, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("window: characterization capacity must be at least 1, got %d", capacity)
	}
	return &Tracker{mode: Characterization, ring: NewRing(capacity), defaultMean: defaultMean}, nil
}

// NewMovingAverage creates a tracker exposing the mean of the last capacity
// samples.
func NewMovingAverage(capacity int, defaultMean float64) (*Tracker, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("window: moving average capacity must be at least 1, got %d", capacity)
	}
	return &Tracker{mode: Moving, ring: NewRing(capacity), defaultMean: defaultMean}, nil
}

// Push adds a sample to the window. Pushes after a characterization window
// has completed are no-ops. Push never fails.
func (t *Tracker) Push(v float64) {
	if t.complete {
		return
	}
	t.ring.Push(v)
	if t.mode == Characterization && t.ring.Full() {
		t.frozen = stat.Mean(t.ring.Values(), nil)
		t.complete = true
	}
}

// Mean returns the current baseline: the frozen characterization mean once
// complete, the partial-window mean while samples are present, or the
// configured default before the first push.
func (t *Tracker) Mean() float64 {
	if t.complete {
		return t.frozen
	}
	if t.ring.Size() == 0 {
		return t.defaultMean
	}
	return stat.Mean(t.ring.Values(), nil)
}

// Complete reports whether a characterization window has frozen its mean.
// Always false for moving-average trackers.
func (t *Tracker) Complete() bool { return t.complete }

// Mode returns the tracker's operating mode.
func (t *Tracker) Mode() Mode { return t.mode }
