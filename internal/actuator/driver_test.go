package actuator

import (
	"testing"

	"github.com/fieldsense-data/habitat.report/internal/alert"
	"github.com/fieldsense-data/habitat.report/internal/indicator"
)

func snapAt(level int, tiers int) alert.Snapshot {
	s := alert.Snapshot{Tiers: make([]alert.TierState, tiers), Level: level}
	for i := 0; i < level; i++ {
		s.Tiers[i].Active = true
	}
	return s
}

func motorConfig() Config {
	return Config{
		LEDCount:    3,
		BuzzerLevel: 3,
		Motor: MotorConfig{
			Enabled:           true,
			TriggerTier:       2,
			RunTicks:          5,
			RecoveryIndicator: "moisture.recovered",
		},
	}
}

func TestLEDPatternMonotone(t *testing.T) {
	d, err := NewDriver(Config{LEDCount: 3, BuzzerLevel: 3}, 3)
	if err != nil {
		t.Fatal(err)
	}

	var prev uint8
	for level := 0; level <= 3; level++ {
		cmd := d.Update(uint64(level), snapAt(level, 3), indicator.Vector{})
		// Higher levels light a superset of lower-level LEDs.
		if cmd.LEDPattern&prev != prev {
			t.Errorf("level %d pattern %03b is not a superset of %03b", level, cmd.LEDPattern, prev)
		}
		prev = cmd.LEDPattern
	}

	if got := d.Update(10, snapAt(3, 3), indicator.Vector{}); got.LEDPattern != 0b111 {
		t.Errorf("level 3 pattern = %03b, want 111", got.LEDPattern)
	}
	if got := d.Update(11, snapAt(0, 3), indicator.Vector{}); got.LEDPattern != 0 {
		t.Errorf("level 0 pattern = %03b, want 000", got.LEDPattern)
	}
}

func TestBuzzerThreshold(t *testing.T) {
	d, err := NewDriver(Config{LEDCount: 3, BuzzerLevel: 2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if cmd := d.Update(1, snapAt(1, 3), indicator.Vector{}); cmd.BuzzerOn {
		t.Error("buzzer on below threshold level")
	}
	if cmd := d.Update(2, snapAt(2, 3), indicator.Vector{}); !cmd.BuzzerOn {
		t.Error("buzzer off at threshold level")
	}
	if cmd := d.Update(3, snapAt(3, 3), indicator.Vector{}); !cmd.BuzzerOn {
		t.Error("buzzer off above threshold level")
	}
}

func TestMotorStartsOnEdgeOnly(t *testing.T) {
	d, err := NewDriver(motorConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}

	// Tier 2 inactive: motor stays off.
	cmd := d.Update(1, snapAt(1, 3), indicator.Vector{})
	if cmd.MotorOn {
		t.Fatal("motor on without trigger")
	}

	// Activation edge starts the motor.
	cmd = d.Update(2, snapAt(2, 3), indicator.Vector{})
	if !cmd.MotorOn {
		t.Fatal("motor did not start on activation edge")
	}
}

// Started at tick T, the motor must be off at tick T+RunTicks regardless of
// ongoing tier state.
func TestMotorTimerExpiry(t *testing.T) {
	d, err := NewDriver(motorConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}

	start := uint64(10)
	if cmd := d.Update(start, snapAt(2, 3), indicator.Vector{}); !cmd.MotorOn {
		t.Fatal("motor did not start")
	}
	for tick := start + 1; tick < start+5; tick++ {
		if cmd := d.Update(tick, snapAt(2, 3), indicator.Vector{}); !cmd.MotorOn {
			t.Fatalf("motor stopped early at tick %d", tick)
		}
	}
	if cmd := d.Update(start+5, snapAt(2, 3), indicator.Vector{}); cmd.MotorOn {
		t.Error("motor still on at start+RunTicks")
	}
}

func TestMotorEarlyExit(t *testing.T) {
	d, err := NewDriver(motorConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}

	d.Update(1, snapAt(2, 3), indicator.Vector{}) // start

	recovered := indicator.Vector{Recovered: map[string]bool{"moisture.recovered": true}}

	// Recovery alone is not enough while the trigger tier stays active.
	if cmd := d.Update(2, snapAt(2, 3), recovered); !cmd.MotorOn {
		t.Fatal("motor stopped while trigger tier still active")
	}

	// Tier inactive but not recovered: keep running.
	if cmd := d.Update(3, snapAt(0, 3), indicator.Vector{}); !cmd.MotorOn {
		t.Fatal("motor stopped without recovery indicator")
	}

	// Tier inactive and recovered: early exit before the timer.
	if cmd := d.Update(4, snapAt(0, 3), recovered); cmd.MotorOn {
		t.Error("motor did not stop on early-exit condition")
	}
}

func TestMotorDoesNotRestartWhileRunning(t *testing.T) {
	d, err := NewDriver(motorConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}

	d.Update(1, snapAt(2, 3), indicator.Vector{}) // start at tick 1
	d.Update(2, snapAt(0, 3), indicator.Vector{}) // tier drops, no recovery: still running
	d.Update(3, snapAt(2, 3), indicator.Vector{}) // new edge while running: ignored

	// Had the edge restarted the timer, the motor would run past tick 6.
	if cmd := d.Update(6, snapAt(2, 3), indicator.Vector{}); cmd.MotorOn {
		t.Error("motor restart while running moved the stop deadline")
	}
}

func TestDriverValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero leds", Config{LEDCount: 0}},
		{"too many leds", Config{LEDCount: 9}},
		{"buzzer beyond tiers", Config{LEDCount: 3, BuzzerLevel: 4}},
		{"motor tier out of range", Config{LEDCount: 3, Motor: MotorConfig{Enabled: true, TriggerTier: 4, RunTicks: 5}}},
		{"motor zero duration", Config{LEDCount: 3, Motor: MotorConfig{Enabled: true, TriggerTier: 1, RunTicks: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDriver(tt.cfg, 3); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}
