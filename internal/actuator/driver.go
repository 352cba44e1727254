// Package actuator maps debounced alert state to actuator commands: a
// monotone LED pattern, a buzzer threshold, and a timer-driven motor.
//
// The motor runs its own small state machine: it starts on the configured
// tier's activation edge, never restarts while running, and stops on either
// an elapsed tick-count timer or an early-exit condition (trigger tier
// inactive while the recovery indicator holds), whichever occurs first.
package actuator

import (
	"fmt"

	"github.com/fieldsense-data/habitat.report/internal/alert"
	"github.com/fieldsense-data/habitat.report/internal/indicator"
)

// Command is the actuator output for one tick.
type Command struct {
	// LEDPattern is a bitset of lit level LEDs. Higher alert levels light a
	// superset of lower levels: level N sets the low N bits.
	LEDPattern uint8

	// BuzzerOn is true while the alert level has reached the buzzer
	// threshold.
	BuzzerOn bool

	// MotorOn is true while the motor sub-machine is running.
	MotorOn bool
}

// MotorConfig configures the motor sub-machine.
type MotorConfig struct {
	Enabled bool

	// TriggerTier is the 1-based tier whose activation edge starts the motor.
	TriggerTier int

	// RunTicks is the fixed run duration in ticks. The motor started at
	// tick T is off again at tick T+RunTicks.
	RunTicks uint64

	// RecoveryIndicator names the recovery flag that permits an early stop
	// once the trigger tier has deactivated, e.g. "moisture.recovered".
	RecoveryIndicator string
}

// Config configures the driver.
type Config struct {
	// LEDCount is the number of level LEDs (at most 8).
	LEDCount int

	// BuzzerLevel sounds the buzzer at this alert level and above. Zero
	// disables the buzzer.
	BuzzerLevel int

	Motor MotorConfig
}

// Validate reports configuration errors. tierCount is the number of alert
// tiers the driver will observe.
func (c Config) Validate(tierCount int) error {
	if c.LEDCount < 1 || c.LEDCount > 8 {
		return fmt.Errorf("actuator: led count must be in [1, 8], got %d", c.LEDCount)
	}
	if c.BuzzerLevel < 0 || c.BuzzerLevel > tierCount {
		return fmt.Errorf("actuator: buzzer level %d outside tier range [0, %d]", c.BuzzerLevel, tierCount)
	}
	if c.Motor.Enabled {
		if c.Motor.TriggerTier < 1 || c.Motor.TriggerTier > tierCount {
			return fmt.Errorf("actuator: motor trigger tier %d outside [1, %d]", c.Motor.TriggerTier, tierCount)
		}
		if c.Motor.RunTicks < 1 {
			return fmt.Errorf("actuator: motor run duration must be at least 1 tick")
		}
	}
	return nil
}

// Driver converts alert snapshots into actuator commands. It is owned by a
// single tick loop and is not safe for concurrent use.
type Driver struct {
	cfg Config

	motorOn     bool
	motorStart  uint64
	prevTrigger bool
}

// NewDriver constructs a driver for an alert machine with tierCount tiers.
func NewDriver(cfg Config, tierCount int) (*Driver, error) {
	if err := cfg.Validate(tierCount); err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg}, nil
}

// Update computes the actuator command for one tick from the debounced alert
// snapshot and the indicator vector. Commands derive strictly from debounced
// state, never from raw thresholds.
func (d *Driver) Update(tick uint64, snap alert.Snapshot, v indicator.Vector) Command {
	cmd := Command{
		LEDPattern: d.ledPattern(snap.Level),
		BuzzerOn:   d.cfg.BuzzerLevel > 0 && snap.Level >= d.cfg.BuzzerLevel,
	}

	if d.cfg.Motor.Enabled {
		d.stepMotor(tick, snap, v)
		cmd.MotorOn = d.motorOn
	}
	return cmd
}

func (d *Driver) ledPattern(level int) uint8 {
	if level < 0 {
		level = 0
	}
	if level > d.cfg.LEDCount {
		level = d.cfg.LEDCount
	}
	return uint8(1<<level) - 1
}

func (d *Driver) stepMotor(tick uint64, snap alert.Snapshot, v indicator.Vector) {
	trigger := snap.Tiers[d.cfg.Motor.TriggerTier-1].Active
	edge := trigger && !d.prevTrigger
	d.prevTrigger = trigger

	if d.motorOn {
		// Stop on whichever fires first: the fixed run timer or the
		// early-exit condition. A new activation edge cannot restart a
		// running motor.
		if tick-d.motorStart >= d.cfg.Motor.RunTicks {
			d.motorOn = false
			return
		}
		if !trigger && v.Recovered[d.cfg.Motor.RecoveryIndicator] {
			d.motorOn = false
		}
		return
	}

	if edge {
		d.motorOn = true
		d.motorStart = tick
	}
}
