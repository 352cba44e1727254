package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	if got.Before(before.Add(-time.Second)) {
		t.Errorf("RealClock.Now() = %v, too far before %v", got, before)
	}
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(45 * time.Second)
	if got := c.Since(start); got != 45*time.Second {
		t.Errorf("Since(start) = %v, want 45s", got)
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	c.Sleep(30 * time.Second)
	c.Sleep(60 * time.Second)
	sleeps := c.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 30*time.Second || sleeps[1] != 60*time.Second {
		t.Errorf("Sleeps() = %v, want [30s 60s]", sleeps)
	}
}

func TestMockTickerFiresOnAdvance(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(30 * time.Second)
	defer ticker.Stop()

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before Advance")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after Advance past interval")
	}
}

func TestMockTickerStop(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)
	ticker.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
