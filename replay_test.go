package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldsense-data/habitat.report/internal/config"
	"github.com/fieldsense-data/habitat.report/internal/testutil"
)

const replayProfileJSON = `{
  "name": "water",
  "parameters": [
    {
      "name": "ph",
      "column": "ph_raw",
      "method": "ratio",
      "adc_max": 1400,
      "scale_max": 14,
      "physical_max": 14,
      "optimal_min": 6.5,
      "optimal_max": 8.5,
      "critical_min": 4,
      "critical_max": 10,
      "ideal": 7.5,
      "slope": 18
    },
    {
      "name": "turbidity",
      "column": "turb_raw",
      "method": "ratio",
      "scale_max": 100,
      "optimal_min": 1,
      "optimal_max": 25,
      "score_mode": "higher_worse",
      "slope": 1.2
    }
  ],
  "tiers": [
    {"name": "caution", "min_active": 1, "debounce": 2},
    {"name": "alert", "min_active": 2, "debounce": 2}
  ]
}`

func writeReplayFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testutil.AssertNoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func loadReplayProfile(t *testing.T) *config.Profile {
	t.Helper()
	p, err := config.LoadProfile(writeReplayFixture(t, "water.json", replayProfileJSON))
	testutil.AssertNoError(t, err)
	return p
}

func TestReplayFileWritesRunArtifacts(t *testing.T) {
	profile := loadReplayProfile(t)
	cfg, err := profile.Engine()
	testutil.AssertNoError(t, err)

	// tick 3 has a blank pH cell to exercise the stale path
	csvPath := writeReplayFixture(t, "data.csv", strings.Join([]string{
		"time,ph_raw,turb_raw",
		"t1,750,410",
		"t2,920,430",
		"t3,,450",
		"t4,700,400",
	}, "\n"))

	outDir := t.TempDir()
	run, err := replayFile(profile, cfg, csvPath, outDir)
	testutil.AssertNoError(t, err)

	if len(run.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(run.Records))
	}
	if len(run.Commands) != 4 {
		t.Fatalf("got %d commands, want 4", len(run.Commands))
	}
	if run.ID == "" {
		t.Error("run ID should be set")
	}

	stale := run.Records[2]
	if !stale.Stale || len(stale.StaleParams) != 1 || stale.StaleParams[0] != "ph" {
		t.Errorf("tick 3 = %+v, want ph marked stale", stale)
	}
	if stale.Values["ph"] != run.Records[1].Values["ph"] {
		t.Errorf("stale tick should carry previous pH, got %v want %v",
			stale.Values["ph"], run.Records[1].Values["ph"])
	}

	testutil.AssertFileExists(t, filepath.Join(run.Dir, "telemetry.jsonl"))
	testutil.AssertFileExists(t, filepath.Join(run.Dir, "report.html"))
	testutil.AssertFileExists(t, filepath.Join(run.Dir, "quality_hist.png"))
}

func TestReplayParsesFloatFormattedCells(t *testing.T) {
	profile := loadReplayProfile(t)
	cfg, err := profile.Engine()
	testutil.AssertNoError(t, err)

	// Loggers commonly record raw counts with a decimal point. Those cells
	// must parse as valid samples, not fall into the stale path.
	csvPath := writeReplayFixture(t, "floats.csv", strings.Join([]string{
		"time,ph_raw,turb_raw",
		"t1,750.0,410.4",
		"t2,919.6,430.0",
	}, "\n"))
	run, err := replayFile(profile, cfg, csvPath, t.TempDir())
	testutil.AssertNoError(t, err)

	for i, rec := range run.Records {
		if rec.Stale || len(rec.StaleParams) != 0 {
			t.Errorf("tick %d = %+v, want no stale parameters", i+1, rec)
		}
	}

	// Cells round to the nearest count, so the run must match its
	// integer-formatted equivalent.
	intPath := writeReplayFixture(t, "ints.csv", strings.Join([]string{
		"time,ph_raw,turb_raw",
		"t1,750,410",
		"t2,920,430",
	}, "\n"))
	want, err := replayFile(profile, cfg, intPath, t.TempDir())
	testutil.AssertNoError(t, err)

	for i := range run.Records {
		for name, v := range want.Records[i].Values {
			if got := run.Records[i].Values[name]; got != v {
				t.Errorf("tick %d %s = %v, want %v", i+1, name, got, v)
			}
		}
	}
}

func TestReplayTelemetryIsValidJSONL(t *testing.T) {
	profile := loadReplayProfile(t)
	cfg, err := profile.Engine()
	testutil.AssertNoError(t, err)

	csvPath := writeReplayFixture(t, "data.csv", strings.Join([]string{
		"time,ph_raw,turb_raw",
		"t1,750,410",
		"t2,760,405",
	}, "\n"))

	run, err := replayFile(profile, cfg, csvPath, t.TempDir())
	testutil.AssertNoError(t, err)

	data, err := os.ReadFile(filepath.Join(run.Dir, "telemetry.jsonl"))
	testutil.AssertNoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d telemetry lines, want 2", len(lines))
	}
	for i, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestReplayFileErrors(t *testing.T) {
	profile := loadReplayProfile(t)
	cfg, err := profile.Engine()
	testutil.AssertNoError(t, err)

	t.Run("missing dataset", func(t *testing.T) {
		_, err := replayFile(profile, cfg, filepath.Join(t.TempDir(), "absent.csv"), t.TempDir())
		testutil.AssertError(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		csvPath := writeReplayFixture(t, "data.csv", "time,ph_raw\nt1,750\n")
		_, err := replayFile(profile, cfg, csvPath, t.TempDir())
		testutil.AssertError(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		csvPath := writeReplayFixture(t, "data.csv", "time,ph_raw,turb_raw\n")
		_, err := replayFile(profile, cfg, csvPath, t.TempDir())
		testutil.AssertError(t, err)
	})
}
