package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldsense-data/habitat.report/internal/actuator"
	"github.com/fieldsense-data/habitat.report/internal/config"
	"github.com/fieldsense-data/habitat.report/internal/engine"
	"github.com/fieldsense-data/habitat.report/internal/monitoring"
)

// Run is one completed replay: the telemetry of every tick plus the actuator
// command issued at each, written out under a unique run directory.
type Run struct {
	ID       string
	Dir      string
	Records  []engine.TelemetryRecord
	Commands []actuator.Command
}

// replayFile processes a recorded CSV dataset through a fresh engine, one
// tick per row, and writes telemetry and a report into outDir.
func replayFile(profile *config.Profile, cfg engine.Config, csvPath, outDir string) (*Run, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	run := &Run{ID: uuid.NewString()}
	if err := replayRows(profile, eng, f, run); err != nil {
		return nil, err
	}
	if len(run.Records) == 0 {
		return nil, fmt.Errorf("dataset %s has no data rows", csvPath)
	}
	warnAllStale(profile, run)

	run.Dir = filepath.Join(outDir, run.ID)
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := writeTelemetry(run); err != nil {
		return nil, err
	}
	if err := writeReport(profile, run); err != nil {
		return nil, err
	}
	return run, nil
}

// replayRows streams CSV rows into the engine. Cells map to parameters via
// the profile's column names; a blank, missing, or non-numeric cell becomes
// an invalid sample so the engine carries the previous value.
func replayRows(profile *config.Profile, eng *engine.Engine, r io.Reader, run *Run) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read dataset header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}
	for i := range profile.Parameters {
		pp := &profile.Parameters[i]
		if _, ok := colIndex[pp.GetColumn()]; !ok {
			return fmt.Errorf("dataset is missing column %q for parameter %s", pp.GetColumn(), pp.Name)
		}
	}

	var tick uint64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dataset row %d: %w", tick+1, err)
		}

		tick++
		samples := make(map[string]engine.Sample, len(profile.Parameters))
		for i := range profile.Parameters {
			pp := &profile.Parameters[i]
			raw, ok := cellInt(row, colIndex, pp.GetColumn())
			if !ok {
				samples[pp.Name] = engine.InvalidSample(tick)
				continue
			}
			if col := pp.GetSecondaryColumn(); col != "" {
				sec, ok := cellFloat(row, colIndex, col)
				if !ok {
					samples[pp.Name] = engine.InvalidSample(tick)
					continue
				}
				samples[pp.Name] = engine.NewCompensatedSample(tick, raw, sec)
				continue
			}
			samples[pp.Name] = engine.NewSample(tick, raw)
		}

		rec, cmd := eng.Step(tick, samples)
		run.Records = append(run.Records, rec)
		run.Commands = append(run.Commands, cmd)
	}
}

// warnAllStale reports parameters whose column never yielded a single valid
// sample, which usually means the dataset records the column in a format the
// replay could not parse.
func warnAllStale(profile *config.Profile, run *Run) {
	staleTicks := make(map[string]int, len(profile.Parameters))
	for _, rec := range run.Records {
		for _, name := range rec.StaleParams {
			staleTicks[name]++
		}
	}
	for i := range profile.Parameters {
		pp := &profile.Parameters[i]
		if staleTicks[pp.Name] == len(run.Records) {
			monitoring.Logf("replay: parameter %s (column %q) was stale on every tick; check the dataset format",
				pp.Name, pp.GetColumn())
		}
	}
}

// cellInt reads a raw ADC count. Loggers commonly record counts with a
// decimal point ("512.0"), so cells parse as floats and round to the nearest
// count.
func cellInt(row []string, colIndex map[string]int, col string) (int, bool) {
	v, ok := cellFloat(row, colIndex, col)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

func cellFloat(row []string, colIndex map[string]int, col string) (float64, bool) {
	idx, ok := colIndex[col]
	if !ok || idx >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// writeTelemetry writes one JSON record per line so downstream tools can
// stream the file.
func writeTelemetry(run *Run) error {
	f, err := os.Create(filepath.Join(run.Dir, "telemetry.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to create telemetry file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range run.Records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode telemetry: %w", err)
		}
	}
	return nil
}
