// Command habitat runs the environmental monitoring engine for one subsystem
// profile. It reads sensor node lines over a serial link (or a mock fixture
// source in dev mode), feeds the decision engine one tick per reading, and
// drives the indicator actuators. With -replay it processes a recorded CSV
// dataset instead and writes an HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fieldsense-data/habitat.report/internal/config"
	"github.com/fieldsense-data/habitat.report/internal/engine"
	"github.com/fieldsense-data/habitat.report/internal/monitoring"
	"github.com/fieldsense-data/habitat.report/internal/samplesource"
)

var (
	profilePath = flag.String("profile", "", "Subsystem profile JSON (required)")
	serialPath  = flag.String("serial", "/dev/ttyUSB0", "Serial device of the sensor node")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (0 uses the default)")
	devMode     = flag.Bool("dev", false, "Run against a mock source instead of hardware")
	fixtures    = flag.String("fixtures", "fixtures.txt", "Reading lines for the mock source (dev mode)")
	replayPath  = flag.String("replay", "", "Replay a recorded CSV dataset and exit")
	outDir      = flag.String("out", "runs", "Output directory for replay reports")
)

func main() {
	flag.Parse()

	if *profilePath == "" {
		log.Fatal("usage: habitat -profile config/soil.json [-replay data.csv | -serial /dev/ttyUSB0 | -dev]")
	}

	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}
	cfg, err := profile.Engine()
	if err != nil {
		log.Fatalf("invalid profile: %v", err)
	}

	if *replayPath != "" {
		run, err := replayFile(profile, cfg, *replayPath, *outDir)
		if err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		log.Printf("replay %s complete: %d ticks, report at %s", run.ID, len(run.Records), run.Dir)
		return
	}

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	var mux samplesource.Source
	if *devMode {
		lines, err := readFixtureLines(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		interval := time.Duration(profile.GetIntervalSeconds()) * time.Second
		mux = samplesource.NewMock(lines, interval)
	} else {
		mux, err = samplesource.OpenSerial(*serialPath, samplesource.PortOptions{BaudRate: *baudRate})
		if err != nil {
			log.Fatalf("failed to open sensor port: %v", err)
		}
	}
	defer mux.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			monitoring.Logf("monitor stopped: %v", err)
		}
		stop()
	}()

	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runLoop(ctx, profile, eng, lines)
	}()

	wg.Wait()
}

func readFixtureLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("fixtures file %s has no reading lines", path)
	}
	return lines, nil
}
