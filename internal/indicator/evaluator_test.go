package indicator

import "testing"

func waterParams() []ParamConfig {
	return []ParamConfig{
		{
			Name:        "ph",
			OptimalMin:  6.5,
			OptimalMax:  8.5,
			Critical:    true,
			CriticalMin: 4.0,
			CriticalMax: 10.0,
		},
		{
			Name:       "turbidity",
			OptimalMin: 0.0001, // effectively "any measurable turbidity"
			OptimalMax: 5.0,
		},
		{
			Name:         "smoke",
			OptimalMin:   0.0001,
			OptimalMax:   20.0,
			DeviationPct: 50,
		},
	}
}

func TestEvaluateBands(t *testing.T) {
	e, err := New(waterParams())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		values      map[string]float64
		baselines   map[string]float64
		wantActive  map[string]bool
		wantCount   int
		wantCritCnt int
	}{
		{
			name:       "all nominal",
			values:     map[string]float64{"ph": 7.0, "turbidity": 2.0, "smoke": 10.0},
			wantActive: map[string]bool{"ph.range": false, "ph.critical": false, "turbidity.range": false, "smoke.range": false, "smoke.deviation": false},
			wantCount:  0,
		},
		{
			name:       "ph above optimal but not critical",
			values:     map[string]float64{"ph": 9.2, "turbidity": 2.0, "smoke": 10.0},
			wantActive: map[string]bool{"ph.range": true, "ph.critical": false},
			wantCount:  1,
		},
		{
			name:        "ph critical low",
			values:      map[string]float64{"ph": 3.0, "turbidity": 2.0, "smoke": 10.0},
			wantActive:  map[string]bool{"ph.range": true, "ph.critical": true},
			wantCount:   2,
			wantCritCnt: 1,
		},
		{
			name:      "deviation without baseline stays false",
			values:    map[string]float64{"ph": 7.0, "turbidity": 2.0, "smoke": 19.0},
			baselines: nil,
			wantActive: map[string]bool{
				"smoke.deviation": false,
			},
			wantCount: 0,
		},
		{
			// Percent deviation from a zero baseline is ill-defined; a
			// clean-air characterization of exactly 0 must not raise the
			// indicator, only leave it permanently false.
			name:      "deviation against zero baseline stays false",
			values:    map[string]float64{"ph": 7.0, "turbidity": 2.0, "smoke": 19.0},
			baselines: map[string]float64{"smoke": 0},
			wantActive: map[string]bool{
				"smoke.deviation": false,
			},
			wantCount: 0,
		},
		{
			name:      "deviation against learned baseline",
			values:    map[string]float64{"ph": 7.0, "turbidity": 2.0, "smoke": 18.0},
			baselines: map[string]float64{"smoke": 10.0},
			wantActive: map[string]bool{
				"smoke.deviation": true,
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.values, tt.baselines)
			for name, want := range tt.wantActive {
				if got.Active[name] != want {
					t.Errorf("indicator %s = %v, want %v", name, got.Active[name], want)
				}
			}
			if got.ActiveCount != tt.wantCount {
				t.Errorf("ActiveCount = %d, want %d", got.ActiveCount, tt.wantCount)
			}
			if got.CriticalCount != tt.wantCritCnt {
				t.Errorf("CriticalCount = %d, want %d", got.CriticalCount, tt.wantCritCnt)
			}
		})
	}
}

func TestIndicatorOrderFixed(t *testing.T) {
	e, err := New(waterParams())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ph.range", "ph.critical", "turbidity.range", "smoke.range", "smoke.deviation"}
	got := e.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRecoveryFlag(t *testing.T) {
	e, err := New([]ParamConfig{{
		Name:         "moisture",
		OptimalMin:   30,
		OptimalMax:   70,
		Recovery:     true,
		RecoveryHigh: 60,
	}})
	if err != nil {
		t.Fatal(err)
	}

	dry := e.Evaluate(map[string]float64{"moisture": 20}, nil)
	if dry.Recovered["moisture.recovered"] {
		t.Error("recovered flag set while below the recovery threshold")
	}
	// Recovery flags are advisory, not alert indicators.
	if dry.ActiveCount != 1 {
		t.Errorf("ActiveCount = %d, want 1 (range only)", dry.ActiveCount)
	}

	wet := e.Evaluate(map[string]float64{"moisture": 65}, nil)
	if !wet.Recovered["moisture.recovered"] {
		t.Error("recovered flag not set above the recovery threshold")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		params []ParamConfig
	}{
		{"empty set", nil},
		{"empty name", []ParamConfig{{OptimalMin: 0, OptimalMax: 1}}},
		{"inverted optimal band", []ParamConfig{{Name: "x", OptimalMin: 5, OptimalMax: 5}}},
		{"critical not looser low", []ParamConfig{{Name: "x", OptimalMin: 2, OptimalMax: 8, Critical: true, CriticalMin: 2, CriticalMax: 10}}},
		{"critical not looser high", []ParamConfig{{Name: "x", OptimalMin: 2, OptimalMax: 8, Critical: true, CriticalMin: 0, CriticalMax: 8}}},
		{"negative deviation", []ParamConfig{{Name: "x", OptimalMin: 2, OptimalMax: 8, DeviationPct: -1}}},
		{"duplicate name", []ParamConfig{{Name: "x", OptimalMin: 2, OptimalMax: 8}, {Name: "x", OptimalMin: 2, OptimalMax: 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.params); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}
