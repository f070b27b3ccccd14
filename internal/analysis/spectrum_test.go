package analysis

import (
	"math"
	"testing"
)

func sine(n int, dt, period, amp float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = amp * math.Sin(2*math.Pi*float64(i)*dt/period)
	}
	return data
}

func TestDominantPeriodSine(t *testing.T) {
	dt := 0.1
	period := 5.0
	data := sine(1024, dt, period, 2.0)

	got := DominantPeriod(data, dt)
	if math.Abs(got-period) > 0.5 {
		t.Errorf("expected period near %v, got %v", period, got)
	}
}

func TestDominantPeriodOffsetIgnoresDC(t *testing.T) {
	dt := 0.1
	period := 8.0
	data := sine(1024, dt, period, 1.0)
	for i := range data {
		data[i] += 50.0
	}

	got := DominantPeriod(data, dt)
	if math.Abs(got-period) > 0.5 {
		t.Errorf("expected period near %v despite offset, got %v", period, got)
	}
}

func TestDominantPeriodFlatSignal(t *testing.T) {
	data := make([]float64, 256)
	for i := range data {
		data[i] = 42.0
	}

	if got := DominantPeriod(data, 0.1); got != 0 {
		t.Errorf("expected 0 for flat signal, got %v", got)
	}
}

func TestDominantPeriodShortInput(t *testing.T) {
	if got := DominantPeriod([]float64{1.0}, 0.1); got != 0 {
		t.Errorf("expected 0 for short input, got %v", got)
	}
	if got := DominantPeriod(nil, 0.1); got != 0 {
		t.Errorf("expected 0 for nil input, got %v", got)
	}
}

func TestOscillationAmplitude(t *testing.T) {
	data := sine(512, 0.1, 4.0, 3.0)
	for i := range data {
		data[i] += 10.0
	}

	got := OscillationAmplitude(data)
	if math.Abs(got-3.0) > 0.1 {
		t.Errorf("expected amplitude near 3.0, got %v", got)
	}
}

func TestZieglerNichols(t *testing.T) {
	suggestions := ZieglerNichols(4.0, 10.0)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}

	tests := []struct {
		rule TuningRule
		kp   float64
		ti   float64
		td   float64
	}{
		{RuleP, 2.0, 0, 0},
		{RulePI, 1.8, 10.0 / 1.2, 0},
		{RulePID, 2.4, 5.0, 1.25},
	}
	for i, tt := range tests {
		s := suggestions[i]
		if s.Rule != tt.rule {
			t.Errorf("suggestion %d: expected rule %s, got %s", i, tt.rule, s.Rule)
		}
		if math.Abs(s.Kp-tt.kp) > 1e-9 || math.Abs(s.Ti-tt.ti) > 1e-9 || math.Abs(s.Td-tt.td) > 1e-9 {
			t.Errorf("suggestion %d: expected (%v, %v, %v), got (%v, %v, %v)",
				i, tt.kp, tt.ti, tt.td, s.Kp, s.Ti, s.Td)
		}
	}
}

func TestZieglerNicholsInvalidInputs(t *testing.T) {
	if got := ZieglerNichols(0, 10); got != nil {
		t.Error("expected nil for zero gain")
	}
	if got := ZieglerNichols(2, -1); got != nil {
		t.Error("expected nil for negative period")
	}
}

func TestSuggestFromRun(t *testing.T) {
	dt := 0.1
	data := sine(1024, dt, 6.0, 2.0)

	suggestions := SuggestFromRun(data, dt, 3.0)
	if suggestions == nil {
		t.Fatal("expected suggestions for oscillating trace")
	}
	if math.Abs(suggestions[2].Kp-1.8) > 1e-9 {
		t.Errorf("expected PID Kp 1.8, got %v", suggestions[2].Kp)
	}

	flat := make([]float64, 256)
	if got := SuggestFromRun(flat, dt, 3.0); got != nil {
		t.Error("expected nil for flat trace")
	}
}
