package engine

import (
	"math"
	"testing"
)

func TestMetricsAccumulation(t *testing.T) {
	m := NewMetrics()

	m.Observe(Sample{Time: 0.1, Error: 2, Output: 10}, 0.1)
	m.Observe(Sample{Time: 0.2, Error: -1, Output: 14}, 0.1)
	m.Observe(Sample{Time: 0.3, Error: 0.5, Output: 12}, 0.1)

	r := m.Report(NewHistory(1))

	wantIAE := (2 + 1 + 0.5) * 0.1
	if math.Abs(r.IAE-wantIAE) > 1e-12 {
		t.Errorf("expected IAE %f, got %f", wantIAE, r.IAE)
	}
	wantISE := (4 + 1 + 0.25) * 0.1
	if math.Abs(r.ISE-wantISE) > 1e-12 {
		t.Errorf("expected ISE %f, got %f", wantISE, r.ISE)
	}
	wantITAE := (0.1*2 + 0.2*1 + 0.3*0.5) * 0.1
	if math.Abs(r.ITAE-wantITAE) > 1e-12 {
		t.Errorf("expected ITAE %f, got %f", wantITAE, r.ITAE)
	}
	if r.OutputMin != 10 || r.OutputMax != 14 {
		t.Errorf("expected output range [10, 14], got [%f, %f]", r.OutputMin, r.OutputMax)
	}
	if math.Abs(r.TotalVariation-6) > 1e-12 {
		t.Errorf("expected total variation 6, got %f", r.TotalVariation)
	}
}

func TestMetricsRollingWindow(t *testing.T) {
	m := NewMetrics()

	// Fill well past the window; only the last 100 errors count.
	for i := 0; i < 300; i++ {
		e := 0.0
		if i >= 200 {
			e = 4.0
		}
		m.Observe(Sample{Time: float64(i), Error: e}, 0.1)
	}

	r := m.Report(NewHistory(1))
	if math.Abs(r.RollingMean-4.0) > 1e-12 {
		t.Errorf("expected rolling mean 4, got %f", r.RollingMean)
	}
	if r.RollingStd > 1e-12 {
		t.Errorf("expected rolling std 0, got %f", r.RollingStd)
	}
}

func TestStepResponseNilWithoutStep(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 50; i++ {
		h.Push(Sample{Time: float64(i), Setpoint: 50, Value: 50})
	}

	r := analyzeStep(h)
	if r.Overshoot != nil || r.RiseTime != nil || r.SettlingTime != nil || r.SteadyStateError != nil {
		t.Error("step metrics should stay nil without a qualifying step")
	}
}

func TestStepResponseAnalysis(t *testing.T) {
	h := NewHistory(500)

	// Steady at 50, step to 60 at t=1.0, first-order-ish rise with a small
	// overshoot peak at 61.
	h.Push(Sample{Time: 0.9, Setpoint: 50, Value: 50})
	h.Push(Sample{Time: 1.0, Setpoint: 60, Value: 50})
	times := []float64{1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8}
	values := []float64{52, 55, 58, 60.5, 61, 60.4, 60.1, 60}
	for i := range times {
		h.Push(Sample{Time: times[i], Setpoint: 60, Value: values[i]})
	}
	for i := 0; i < 20; i++ {
		h.Push(Sample{Time: 1.9 + float64(i)*0.1, Setpoint: 60, Value: 60})
	}

	r := analyzeStep(h)

	if r.Overshoot == nil {
		t.Fatal("expected overshoot to be set")
	}
	if math.Abs(*r.Overshoot-10.0) > 1e-9 {
		t.Errorf("expected overshoot 10%%, got %f", *r.Overshoot)
	}

	if r.RiseTime == nil {
		t.Fatal("expected rise time to be set")
	}
	// 10% first crossed at 52 (t=1.1), 90% at 60.5 (t=1.4).
	if math.Abs(*r.RiseTime-0.3) > 1e-9 {
		t.Errorf("expected rise time 0.3, got %f", *r.RiseTime)
	}

	if r.SettlingTime == nil {
		t.Fatal("expected settling time to be set")
	}
	if r.SteadyStateError == nil {
		t.Fatal("expected steady-state error to be set")
	}
	if *r.SteadyStateError > 0.01 {
		t.Errorf("expected near-zero steady-state error, got %f", *r.SteadyStateError)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.Observe(Sample{Time: 1, Error: 5, Output: 3}, 0.1)
	m.Reset()

	r := m.Report(NewHistory(1))
	if r.IAE != 0 || r.TotalVariation != 0 || r.RollingMean != 0 {
		t.Error("expected zeroed metrics after reset")
	}
	if r.OutputMin != 0 || r.OutputMax != 0 {
		t.Errorf("expected zero output range before observations, got [%f, %f]", r.OutputMin, r.OutputMax)
	}
}
