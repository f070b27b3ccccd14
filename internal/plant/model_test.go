package plant

import (
	"math"
	"testing"
)

func cleanParams() Params {
	p := DefaultParams()
	p.DisturbanceAmp = 0
	p.NoiseAmp = 0
	return p
}

func TestStepConvergence(t *testing.T) {
	p := cleanParams()
	p.Gain = 2.0
	p.TimeConstant = 10.0
	p.DeadTime = 0

	m, err := New(p, 0.1, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// Hold the input for 10 time constants; first-order response should be
	// within 1% of gain*input.
	steps := int(10 * p.TimeConstant / 0.1)
	var out float64
	for i := 0; i < steps; i++ {
		out = m.Calculate(5.0)
	}

	want := p.Gain * 5.0
	if math.Abs(out-want)/want > 0.01 {
		t.Errorf("expected output within 1%% of %f, got %f", want, out)
	}
}

func TestTransportDelay(t *testing.T) {
	p := cleanParams()
	p.DeadTime = 2.0

	m, err := New(p, 0.1, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if m.DelayLen() != 20 {
		t.Fatalf("expected delay line of 20, got %d", m.DelayLen())
	}

	// Response to a step input must not begin before the dead time elapses.
	onset := -1
	for i := 0; i < 100; i++ {
		if m.Calculate(1.0) != 0 {
			onset = i
			break
		}
	}
	if onset < 0 {
		t.Fatal("no response observed")
	}
	// Input applied at step 0 pops out after the 20-entry queue drains.
	if onset < 19 || onset > 21 {
		t.Errorf("response onset at step %d, expected around 20", onset)
	}
}

func TestSetInitialOutputEquilibrium(t *testing.T) {
	p := cleanParams()
	p.Gain = 2.0

	m, err := New(p, 0.1, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	m.SetInitialOutput(50.0)
	if m.Output() != 50.0 {
		t.Fatalf("expected output 50, got %f", m.Output())
	}

	// Feeding the steady-state input back keeps the plant at equilibrium.
	for i := 0; i < 100; i++ {
		out := m.Calculate(25.0)
		if math.Abs(out-50.0) > 1e-9 {
			t.Fatalf("step %d: drifted from equilibrium: %f", i, out)
		}
	}
}

func TestDelayLineResize(t *testing.T) {
	p := cleanParams()
	p.DeadTime = 1.0

	m, err := New(p, 0.1, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if m.DelayLen() != 10 {
		t.Fatalf("expected 10 entries, got %d", m.DelayLen())
	}

	p.DeadTime = 3.0
	if err := m.UpdateParams(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if m.DelayLen() != 30 {
		t.Errorf("grow: expected 30 entries, got %d", m.DelayLen())
	}

	p.DeadTime = 0.5
	if err := m.UpdateParams(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if m.DelayLen() != 5 {
		t.Errorf("shrink: expected 5 entries, got %d", m.DelayLen())
	}

	p.DeadTime = 0
	if err := m.UpdateParams(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if m.DelayLen() != 1 {
		t.Errorf("zero dead time: expected 1 entry, got %d", m.DelayLen())
	}
}

func TestResizePreservesContinuity(t *testing.T) {
	p := cleanParams()
	p.DeadTime = 1.0

	m, _ := New(p, 0.1, 1)
	m.SetInitialOutput(10.0)

	p.DeadTime = 2.0
	if err := m.UpdateParams(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// Grown entries replicate the steady-state input, so equilibrium holds.
	for i := 0; i < 50; i++ {
		out := m.Calculate(10.0)
		if math.Abs(out-10.0) > 1e-9 {
			t.Fatalf("step %d: equilibrium broken after resize: %f", i, out)
		}
	}
}

func TestDisturbanceZeroWhenDisabled(t *testing.T) {
	m, err := New(cleanParams(), 0.1, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	for i := 0; i < 50; i++ {
		m.Calculate(1.0)
		if m.Disturbance() != 0 {
			t.Fatal("disturbance should be zero when amplitude is zero")
		}
		if m.Noise() != 0 {
			t.Fatal("noise should be zero when amplitude is zero")
		}
	}
}

func TestNoiseExcludedFromInternalState(t *testing.T) {
	p := cleanParams()
	p.NoiseAmp = 0.2

	m, err := New(p, 0.1, 42)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		out := m.Calculate(5.0)
		if out != m.Internal()+m.Noise() {
			t.Fatal("output should be internal state plus noise")
		}
	}
}

func TestSeedReproducibility(t *testing.T) {
	run := func(seed int64) []float64 {
		p := cleanParams()
		p.DisturbanceAmp = 0.5
		p.NoiseAmp = 0.1
		m, _ := New(p, 0.1, seed)
		outs := make([]float64, 200)
		for i := range outs {
			outs[i] = m.Calculate(3.0)
		}
		return outs
	}

	a, b := run(7), run(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d: same seed diverged: %f vs %f", i, a[i], b[i])
		}
	}

	c := run(8)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical trajectories")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	p := cleanParams()
	p.DisturbanceAmp = 0.3
	p.NoiseAmp = 0.1

	m, err := New(p, 0.1, 11)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	first := make([]float64, 50)
	for i := range first {
		first[i] = m.Calculate(2.0)
	}

	m.Reset()
	for i := range first {
		if out := m.Calculate(2.0); out != first[i] {
			t.Fatalf("step %d: reset run diverged: %f vs %f", i, out, first[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero gain", func(p *Params) { p.Gain = 0 }},
		{"zero time constant", func(p *Params) { p.TimeConstant = 0 }},
		{"negative dead time", func(p *Params) { p.DeadTime = -1 }},
		{"disturbance above 1", func(p *Params) { p.DisturbanceAmp = 1.5 }},
		{"negative noise", func(p *Params) { p.NoiseAmp = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
