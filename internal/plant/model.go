package plant

import (
	"math"
	"math/rand"
)

const (
	// Single-pole filter time constant for the random disturbance term.
	distFilterTau = 5.0
	// Keeps measurement noise from vanishing when the process sits at zero.
	noiseFloor = 0.01
)

// Model simulates a first-order-plus-dead-time process. Transport delay is an
// explicit fixed-length queue of past control inputs; disturbance and
// measurement noise come from an injected seeded source so runs replay
// identically for the same seed. The model knows nothing about the controller
// driving it.
type Model struct {
	params Params
	dt     float64
	seed   int64
	t      float64

	output      float64
	internal    float64
	delay       []float64 // delay[0] is the oldest queued input
	disturbance float64
	distFilter  float64
	noise       float64

	rng *rand.Rand
}

func New(params Params, dt float64, seed int64) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := &Model{params: params, dt: dt, seed: seed}
	m.Reset()
	return m, nil
}

// Calculate advances the plant by one step for the given control input and
// returns the measured output (internal state plus observation noise).
func (m *Model) Calculate(input float64) float64 {
	m.t += m.dt

	delayed := m.delay[0]
	copy(m.delay, m.delay[1:])
	m.delay[len(m.delay)-1] = input

	a := math.Exp(-m.dt / m.params.TimeConstant)
	m.updateDisturbance(a)
	m.internal = m.internal*a + m.params.Gain*delayed*(1-a) + m.disturbance

	// Noise is memoryless and excluded from the internal state so the lag
	// recurrence stays clean of observation noise.
	m.noise = 0
	if m.params.NoiseAmp > 0 {
		base := math.Abs(m.internal)
		if base < noiseFloor {
			base = noiseFloor
		}
		m.noise = m.params.NoiseAmp * base * (m.rng.Float64()*2 - 1)
	}

	m.output = m.internal + m.noise
	return m.output
}

// updateDisturbance recomputes the disturbance value: two slow sinusoids plus
// a low-pass-filtered random walk, scaled by amplitude and gain. The (1-a)
// factor shapes it like an input disturbance passing through the lag, so its
// magnitude stays comparable across step sizes.
func (m *Model) updateDisturbance(a float64) {
	if m.params.DisturbanceAmp == 0 {
		m.disturbance = 0
		return
	}
	raw := m.rng.Float64()*2 - 1
	m.distFilter += (raw - m.distFilter) * m.dt / distFilterTau

	slow := math.Sin(2 * math.Pi * m.t / 120.0)
	fast := 0.6 * math.Sin(2*math.Pi*m.t/17.0)
	m.disturbance = m.params.DisturbanceAmp * m.params.Gain * (0.5*slow + 0.3*fast + 2.0*m.distFilter) * (1 - a)
}

// SetInitialOutput forces the plant to the given output and fills the delay
// line with the steady-state input, so the next steps hold the value absent
// controller action. Used to start at equilibrium and to inject step
// disturbances.
func (m *Model) SetInitialOutput(v float64) {
	m.output = v
	m.internal = v
	steady := v / m.params.Gain
	for i := range m.delay {
		m.delay[i] = steady
	}
}

// UpdateParams hot-swaps the configuration. A dead-time change resizes the
// delay line preserving continuity: growing replicates the most recent queued
// input, shrinking drops the oldest entries. Invalid parameters are rejected
// and the prior set retained.
func (m *Model) UpdateParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.params = p
	m.resizeDelay()
	return nil
}

func (m *Model) resizeDelay() {
	n := delayLen(m.params.DeadTime, m.dt)
	switch {
	case n < len(m.delay):
		m.delay = m.delay[len(m.delay)-n:]
	case n > len(m.delay):
		newest := 0.0
		if len(m.delay) > 0 {
			newest = m.delay[len(m.delay)-1]
		}
		for len(m.delay) < n {
			m.delay = append(m.delay, newest)
		}
	}
}

// Reset restores the just-constructed state, including the random source, so
// identical seeds replay identical runs.
func (m *Model) Reset() {
	m.t = 0
	m.output = 0
	m.internal = 0
	m.disturbance = 0
	m.distFilter = 0
	m.noise = 0
	m.rng = rand.New(rand.NewSource(m.seed))
	m.delay = make([]float64, delayLen(m.params.DeadTime, m.dt))
}

func (m *Model) Output() float64      { return m.output }
func (m *Model) Internal() float64    { return m.internal }
func (m *Model) Disturbance() float64 { return m.disturbance }
func (m *Model) Noise() float64       { return m.noise }
func (m *Model) Params() Params       { return m.params }
func (m *Model) DelayLen() int        { return len(m.delay) }

func delayLen(deadTime, dt float64) int {
	n := int(math.Round(deadTime / dt))
	if n < 1 {
		n = 1
	}
	return n
}
