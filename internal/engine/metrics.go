package engine

import "math"

const (
	// Window for the rolling error statistics.
	rollingWindow = 100
	// Minimum setpoint change that counts as a step for response analysis.
	minStepSize = 0.5
	// Settling band as a fraction of the step magnitude.
	settlingBand = 0.02
)

// StepResponse characterizes the loop's reaction to the most recent qualifying
// setpoint step. Fields stay nil until the corresponding feature is observed.
type StepResponse struct {
	SettlingTime     *float64
	Overshoot        *float64
	SteadyStateError *float64
	RiseTime         *float64
}

// Report is an immutable view of the performance metrics.
type Report struct {
	IAE            float64
	ISE            float64
	ITAE           float64
	OutputMin      float64
	OutputMax      float64
	TotalVariation float64
	RollingMean    float64
	RollingStd     float64
	Step           StepResponse
}

// Metrics accumulates control-quality scores over a run. Integral and output
// extrema accumulate monotonically; the rolling statistics cover the most
// recent window of errors. Step-response metrics are computed on demand from
// the sample history.
type Metrics struct {
	iae  float64
	ise  float64
	itae float64

	outMin    float64
	outMax    float64
	variation float64
	lastOut   float64
	observed  bool

	window [rollingWindow]float64
	wHead  int
	wCount int
}

func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

func (m *Metrics) Observe(s Sample, dt float64) {
	ae := math.Abs(s.Error)
	m.iae += ae * dt
	m.ise += s.Error * s.Error * dt
	m.itae += s.Time * ae * dt

	if s.Output < m.outMin {
		m.outMin = s.Output
	}
	if s.Output > m.outMax {
		m.outMax = s.Output
	}
	if m.observed {
		m.variation += math.Abs(s.Output - m.lastOut)
	}
	m.lastOut = s.Output
	m.observed = true

	m.window[m.wHead] = s.Error
	m.wHead = (m.wHead + 1) % rollingWindow
	if m.wCount < rollingWindow {
		m.wCount++
	}
}

func (m *Metrics) rollingMean() float64 {
	if m.wCount == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < m.wCount; i++ {
		sum += m.window[i]
	}
	return sum / float64(m.wCount)
}

func (m *Metrics) rollingStd() float64 {
	if m.wCount == 0 {
		return 0
	}
	mean := m.rollingMean()
	sum := 0.0
	for i := 0; i < m.wCount; i++ {
		d := m.window[i] - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(m.wCount))
}

func (m *Metrics) Report(h *History) Report {
	r := Report{
		IAE:            m.iae,
		ISE:            m.ise,
		ITAE:           m.itae,
		TotalVariation: m.variation,
		RollingMean:    m.rollingMean(),
		RollingStd:     m.rollingStd(),
		Step:           analyzeStep(h),
	}
	if m.observed {
		r.OutputMin = m.outMin
		r.OutputMax = m.outMax
	}
	return r
}

func (m *Metrics) Reset() {
	*m = Metrics{outMin: math.Inf(1), outMax: math.Inf(-1)}
}

// analyzeStep scans backward for the most recent setpoint change exceeding the
// minimum step size and characterizes the response from there on.
func analyzeStep(h *History) StepResponse {
	var resp StepResponse
	n := h.Len()

	stepIdx := -1
	for i := n - 1; i > 0; i-- {
		if math.Abs(h.At(i).Setpoint-h.At(i-1).Setpoint) >= minStepSize {
			stepIdx = i
			break
		}
	}
	if stepIdx < 0 || stepIdx >= n-1 {
		return resp
	}

	initial := h.At(stepIdx - 1).Value
	target := h.At(stepIdx).Setpoint
	delta := target - initial
	if delta == 0 {
		return resp
	}
	stepTime := h.At(stepIdx).Time

	// Overshoot: worst excursion past the target, as a percentage of the
	// step magnitude.
	peak := 0.0
	for i := stepIdx; i < n; i++ {
		over := (h.At(i).Value - target) / delta
		if over > peak {
			peak = over
		}
	}
	overshoot := peak * 100.0
	resp.Overshoot = &overshoot

	// Rise time: 10% to 90% of the step.
	t10, t90 := -1.0, -1.0
	for i := stepIdx; i < n; i++ {
		progress := (h.At(i).Value - initial) / delta
		if t10 < 0 && progress >= 0.1 {
			t10 = h.At(i).Time
		}
		if t90 < 0 && progress >= 0.9 {
			t90 = h.At(i).Time
			break
		}
	}
	if t10 >= 0 && t90 >= 0 {
		rise := t90 - t10
		resp.RiseTime = &rise
	}

	// Settling time: instant after which the value stays within the band.
	band := settlingBand * math.Abs(delta)
	settled := -1.0
	for i := n - 1; i >= stepIdx; i-- {
		if math.Abs(h.At(i).Value-target) > band {
			break
		}
		settled = h.At(i).Time
	}
	if settled >= 0 && settled > stepTime {
		st := settled - stepTime
		resp.SettlingTime = &st
	}

	// Steady-state error from the tail of the response.
	tail := 10
	if rem := n - stepIdx; rem < tail {
		tail = rem
	}
	sum := 0.0
	for i := n - tail; i < n; i++ {
		sum += h.At(i).Value
	}
	sse := math.Abs(target - sum/float64(tail))
	resp.SteadyStateError = &sse

	return resp
}
