package controller

import "fmt"

// PID is a velocity-form discrete PID control law. Each call to Calculate
// produces an output delta added to the previous output, so mode switches and
// gain changes never introduce an absolute-position jump. The controller knows
// nothing about the plant it drives.
type PID struct {
	params Params
	dt     float64

	e  [3]float64 // error samples, newest first
	pv [3]float64 // measured-value samples, newest first

	output    float64
	integral  float64
	first     bool
	saturated bool
	satSign   float64
	backCorr  float64
}

func New(params Params, dt float64) (*PID, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	c := &PID{params: params, dt: dt}
	c.Reset()
	return c, nil
}

// Calculate computes the next control output for the given setpoint and
// measured value. In manual mode the configured manual output is passed
// through the limiter and history is not advanced.
func (c *PID) Calculate(setpoint, measured float64) float64 {
	if c.params.Mode == ModeManual {
		c.output = c.clamp(c.params.ManualOutput)
		return c.output
	}

	c.e[2], c.e[1] = c.e[1], c.e[0]
	c.pv[2], c.pv[1] = c.pv[1], c.pv[0]
	c.e[0] = setpoint - measured
	c.pv[0] = measured

	// History is not populated yet; a non-zero delta here would be a
	// spurious jump.
	if c.first {
		c.first = false
		c.output = c.clamp(c.output)
		return c.output
	}

	kp := c.params.Kp
	ki := 0.0
	if c.params.Ti != 0 {
		ki = kp / c.params.Ti
	}
	kd := c.params.Td * kp

	iTerm := ki * c.e[0] * c.dt
	var pTerm, dTerm float64
	switch c.params.Algorithm {
	case AlgorithmIPD:
		pTerm = kp * (c.pv[1] - c.pv[0])
		dTerm = kd * (c.pv[2] - 2*c.pv[1] + c.pv[0]) / c.dt
	case AlgorithmPID:
		pTerm = kp * (c.e[0] - c.e[1])
		dTerm = kd * (c.pv[2] - 2*c.pv[1] + c.pv[0]) / c.dt
	default:
		pTerm = kp * (c.e[0] - c.e[1])
		dTerm = kd * (c.e[0] - 2*c.e[1] + c.e[2]) / c.dt
	}

	switch c.params.AntiWindup {
	case WindupClamping:
		if c.saturated {
			iTerm = 0
		}
	case WindupConditional:
		// Accumulate only when the error pushes the output away from
		// the saturated rail.
		if c.saturated && c.e[0]*c.satSign > 0 {
			iTerm = 0
		}
	case WindupBackCalc:
		iTerm += c.backCorr
	}

	// The windup limit bounds the integral contribution itself: once the
	// accumulator sits at the limit, further same-sign accumulation is
	// truncated out of the applied term.
	if c.params.WindupLimit > 0 {
		next := c.integral + iTerm
		if next > c.params.WindupLimit {
			next = c.params.WindupLimit
		} else if next < -c.params.WindupLimit {
			next = -c.params.WindupLimit
		}
		iTerm = next - c.integral
		c.integral = next
	} else {
		c.integral += iTerm
	}

	unlimited := c.output + pTerm + iTerm + dTerm
	limited := c.clamp(unlimited)

	c.saturated = limited != unlimited
	c.satSign = 0
	if c.saturated {
		if unlimited > limited {
			c.satSign = 1
		} else {
			c.satSign = -1
		}
	}
	c.backCorr = 0
	if c.params.AntiWindup == WindupBackCalc {
		c.backCorr = (limited - unlimited) * c.params.TrackingGain
	}

	c.output = limited
	return limited
}

// SetMode switches the operating mode. Entering auto from manual performs a
// bumpless transfer: the auto output is seeded from the prior manual output
// and history is reinitialized so the first auto computation yields zero delta.
func (c *PID) SetMode(mode Mode) {
	if mode == c.params.Mode {
		return
	}
	prev := c.params.Mode
	c.params.Mode = mode
	if mode == ModeAuto && prev == ModeManual {
		c.output = c.clamp(c.params.ManualOutput)
		c.e[1], c.e[2] = c.e[0], c.e[0]
		c.pv[1], c.pv[2] = c.pv[0], c.pv[0]
		c.first = true
		c.backCorr = 0
		c.saturated = false
	}
}

// UpdateParams hot-swaps the configuration without resetting history; new
// gains take effect on the next tick. An invalid parameter set is rejected
// and the prior configuration retained.
func (c *PID) UpdateParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	mode := c.params.Mode
	c.params = p
	if p.Mode != mode {
		c.params.Mode = mode
		c.SetMode(p.Mode)
	}
	return nil
}

// Reset zeroes all history and reseeds the output from the manual value.
func (c *PID) Reset() {
	c.e = [3]float64{}
	c.pv = [3]float64{}
	c.integral = 0
	c.backCorr = 0
	c.saturated = false
	c.satSign = 0
	c.first = true
	c.output = c.clamp(c.params.ManualOutput)
}

// AlignOutput seeds the previous-output term, used by the owning engine to
// start a run at plant equilibrium.
func (c *PID) AlignOutput(v float64) {
	c.output = c.clamp(v)
}

func (c *PID) Output() float64   { return c.output }
func (c *PID) Integral() float64 { return c.integral }
func (c *PID) Mode() Mode        { return c.params.Mode }
func (c *PID) Params() Params    { return c.params }

func (c *PID) clamp(v float64) float64 {
	if v < c.params.OutputMin {
		return c.params.OutputMin
	}
	if v > c.params.OutputMax {
		return c.params.OutputMax
	}
	return v
}
