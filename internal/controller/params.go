package controller

import "fmt"

type Algorithm string

const (
	// AlgorithmBasic applies P, I and D to the error. Fast response but
	// exhibits proportional and derivative kick on setpoint changes.
	AlgorithmBasic Algorithm = "basic"
	// AlgorithmPID is the PI-D form: derivative acts on the measured value,
	// eliminating derivative kick.
	AlgorithmPID Algorithm = "pi-d"
	// AlgorithmIPD applies both P and D to the measured value, eliminating
	// proportional and derivative kick.
	AlgorithmIPD Algorithm = "i-pd"
)

type Mode string

const (
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

type AntiWindup string

const (
	WindupNone        AntiWindup = "none"
	WindupClamping    AntiWindup = "clamping"
	WindupConditional AntiWindup = "conditional"
	WindupBackCalc    AntiWindup = "backcalc"
)

// Params holds the full controller configuration. Gains use the time-constant
// form: Ki = Kp/Ti (integral disabled when Ti is 0) and Kd = Td*Kp.
type Params struct {
	Kp           float64
	Ti           float64
	Td           float64
	OutputMin    float64
	OutputMax    float64
	Algorithm    Algorithm
	Mode         Mode
	ManualOutput float64
	AntiWindup   AntiWindup
	WindupLimit  float64
	TrackingGain float64
	SetpointMin  float64
	SetpointMax  float64
}

func DefaultParams() Params {
	return Params{
		Kp:           1.0,
		Ti:           10.0,
		Td:           0.0,
		OutputMin:    0.0,
		OutputMax:    100.0,
		Algorithm:    AlgorithmBasic,
		Mode:         ModeAuto,
		ManualOutput: 0.0,
		AntiWindup:   WindupClamping,
		WindupLimit:  0.0,
		TrackingGain: 1.0,
		SetpointMin:  0.0,
		SetpointMax:  100.0,
	}
}

func (p Params) Validate() error {
	if p.OutputMin >= p.OutputMax {
		return fmt.Errorf("output bounds degenerate: min %f >= max %f", p.OutputMin, p.OutputMax)
	}
	if p.SetpointMin >= p.SetpointMax {
		return fmt.Errorf("setpoint bounds degenerate: min %f >= max %f", p.SetpointMin, p.SetpointMax)
	}
	if p.Ti < 0 {
		return fmt.Errorf("integral time must be non-negative, got %f", p.Ti)
	}
	if p.Td < 0 {
		return fmt.Errorf("derivative time must be non-negative, got %f", p.Td)
	}
	switch p.Algorithm {
	case AlgorithmBasic, AlgorithmPID, AlgorithmIPD:
	default:
		return fmt.Errorf("unknown algorithm: %s", p.Algorithm)
	}
	switch p.Mode {
	case ModeManual, ModeAuto:
	default:
		return fmt.Errorf("unknown mode: %s", p.Mode)
	}
	switch p.AntiWindup {
	case WindupNone, WindupClamping, WindupConditional, WindupBackCalc:
	default:
		return fmt.Errorf("unknown anti-windup method: %s", p.AntiWindup)
	}
	return nil
}
