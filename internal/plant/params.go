package plant

import "fmt"

// Params describes a first-order-plus-dead-time process.
type Params struct {
	Gain           float64
	TimeConstant   float64
	DeadTime       float64
	DisturbanceAmp float64
	NoiseAmp       float64
}

func DefaultParams() Params {
	return Params{
		Gain:           1.0,
		TimeConstant:   10.0,
		DeadTime:       2.0,
		DisturbanceAmp: 0.0,
		NoiseAmp:       0.0,
	}
}

func (p Params) Validate() error {
	if p.Gain == 0 {
		return fmt.Errorf("gain must be non-zero")
	}
	if p.TimeConstant <= 0 {
		return fmt.Errorf("time constant must be positive, got %f", p.TimeConstant)
	}
	if p.DeadTime < 0 {
		return fmt.Errorf("dead time must be non-negative, got %f", p.DeadTime)
	}
	if p.DisturbanceAmp < 0 || p.DisturbanceAmp > 1 {
		return fmt.Errorf("disturbance amplitude must be in [0,1], got %f", p.DisturbanceAmp)
	}
	if p.NoiseAmp < 0 || p.NoiseAmp > 1 {
		return fmt.Errorf("noise amplitude must be in [0,1], got %f", p.NoiseAmp)
	}
	return nil
}
