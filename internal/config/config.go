package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oveklev/pidsim/internal/controller"
	"github.com/oveklev/pidsim/internal/engine"
	"github.com/oveklev/pidsim/internal/plant"
)

const (
	DefaultDt           = 0.1
	DefaultDuration     = 300.0
	DefaultTickInterval = 100
	DefaultHistorySize  = 10000
	DefaultSetpoint     = 50.0
)

type Config struct {
	Dt             float64          `yaml:"dt"`
	Duration       float64          `yaml:"duration"`
	TickIntervalMs int              `yaml:"tick_interval_ms"`
	Speed          float64          `yaml:"speed"`
	HistorySize    int              `yaml:"history_size"`
	Seed           int64            `yaml:"seed"`
	Setpoint       float64          `yaml:"setpoint"`
	RampRate       float64          `yaml:"ramp_rate"`
	Controller     ControllerConfig `yaml:"controller"`
	Plant          PlantConfig      `yaml:"plant"`
}

type ControllerConfig struct {
	Kp           float64 `yaml:"kp"`
	Ti           float64 `yaml:"ti"`
	Td           float64 `yaml:"td"`
	OutputMin    float64 `yaml:"output_min"`
	OutputMax    float64 `yaml:"output_max"`
	Algorithm    string  `yaml:"algorithm"`
	Mode         string  `yaml:"mode"`
	ManualOutput float64 `yaml:"manual_output"`
	AntiWindup   string  `yaml:"anti_windup"`
	WindupLimit  float64 `yaml:"windup_limit"`
	TrackingGain float64 `yaml:"tracking_gain"`
	SetpointMin  float64 `yaml:"setpoint_min"`
	SetpointMax  float64 `yaml:"setpoint_max"`
}

type PlantConfig struct {
	Gain           float64 `yaml:"gain"`
	TimeConstant   float64 `yaml:"time_constant"`
	DeadTime       float64 `yaml:"dead_time"`
	DisturbanceAmp float64 `yaml:"disturbance_amp"`
	NoiseAmp       float64 `yaml:"noise_amp"`
}

func DefaultConfig() *Config {
	ctrl := controller.DefaultParams()
	pl := plant.DefaultParams()
	return &Config{
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		TickIntervalMs: DefaultTickInterval,
		Speed:          1.0,
		HistorySize:    DefaultHistorySize,
		Seed:           1,
		Setpoint:       DefaultSetpoint,
		RampRate:       0,
		Controller: ControllerConfig{
			Kp:           ctrl.Kp,
			Ti:           ctrl.Ti,
			Td:           ctrl.Td,
			OutputMin:    ctrl.OutputMin,
			OutputMax:    ctrl.OutputMax,
			Algorithm:    string(ctrl.Algorithm),
			Mode:         string(ctrl.Mode),
			ManualOutput: ctrl.ManualOutput,
			AntiWindup:   string(ctrl.AntiWindup),
			WindupLimit:  ctrl.WindupLimit,
			TrackingGain: ctrl.TrackingGain,
			SetpointMin:  ctrl.SetpointMin,
			SetpointMax:  ctrl.SetpointMax,
		},
		Plant: PlantConfig{
			Gain:           pl.Gain,
			TimeConstant:   pl.TimeConstant,
			DeadTime:       pl.DeadTime,
			DisturbanceAmp: pl.DisturbanceAmp,
			NoiseAmp:       pl.NoiseAmp,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EngineConfig converts the file representation into an engine configuration.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Dt:           c.Dt,
		TickInterval: time.Duration(c.TickIntervalMs) * time.Millisecond,
		Speed:        c.Speed,
		HistorySize:  c.HistorySize,
		Setpoint:     c.Setpoint,
		RampRate:     c.RampRate,
		Seed:         c.Seed,
		Controller: controller.Params{
			Kp:           c.Controller.Kp,
			Ti:           c.Controller.Ti,
			Td:           c.Controller.Td,
			OutputMin:    c.Controller.OutputMin,
			OutputMax:    c.Controller.OutputMax,
			Algorithm:    controller.Algorithm(c.Controller.Algorithm),
			Mode:         controller.Mode(c.Controller.Mode),
			ManualOutput: c.Controller.ManualOutput,
			AntiWindup:   controller.AntiWindup(c.Controller.AntiWindup),
			WindupLimit:  c.Controller.WindupLimit,
			TrackingGain: c.Controller.TrackingGain,
			SetpointMin:  c.Controller.SetpointMin,
			SetpointMax:  c.Controller.SetpointMax,
		},
		Plant: plant.Params{
			Gain:           c.Plant.Gain,
			TimeConstant:   c.Plant.TimeConstant,
			DeadTime:       c.Plant.DeadTime,
			DisturbanceAmp: c.Plant.DisturbanceAmp,
			NoiseAmp:       c.Plant.NoiseAmp,
		},
	}
}
