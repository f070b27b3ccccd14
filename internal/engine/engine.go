package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/oveklev/pidsim/internal/controller"
	"github.com/oveklev/pidsim/internal/plant"
)

type RunState string

const (
	StateStopped RunState = "stopped"
	StateRunning RunState = "running"
	StatePaused  RunState = "paused"
)

const (
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

type Config struct {
	Dt           float64
	TickInterval time.Duration
	Speed        float64
	HistorySize  int
	Setpoint     float64
	RampRate     float64
	Seed         int64
	Controller   controller.Params
	Plant        plant.Params
}

func DefaultConfig() Config {
	return Config{
		Dt:           0.1,
		TickInterval: 100 * time.Millisecond,
		Speed:        1.0,
		HistorySize:  10000,
		Setpoint:     50.0,
		RampRate:     0.0,
		Seed:         1,
		Controller:   controller.DefaultParams(),
		Plant:        plant.DefaultParams(),
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("history size must be at least 1, got %d", c.HistorySize)
	}
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	if err := c.Plant.Validate(); err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	return nil
}

// Status is an immutable snapshot of the engine for observers.
type Status struct {
	State          RunState
	Running        bool
	Paused         bool
	Time           float64
	Setpoint       float64
	TargetSetpoint float64
	Speed          float64
	Controller     controller.Params
	Plant          plant.Params
	Latest         *Sample
	SampleCount    int
}

// Engine orchestrates one control law and one plant model: it advances
// simulated time in fixed steps, ramps the setpoint toward its target, records
// bounded history and maintains performance metrics. The engine performs all
// mutation synchronously inside Tick, which the host scheduler invokes at a
// fixed cadence; any scheduling discipline (timer, test clock, plain loop)
// drives it identically.
type Engine struct {
	cfg     Config
	ctrl    *controller.PID
	plant   *plant.Model
	history *History
	metrics *Metrics

	state    RunState
	t        float64
	setpoint float64
	target   float64
	rampRate float64
	speed    float64

	onData     func([]Sample)
	onRunState func(bool)
	onError    func(error)
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctrl, err := controller.New(cfg.Controller, cfg.Dt)
	if err != nil {
		return nil, err
	}
	pl, err := plant.New(cfg.Plant, cfg.Dt, cfg.Seed)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		ctrl:    ctrl,
		plant:   pl,
		history: NewHistory(cfg.HistorySize),
		metrics: NewMetrics(),
		state:   StateStopped,
	}
	e.initialize()
	return e, nil
}

// initialize restores the freshly-constructed state: time zero, empty history,
// plant seeded at the target setpoint and controller output aligned to the
// plant's steady-state input so the loop starts at equilibrium.
func (e *Engine) initialize() {
	e.t = 0
	e.speed = clampSpeed(e.cfg.Speed)
	e.target = e.clampSetpoint(e.cfg.Setpoint)
	e.setpoint = e.target
	e.rampRate = e.cfg.RampRate

	e.plant.Reset()
	e.plant.SetInitialOutput(e.target)
	e.ctrl.Reset()
	e.ctrl.AlignOutput(e.target / e.plant.Params().Gain)

	e.history.Reset()
	e.metrics.Reset()
}

// Lifecycle.

func (e *Engine) Start() {
	if e.state == StateRunning {
		return
	}
	if e.history.Len() == 0 {
		e.t = 0
		e.recordInitialSample()
	}
	e.setState(StateRunning)
}

func (e *Engine) Pause() {
	if e.state == StateRunning {
		e.setState(StatePaused)
	}
}

func (e *Engine) Resume() {
	if e.state == StatePaused {
		e.setState(StateRunning)
	}
}

func (e *Engine) Stop() {
	if e.state != StateStopped {
		e.setState(StateStopped)
	}
}

// Reset returns to time zero with cleared history and sub-component state,
// then resumes running if the engine was running before.
func (e *Engine) Reset() {
	wasRunning := e.state == StateRunning
	if e.state != StateStopped {
		e.setState(StateStopped)
	}
	e.initialize()
	if wasRunning {
		e.Start()
	}
}

// Tick executes one host-scheduler callback worth of simulation. It is a
// no-op unless the engine is running, so a tick already in flight when Stop
// was called cannot mutate state. A step failure stops the run, reports once
// through the error callback and keeps the last good sample authoritative.
func (e *Engine) Tick() {
	if e.state != StateRunning {
		return
	}
	for i := 0; i < e.stepsPerTick(); i++ {
		if err := e.step(); err != nil {
			e.setState(StateStopped)
			if e.onError != nil {
				e.onError(err)
			}
			return
		}
	}
	if e.onData != nil {
		e.onData(e.history.Snapshot())
	}
}

func (e *Engine) stepsPerTick() int {
	n := int(math.Round(e.cfg.TickInterval.Seconds() * e.speed / e.cfg.Dt))
	if n < 1 {
		n = 1
	}
	return n
}

func (e *Engine) step() error {
	e.advanceSetpoint()

	out := e.ctrl.Calculate(e.setpoint, e.plant.Output())
	pv := e.plant.Calculate(out)

	if !isFinite(out) || !isFinite(pv) {
		return fmt.Errorf("simulation diverged at t=%.4f (output=%f, value=%f)", e.t, out, pv)
	}

	e.t += e.cfg.Dt
	s := Sample{
		Time:        e.t,
		Setpoint:    e.setpoint,
		Value:       pv,
		Output:      out,
		Error:       e.setpoint - pv,
		Disturbance: e.plant.Disturbance(),
	}
	e.history.Push(s)
	e.metrics.Observe(s, e.cfg.Dt)
	return nil
}

func (e *Engine) advanceSetpoint() {
	if e.setpoint == e.target {
		return
	}
	if e.rampRate <= 0 {
		e.setpoint = e.target
		return
	}
	step := e.rampRate * e.cfg.Dt * e.speed
	if e.target > e.setpoint {
		e.setpoint = math.Min(e.setpoint+step, e.target)
	} else {
		e.setpoint = math.Max(e.setpoint-step, e.target)
	}
}

func (e *Engine) recordInitialSample() {
	s := Sample{
		Time:        0,
		Setpoint:    e.setpoint,
		Value:       e.plant.Output(),
		Output:      e.ctrl.Output(),
		Error:       e.setpoint - e.plant.Output(),
		Disturbance: e.plant.Disturbance(),
	}
	e.history.Push(s)
	e.metrics.Observe(s, e.cfg.Dt)
}

// Configuration.

// SetSetpoint sets the ramp target, clamped to the configured setpoint
// bounds. A zero ramp rate snaps the active setpoint immediately.
// SetSetpoint retargets the loop. The clamped target is persisted into the
// configuration so a later Reset reseeds the plant at the current target, not
// the construction-time one.
func (e *Engine) SetSetpoint(value, rampRate float64) {
	e.target = e.clampSetpoint(value)
	e.rampRate = rampRate
	e.cfg.Setpoint = e.target
	e.cfg.RampRate = rampRate
	if rampRate <= 0 {
		e.setpoint = e.target
	}
}

func (e *Engine) SetControlMode(mode controller.Mode) {
	e.ctrl.SetMode(mode)
}

func (e *Engine) SetSimulationSpeed(multiplier float64) {
	e.speed = clampSpeed(multiplier)
}

// ApplyStepDisturbance shifts the plant's internal state by the given
// magnitude, modeling an external shock.
func (e *Engine) ApplyStepDisturbance(magnitude float64) {
	e.plant.SetInitialOutput(e.plant.Internal() + magnitude)
}

func (e *Engine) UpdateControllerParams(p controller.Params) error {
	if err := e.ctrl.UpdateParams(p); err != nil {
		return err
	}
	e.cfg.Controller = p
	return nil
}

func (e *Engine) UpdatePlantParams(p plant.Params) error {
	if err := e.plant.UpdateParams(p); err != nil {
		return err
	}
	e.cfg.Plant = p
	return nil
}

// Observation.

func (e *Engine) Status() Status {
	st := Status{
		State:          e.state,
		Running:        e.state == StateRunning,
		Paused:         e.state == StatePaused,
		Time:           e.t,
		Setpoint:       e.setpoint,
		TargetSetpoint: e.target,
		Speed:          e.speed,
		Controller:     e.ctrl.Params(),
		Plant:          e.plant.Params(),
		SampleCount:    e.history.Len(),
	}
	if s, ok := e.history.Latest(); ok {
		latest := s
		st.Latest = &latest
	}
	return st
}

func (e *Engine) History() []Sample { return e.history.Snapshot() }

func (e *Engine) LatestSample() (Sample, bool) { return e.history.Latest() }

func (e *Engine) Metrics() Report { return e.metrics.Report(e.history) }

func (e *Engine) Time() float64 { return e.t }

func (e *Engine) Speed() float64 { return e.speed }

func (e *Engine) RampRate() float64 { return e.rampRate }

func (e *Engine) TickInterval() time.Duration { return e.cfg.TickInterval }

// Notification callbacks, invoked synchronously from within a tick.

func (e *Engine) OnData(f func([]Sample)) { e.onData = f }
func (e *Engine) OnRunState(f func(bool)) { e.onRunState = f }
func (e *Engine) OnError(f func(error))   { e.onError = f }

func (e *Engine) setState(s RunState) {
	wasRunning := e.state == StateRunning
	e.state = s
	running := s == StateRunning
	if running != wasRunning && e.onRunState != nil {
		e.onRunState(running)
	}
}

func (e *Engine) clampSetpoint(v float64) float64 {
	p := e.cfg.Controller
	if e.ctrl != nil {
		p = e.ctrl.Params()
	}
	if v < p.SetpointMin {
		return p.SetpointMin
	}
	if v > p.SetpointMax {
		return p.SetpointMax
	}
	return v
}

func clampSpeed(v float64) float64 {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
