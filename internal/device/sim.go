package device

import (
	"errors"
	"log/slog"
	"sync"
)

// errInjected backs scripted fault injection in the simulated doubles.
var errInjected = errors.New("injected fault")

// simBase carries the pieces every simulated device shares: a name for
// logging and a scripted fault counter. While FailNext is positive, each
// driver call consumes one count and reports a transient fault, which is
// how tests exercise the executioner retry path.
type simBase struct {
	mu       sync.Mutex
	Name     string
	FailNext int
}

// fault consumes one scripted failure, if any remain.
func (b *simBase) fault(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNext > 0 {
		b.FailNext--
		return &Fault{Device: b.Name, Op: op, Transient: true, Err: errInjected}
	}
	slog.Debug("sim device call", "device", b.Name, "op", op)
	return nil
}

// SimPump is the simulated double for a syringe pump. It tracks plunger
// position so tests can assert on aspirate/dispense sequencing.
type SimPump struct {
	simBase
	Position float64 // current plunger fill in mL
	Moves    []float64
}

func NewSimPump(name string) *SimPump { return &SimPump{simBase: simBase{Name: name}} }

func (p *SimPump) MoveAbsolute(volume, speed float64) error {
	if err := p.fault("move_absolute"); err != nil {
		return err
	}
	p.Position = volume
	p.Moves = append(p.Moves, volume)
	return nil
}

func (p *SimPump) MoveToHome(speed float64) error {
	if err := p.fault("move_to_home"); err != nil {
		return err
	}
	p.Position = 0
	p.Moves = append(p.Moves, 0)
	return nil
}

func (p *SimPump) WaitUntilReady() error { return nil }

// SimValve is the simulated double for a selection valve.
type SimValve struct {
	simBase
	Position  int
	Positions []int
}

func NewSimValve(name string) *SimValve { return &SimValve{simBase: simBase{Name: name}} }

func (v *SimValve) MoveToPosition(port int) error {
	if err := v.fault("move_to_position"); err != nil {
		return err
	}
	v.Position = port
	v.Positions = append(v.Positions, port)
	return nil
}

func (v *SimValve) MoveHome() error {
	if err := v.fault("move_home"); err != nil {
		return err
	}
	v.Position = 0
	return nil
}

func (v *SimValve) WaitUntilReady() error { return nil }

// SimStirrer is the simulated double for a hotplate stirrer. By default
// the process value converges instantly: Temperature reports the
// setpoint. Tests that need a stuck or lagging plate set Hold and drive
// PV themselves.
type SimStirrer struct {
	simBase
	Stirring bool
	Heating  bool
	Setpoint float64
	Rate     int

	Hold bool
	PV   float64
}

func NewSimStirrer(name string) *SimStirrer { return &SimStirrer{simBase: simBase{Name: name}} }

func (s *SimStirrer) StartStirrer() error {
	if err := s.fault("start_stirrer"); err != nil {
		return err
	}
	s.Stirring = true
	return nil
}

func (s *SimStirrer) StopStirrer() error {
	if err := s.fault("stop_stirrer"); err != nil {
		return err
	}
	s.Stirring = false
	return nil
}

func (s *SimStirrer) StartHeater() error {
	if err := s.fault("start_heater"); err != nil {
		return err
	}
	s.Heating = true
	return nil
}

func (s *SimStirrer) StopHeater() error {
	if err := s.fault("stop_heater"); err != nil {
		return err
	}
	s.Heating = false
	return nil
}

func (s *SimStirrer) SetTempSetpoint(celsius float64) error {
	if err := s.fault("set_temp"); err != nil {
		return err
	}
	s.Setpoint = celsius
	return nil
}

func (s *SimStirrer) SetStirRate(rpm int) error {
	if err := s.fault("set_stir_rate"); err != nil {
		return err
	}
	s.Rate = rpm
	return nil
}

func (s *SimStirrer) TempSetpoint() (float64, error) { return s.Setpoint, nil }

func (s *SimStirrer) Temperature() (float64, error) {
	if s.Hold {
		return s.PV, nil
	}
	return s.Setpoint, nil
}

// SimRotavap is the simulated double for a rotary evaporator.
type SimRotavap struct {
	simBase
	Heating  bool
	Rotating bool
	ArmUp    bool
	Setpoint float64
	RPM      int
	Interval int

	Hold bool
	PV   float64
}

func NewSimRotavap(name string) *SimRotavap { return &SimRotavap{simBase: simBase{Name: name}} }

func (r *SimRotavap) Initialise() error {
	if err := r.fault("initialise"); err != nil {
		return err
	}
	r.Heating = false
	r.Rotating = false
	r.ArmUp = false
	r.Setpoint = 0
	r.RPM = 0
	return nil
}

func (r *SimRotavap) StartHeater() error {
	if err := r.fault("start_heater"); err != nil {
		return err
	}
	r.Heating = true
	return nil
}

func (r *SimRotavap) StopHeater() error {
	if err := r.fault("stop_heater"); err != nil {
		return err
	}
	r.Heating = false
	return nil
}

func (r *SimRotavap) StartRotation() error {
	if err := r.fault("start_rotation"); err != nil {
		return err
	}
	r.Rotating = true
	return nil
}

func (r *SimRotavap) StopRotation() error {
	if err := r.fault("stop_rotation"); err != nil {
		return err
	}
	r.Rotating = false
	return nil
}

func (r *SimRotavap) LiftUp() error {
	if err := r.fault("lift_up"); err != nil {
		return err
	}
	r.ArmUp = true
	return nil
}

func (r *SimRotavap) LiftDown() error {
	if err := r.fault("lift_down"); err != nil {
		return err
	}
	r.ArmUp = false
	return nil
}

func (r *SimRotavap) SetTempSetpoint(celsius float64) error {
	if err := r.fault("set_temp"); err != nil {
		return err
	}
	r.Setpoint = celsius
	return nil
}

func (r *SimRotavap) SetRotationSetpoint(rpm int) error {
	if err := r.fault("set_rotation"); err != nil {
		return err
	}
	r.RPM = rpm
	return nil
}

func (r *SimRotavap) SetInterval(seconds int) error {
	if err := r.fault("set_interval"); err != nil {
		return err
	}
	r.Interval = seconds
	return nil
}

func (r *SimRotavap) TempSetpoint() (float64, error) { return r.Setpoint, nil }

func (r *SimRotavap) Temperature() (float64, error) {
	if r.Hold {
		return r.PV, nil
	}
	return r.Setpoint, nil
}

// SimChiller is the simulated double for a recirculation chiller.
type SimChiller struct {
	simBase
	Running  bool
	Setpoint float64

	Hold bool
	PV   float64
}

func NewSimChiller(name string) *SimChiller { return &SimChiller{simBase: simBase{Name: name}} }

func (c *SimChiller) Start() error {
	if err := c.fault("start"); err != nil {
		return err
	}
	c.Running = true
	return nil
}

func (c *SimChiller) Stop() error {
	if err := c.fault("stop"); err != nil {
		return err
	}
	c.Running = false
	return nil
}

func (c *SimChiller) SetTempSetpoint(celsius float64) error {
	if err := c.fault("set_temp"); err != nil {
		return err
	}
	c.Setpoint = celsius
	return nil
}

func (c *SimChiller) Ramp(seconds int, celsius float64) error {
	if err := c.fault("ramp"); err != nil {
		return err
	}
	c.Setpoint = celsius
	return nil
}

func (c *SimChiller) TempSetpoint() (float64, error) { return c.Setpoint, nil }

func (c *SimChiller) Temperature() (float64, error) {
	if c.Hold {
		return c.PV, nil
	}
	return c.Setpoint, nil
}

// SimVacuum is the simulated double for a vacuum pump.
type SimVacuum struct {
	simBase
	Running  bool
	Setpoint int
}

func NewSimVacuum(name string) *SimVacuum { return &SimVacuum{simBase: simBase{Name: name}} }

func (v *SimVacuum) Initialise() error {
	if err := v.fault("initialise"); err != nil {
		return err
	}
	v.Running = false
	v.Setpoint = 0
	return nil
}

func (v *SimVacuum) SetVacuumSetpoint(mbar int) error {
	if err := v.fault("set_vacuum_sp"); err != nil {
		return err
	}
	v.Setpoint = mbar
	return nil
}

func (v *SimVacuum) Start() error {
	if err := v.fault("start"); err != nil {
		return err
	}
	v.Running = true
	return nil
}

func (v *SimVacuum) Stop() error {
	if err := v.fault("stop"); err != nil {
		return err
	}
	v.Running = false
	return nil
}

func (v *SimVacuum) Vent() error {
	if err := v.fault("vent"); err != nil {
		return err
	}
	v.Running = false
	return nil
}
