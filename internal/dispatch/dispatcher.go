package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/rig"
)

// Config bounds the dispatcher's timing behavior. Zero values are
// replaced by the defaults below at construction.
type Config struct {
	// TempTolerance is the band around a setpoint within which a
	// WAIT-for-temperature command counts as satisfied, in Celsius.
	TempTolerance float64
	// PollInterval is how often WAIT-family commands sample the device.
	PollInterval time.Duration
	// WaitTimeout bounds how long a WAIT-family command may poll before
	// failing with Timeout. The deadline instant itself still succeeds.
	WaitTimeout time.Duration
	// EquilibrationPause is the settle time between aspirating into a
	// syringe and switching the valve toward the destination.
	EquilibrationPause time.Duration
	// PrimeVolume is how much each syringe draws on PRIME, in mL.
	PrimeVolume float64
}

// DefaultConfig reflects how patient the rig is with real hardware.
var DefaultConfig = Config{
	TempTolerance:      0.5,
	PollInterval:       time.Second,
	WaitTimeout:        30 * time.Minute,
	EquilibrationPause: time.Second,
	PrimeVolume:        2,
}

// CommitFunc persists one committed command: the zero-based index that
// just completed and the device-state snapshot taken after it. A commit
// failure is fatal to the run; execution never outpaces the log.
type CommitFunc func(index int, cmd chasm.Command, snap rig.Snapshot) error

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock substitutes the wall clock, for deterministic wait tests.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithConfig replaces the default timing configuration.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) { d.cfg = applyDefaults(cfg) }
}

// WithCommit installs the checkpoint sink called after every committed
// command. Without one, progress is not persisted.
func WithCommit(fn CommitFunc) Option {
	return func(d *Dispatcher) { d.commit = fn }
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig
	if cfg.TempTolerance == 0 {
		cfg.TempTolerance = def.TempTolerance
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = def.WaitTimeout
	}
	if cfg.EquilibrationPause == 0 {
		cfg.EquilibrationPause = def.EquilibrationPause
	}
	if cfg.PrimeVolume == 0 {
		cfg.PrimeVolume = def.PrimeVolume
	}
	return cfg
}

// Dispatcher steps through a command sequence in file order, one command
// at a time. A command never starts before the previous one commits.
type Dispatcher struct {
	rig    *rig.Rig
	cfg    Config
	clock  Clock
	commit CommitFunc
}

func New(r *rig.Rig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rig:   r,
		cfg:   DefaultConfig,
		clock: WallClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes cmds starting at index start (0 for a fresh run, the
// first uncommitted index for a resume). On any failure the run halts
// with the last committed command still durable; the returned error
// carries the failing command's line number.
func (d *Dispatcher) Run(ctx context.Context, cmds []chasm.Command, start int) error {
	if start < 0 || start > len(cmds) {
		return fmt.Errorf("start index %d out of range [0, %d]", start, len(cmds))
	}
	for i := start; i < len(cmds); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd := cmds[i]
		slog.Info("executing command", "index", i, "line", cmd.Line, "cmd", cmd.String())
		if err := d.execute(ctx, cmd); err != nil {
			return &CommandError{Index: i, Line: cmd.Line, Cmd: cmd.String(), Err: err}
		}
		if d.commit != nil {
			if err := d.commit(i, cmd, d.rig.Snapshot()); err != nil {
				return &CommandError{Index: i, Line: cmd.Line, Cmd: cmd.String(), Err: fmt.Errorf("commit checkpoint: %w", err)}
			}
		}
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, cmd chasm.Command) error {
	switch cmd.Verb {
	case chasm.VerbMove:
		return d.move(ctx, cmd)
	case chasm.VerbHome:
		return d.home(ctx, cmd)
	case chasm.VerbSeparate:
		return d.separate(ctx, cmd)
	case chasm.VerbPrime:
		return d.prime(ctx, cmd)

	case chasm.VerbWait:
		return d.clock.Sleep(ctx, time.Duration(cmd.Int(0))*time.Second)

	case chasm.VerbStartStir, chasm.VerbStartHeat, chasm.VerbStopStir,
		chasm.VerbStopHeat, chasm.VerbSetTemp, chasm.VerbSetStirRPM,
		chasm.VerbStirrerWaitForTemp:
		return d.stirrer(ctx, cmd)

	case chasm.VerbStartHeaterBath, chasm.VerbStopHeaterBath,
		chasm.VerbStartRotation, chasm.VerbStopRotation,
		chasm.VerbLiftArmUp, chasm.VerbLiftArmDown, chasm.VerbResetRotavap,
		chasm.VerbSetBathTemp, chasm.VerbSetRotation,
		chasm.VerbRVWaitForTemp, chasm.VerbSetInterval:
		return d.rotavap(ctx, cmd)

	case chasm.VerbInitVacPump, chasm.VerbSetVacSP, chasm.VerbStartVac,
		chasm.VerbStopVac, chasm.VerbVentVac:
		return d.vacuum(ctx, cmd)

	case chasm.VerbStartChiller, chasm.VerbStopChiller, chasm.VerbSetChiller,
		chasm.VerbChillerWaitForTemp, chasm.VerbRampChiller:
		return d.chiller(ctx, cmd)
	}
	return fmt.Errorf("verb %s has no dispatch rule", cmd.Verb)
}

func (d *Dispatcher) stirrer(ctx context.Context, cmd chasm.Command) error {
	s, err := d.rig.Stirrer(cmd.Node(0))
	if err != nil {
		return err
	}
	switch cmd.Verb {
	case chasm.VerbStartStir:
		return s.Stir(ctx)
	case chasm.VerbStopStir:
		return s.StopStir(ctx)
	case chasm.VerbStartHeat:
		return s.Heat(ctx)
	case chasm.VerbStopHeat:
		return s.StopHeat(ctx)
	case chasm.VerbSetTemp:
		return s.SetTemp(ctx, cmd.Float(1))
	case chasm.VerbSetStirRPM:
		return s.SetRPM(ctx, cmd.Int(1))
	case chasm.VerbStirrerWaitForTemp:
		return d.waitForTemp(ctx, cmd.Node(0), s.Setpoint, s.Temperature)
	}
	return fmt.Errorf("verb %s has no stirrer rule", cmd.Verb)
}

func (d *Dispatcher) rotavap(ctx context.Context, cmd chasm.Command) error {
	r, err := d.rig.Rotavap(cmd.Node(0))
	if err != nil {
		return err
	}
	switch cmd.Verb {
	case chasm.VerbStartHeaterBath:
		return r.Heat(ctx)
	case chasm.VerbStopHeaterBath:
		return r.StopHeat(ctx)
	case chasm.VerbStartRotation:
		return r.StartRotation(ctx)
	case chasm.VerbStopRotation:
		return r.StopRotation(ctx)
	case chasm.VerbLiftArmUp:
		return r.LiftUp(ctx)
	case chasm.VerbLiftArmDown:
		return r.LiftDown(ctx)
	case chasm.VerbResetRotavap:
		return r.Init(ctx)
	case chasm.VerbSetBathTemp:
		return r.SetTemp(ctx, cmd.Float(1))
	case chasm.VerbSetRotation:
		return r.SetRPM(ctx, cmd.Int(1))
	case chasm.VerbSetInterval:
		return r.SetInterval(ctx, cmd.Int(1))
	case chasm.VerbRVWaitForTemp:
		return d.waitForTemp(ctx, cmd.Node(0), r.Setpoint, r.Temperature)
	}
	return fmt.Errorf("verb %s has no rotavap rule", cmd.Verb)
}

func (d *Dispatcher) vacuum(ctx context.Context, cmd chasm.Command) error {
	v, err := d.rig.Vacuum(cmd.Node(0))
	if err != nil {
		return err
	}
	switch cmd.Verb {
	case chasm.VerbInitVacPump:
		return v.Init(ctx)
	case chasm.VerbSetVacSP:
		return v.SetSetpoint(ctx, cmd.Int(1))
	case chasm.VerbStartVac:
		return v.Start(ctx)
	case chasm.VerbStopVac:
		return v.Stop(ctx)
	case chasm.VerbVentVac:
		return v.Vent(ctx)
	}
	return fmt.Errorf("verb %s has no vacuum rule", cmd.Verb)
}

func (d *Dispatcher) chiller(ctx context.Context, cmd chasm.Command) error {
	c, err := d.rig.Chiller(cmd.Node(0))
	if err != nil {
		return err
	}
	switch cmd.Verb {
	case chasm.VerbStartChiller:
		return c.Start(ctx)
	case chasm.VerbStopChiller:
		return c.Stop(ctx)
	case chasm.VerbSetChiller:
		return c.SetTemp(ctx, cmd.Float(1))
	case chasm.VerbRampChiller:
		return c.Ramp(ctx, cmd.Int(1), cmd.Float(2))
	case chasm.VerbChillerWaitForTemp:
		return d.waitForTemp(ctx, cmd.Node(0), c.Setpoint, c.Temperature)
	}
	return fmt.Errorf("verb %s has no chiller rule", cmd.Verb)
}
