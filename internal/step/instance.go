package step

import (
	"fmt"

	"github.com/kingrea/seqsteps/internal/logbook"
)

// Phase is a lifecycle state of a step instance.
type Phase int

const (
	PhaseUnconfigured Phase = iota
	PhaseValidated
	PhaseResolved
	PhasePreliminary
	PhaseBuilt
	PhaseFinalized
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnconfigured:
		return "unconfigured"
	case PhaseValidated:
		return "validated"
	case PhaseResolved:
		return "resolved"
	case PhasePreliminary:
		return "preliminary-run"
	case PhaseBuilt:
		return "built"
	case PhaseFinalized:
		return "finalized"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Instance walks one step through
// Unconfigured -> Validated -> Resolved -> (PreliminaryRun) -> Built -> Finalized.
// Any error moves it to Failed and no further stage may run.
type Instance struct {
	step   Step
	ctx    *Context
	phase  Phase
	mark   int
	result Result
}

// NewInstance binds a step to its context.
func NewInstance(s Step, ctx *Context) *Instance {
	return &Instance{step: s, ctx: ctx}
}

// Phase returns the current lifecycle state.
func (in *Instance) Phase() Phase {
	return in.phase
}

// Step returns the wrapped step.
func (in *Instance) Step() Step {
	return in.step
}

// Validate runs the parameter validator.
func (in *Instance) Validate() error {
	if err := in.expect(PhaseUnconfigured); err != nil {
		return err
	}
	if err := in.ctx.validate(); err != nil {
		return in.fail(err)
	}
	in.mark = in.ctx.Store.Mark()
	if err := in.step.Configure(in.ctx); err != nil {
		return in.fail(err)
	}
	in.phase = PhaseValidated
	return nil
}

// Resolve checks upstream slots once, before any script is built.
func (in *Instance) Resolve() error {
	if err := in.expect(PhaseValidated); err != nil {
		return err
	}
	if err := in.step.Resolve(in.ctx); err != nil {
		return in.fail(err)
	}
	in.phase = PhaseResolved
	return nil
}

// Preliminary runs the optional preliminary stage.
func (in *Instance) Preliminary() error {
	if err := in.expect(PhaseResolved); err != nil {
		return err
	}
	script, err := in.step.Preliminary(in.ctx)
	if err != nil {
		return in.fail(err)
	}
	in.result.Preliminary = script
	in.phase = PhasePreliminary
	return nil
}

// Build emits one script per scope unit.
func (in *Instance) Build() error {
	if err := in.expect(PhaseResolved, PhasePreliminary); err != nil {
		return err
	}
	scripts, err := in.step.BuildScripts(in.ctx)
	if err != nil {
		return in.fail(err)
	}
	seen := map[string]struct{}{}
	if in.result.Preliminary != nil {
		seen[in.result.Preliminary.Name] = struct{}{}
	}
	for _, script := range scripts {
		if _, dup := seen[script.Name]; dup {
			return in.fail(Errorf(in.ctx.Instance, "duplicate script name %s", script.Name))
		}
		seen[script.Name] = struct{}{}
	}
	in.result.Scripts = scripts
	in.phase = PhaseBuilt
	return nil
}

// Finalize runs the wrap-up stage and returns the collected result.
func (in *Instance) Finalize() (Result, error) {
	if err := in.expect(PhaseBuilt); err != nil {
		return Result{}, err
	}
	script, err := in.step.WrapUp(in.ctx)
	if err != nil {
		return Result{}, in.fail(err)
	}
	in.result.WrapUp = script
	in.result.Instance = in.ctx.Instance
	in.result.Module = in.step.Info().ID
	in.result.Warnings = in.ctx.Warnings()
	in.result.Registered = in.ctx.Store.WritesSince(in.mark)
	in.phase = PhaseFinalized
	in.ctx.Logbook.Step(logbook.LevelInfo, in.ctx.Instance, "built %d script(s), registered %d slot(s)",
		len(in.result.AllScripts()), len(in.result.Registered))
	return in.result, nil
}

// Run drives every stage in order.
func (in *Instance) Run() (Result, error) {
	stages := []func() error{in.Validate, in.Resolve, in.Preliminary, in.Build}
	for _, stage := range stages {
		if err := stage(); err != nil {
			return Result{}, err
		}
	}
	return in.Finalize()
}

func (in *Instance) expect(allowed ...Phase) error {
	for _, phase := range allowed {
		if in.phase == phase {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s", ErrOutOfOrder, in.name(), in.phase)
}

func (in *Instance) name() string {
	if in.ctx == nil {
		return "step"
	}
	return in.ctx.Instance
}

func (in *Instance) fail(err error) error {
	in.phase = PhaseFailed
	if in.ctx != nil {
		in.ctx.Logbook.Step(logbook.LevelError, in.ctx.Instance, "%v", err)
	}
	return err
}
