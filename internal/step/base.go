package step

import (
	"fmt"
	"strings"

	"github.com/kingrea/seqsteps/internal/command"
	"github.com/kingrea/seqsteps/internal/datastore"
)

// Base provides common plumbing for steps (identity, params, slot contracts).
type Base struct {
	info    Info
	params  *Params
	inputs  []datastore.Slot
	outputs []datastore.Slot
}

// NewBase seeds the helper with step info and the instance params.
func NewBase(info Info, params *Params) Base {
	if params == nil {
		params = &Params{}
	}
	return Base{info: info, params: params}
}

// SetInputs declares the slots the step may read.
func (b *Base) SetInputs(slots ...datastore.Slot) {
	b.inputs = append([]datastore.Slot{}, slots...)
}

// SetOutputs declares the slots the step may register.
func (b *Base) SetOutputs(slots ...datastore.Slot) {
	b.outputs = append([]datastore.Slot{}, slots...)
}

// Info implements Step.Info.
func (b *Base) Info() Info {
	return b.info
}

// Inputs implements Step.Inputs.
func (b *Base) Inputs() []datastore.Slot {
	return append([]datastore.Slot{}, b.inputs...)
}

// Outputs implements Step.Outputs.
func (b *Base) Outputs() []datastore.Slot {
	return append([]datastore.Slot{}, b.outputs...)
}

// Params returns the instance params.
func (b *Base) Params() *Params {
	return b.params
}

// Name returns the instance name.
func (b *Base) Name() string {
	return b.params.Name
}

// Preliminary implements Step.Preliminary with nothing to run.
func (b *Base) Preliminary(*Context) (*Script, error) {
	return nil, nil
}

// WrapUp implements Step.WrapUp with nothing to run.
func (b *Base) WrapUp(*Context) (*Script, error) {
	return nil, nil
}

// ScriptConst returns the constant invocation prefix: the tool path followed
// by every redirected flag in file order.
func (b *Base) ScriptConst() *command.Command {
	cmd := command.New(b.params.ScriptPath)
	for _, red := range b.params.Redirects.Entries() {
		cmd.Flag(red.Flag, red.Value())
	}
	return cmd
}

// ScriptName returns the unique script name for a unit label.
func (b *Base) ScriptName(label string) string {
	return strings.Join([]string{b.info.ID, b.params.Name, label}, "_")
}

// NewScript starts a unit script staged for dir.
func (b *Base) NewScript(ctx *Context, unit, dir string) *Script {
	useDir, setup := ctx.Stager.Start(dir)
	return &Script{
		Name:  b.ScriptName(ctx.UnitLabel(unit)),
		Unit:  unit,
		Dir:   useDir,
		Setup: setup,
	}
}

// FinishScript appends the stager's reconciliation lines.
func (b *Base) FinishScript(ctx *Context, script *Script, dir string) {
	script.Epilogue = append(script.Epilogue, ctx.Stager.Finish(script.Dir, dir)...)
}

// Fail builds a step error for this instance.
func (b *Base) Fail(format string, args ...any) error {
	return Errorf(b.params.Name, format, args...)
}

// FailSample builds a step error naming a sample.
func (b *Base) FailSample(sample, format string, args ...any) error {
	return SampleErrorf(b.params.Name, sample, format, args...)
}

// Commit writes the registrations collected while building every unit.
// Nothing is written unless all of them are valid.
func (b *Base) Commit(ctx *Context, regs []datastore.Registration) error {
	if err := ctx.Store.SetAll(regs); err != nil {
		return fmt.Errorf("%s: register outputs: %w", b.params.Name, err)
	}
	return nil
}

// Register writes a slot for a unit, wrapping store failures.
func (b *Base) Register(ctx *Context, unit string, slot datastore.Slot, value string) error {
	if err := ctx.Store.Set(unit, slot, value); err != nil {
		return fmt.Errorf("%s: register %s: %w", b.params.Name, slot, err)
	}
	return nil
}
