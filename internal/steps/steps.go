package steps

import (
	"github.com/kingrea/seqsteps/internal/step"
	"github.com/kingrea/seqsteps/internal/steps/busco"
	"github.com/kingrea/seqsteps/internal/steps/rsemprep"
)

// RegisterBuiltins installs all of the built-in step factories into the
// provided registry.
func RegisterBuiltins(reg *step.Registry) {
	if reg == nil {
		return
	}
	busco.Register(reg)
	rsemprep.Register(reg)
}

// NewRegistry returns a registry holding the built-in steps.
func NewRegistry() *step.Registry {
	reg := step.NewRegistry()
	RegisterBuiltins(reg)
	return reg
}
