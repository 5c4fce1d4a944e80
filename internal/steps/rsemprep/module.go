package rsemprep

import (
	"path/filepath"
	"strings"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/step"
)

const (
	moduleID      = "RSEM_prep"
	moduleVersion = "1.0.0"

	optionReference = "reference"
	flagStar        = "--star"
	indexSuffix     = "_rsem_ref"
)

// CompanionSlots are offered to rsem-prepare-reference in this order.
var CompanionSlots = []datastore.Slot{
	datastore.GTF,
	datastore.GFF3,
	datastore.TranscriptToGeneMap,
	datastore.AlleleToGeneMap,
	datastore.NoPolyASubset,
}

// Step prepares an RSEM reference per sample or per project.
type Step struct {
	step.Base
	scope     step.Scope
	reference string
}

// Register adds the module factory to the registry.
func Register(reg *step.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(moduleID, func(params *step.Params) (step.Step, error) {
		return New(params), nil
	})
}

// New creates an RSEM_prep step.
func New(params *step.Params) *Step {
	var p step.Params
	if params != nil {
		p = *params
		p.Redirects = params.Redirects.Clone()
	}
	info := step.Info{
		ID:          moduleID,
		Name:        "RSEM reference",
		Description: "Prepares RSEM (and optionally STAR) reference indices.",
		Version:     moduleVersion,
	}
	s := &Step{Base: step.NewBase(info, &p)}
	inputs := append([]datastore.Slot{datastore.FastaNucl}, CompanionSlots...)
	s.SetInputs(inputs...)
	s.SetOutputs(datastore.RSEMIndex, datastore.RSEMFasta, datastore.STARIndex, datastore.STARFasta)
	return s
}

// Scope returns the effective scope.
func (s *Step) Scope() step.Scope {
	return s.scope
}

// Reference returns the external reference fasta, if configured.
func (s *Step) Reference() string {
	return s.reference
}

// Configure settles the scope. An external reference makes the project
// scope the default.
func (s *Step) Configure(ctx *step.Context) error {
	params := s.Params()
	s.reference, _ = params.Option(optionReference)
	if s.reference == "" {
		scope, err := step.ParseScope(params.Scope)
		if err != nil {
			return s.Fail("%v", err)
		}
		s.scope = scope
		return nil
	}

	switch step.Scope(strings.ToLower(strings.TrimSpace(params.Scope))) {
	case step.ScopeSample:
		ctx.Warn("a sample-scope external reference makes little sense; every sample will use %s", s.reference)
		s.scope = step.ScopeSample
	case step.ScopeProject, "":
		s.scope = step.ScopeProject
	default:
		ctx.Warn("unknown scope %q with an external reference; using project scope", params.Scope)
		s.scope = step.ScopeProject
	}
	return nil
}

// Resolve checks fasta.nucl is present when no external reference is set.
func (s *Step) Resolve(ctx *step.Context) error {
	if s.reference != "" {
		return nil
	}
	for _, unit := range ctx.Units(s.scope) {
		if _, err := ctx.Store.Get(unit, datastore.FastaNucl); err != nil {
			if unit == datastore.ProjectKey {
				return step.Errorf(s.Name(), "no fasta.nucl defined for project").Because(err)
			}
			return step.SampleErrorf(s.Name(), unit, "no fasta.nucl defined for sample").Because(err)
		}
	}
	return nil
}

// BuildScripts emits one rsem-prepare-reference invocation per unit and
// registers the outputs of all units together.
func (s *Step) BuildScripts(ctx *step.Context) ([]*step.Script, error) {
	redirects := s.Params().Redirects
	star := redirects.Has(flagStar)

	var (
		scripts []*step.Script
		pending []datastore.Registration
	)
	for _, unit := range ctx.Units(s.scope) {
		dir, err := ctx.UnitDir(unit)
		if err != nil {
			return nil, s.FailSample(unit, "%v", err)
		}
		fasta := s.reference
		if fasta == "" {
			if fasta, err = ctx.Store.Get(unit, datastore.FastaNucl); err != nil {
				return nil, step.SampleErrorf(s.Name(), unit, "no fasta.nucl defined").Because(err)
			}
		}
		label := ctx.UnitLabel(unit)
		script := s.NewScript(ctx, unit, dir)
		cmd := s.ScriptConst()
		for _, slot := range CompanionSlots {
			flag := "--" + string(slot)
			if redirects.Has(flag) {
				continue
			}
			if value, ok := ctx.Store.Lookup(unit, slot); ok {
				cmd.Flag(flag, value)
			}
		}
		cmd.Positional(fasta).Positional(filepath.Join(script.Dir, label+indexSuffix))
		script.Add(cmd)

		pending = append(pending,
			datastore.Registration{Unit: unit, Slot: datastore.RSEMIndex, Value: filepath.Join(dir, label+indexSuffix)},
			datastore.Registration{Unit: unit, Slot: datastore.RSEMFasta, Value: fasta},
		)
		if star {
			pending = append(pending,
				datastore.Registration{Unit: unit, Slot: datastore.STARIndex, Value: dir},
				datastore.Registration{Unit: unit, Slot: datastore.STARFasta, Value: fasta},
			)
		}
		s.FinishScript(ctx, script, dir)
		scripts = append(scripts, script)
	}
	if err := s.Commit(ctx, pending); err != nil {
		return nil, err
	}
	return scripts, nil
}
