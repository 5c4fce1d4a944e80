package busco

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/step"
)

const (
	moduleID      = "BUSCO"
	moduleVersion = "1.0.0"

	optionGetLineage = "get_lineage"
	flagMode         = "--mode"
	flagModeShort    = "-m"
	flagLineage      = "--lineage"
	lineageSuffix    = ".tar.gz"
)

// Sequence types selected by the BUSCO mode.
const (
	TypeNucl = "nucl"
	TypeProt = "prot"
)

// managedFlags are filled in by the step for every unit.
var managedFlags = []string{"-i", "--in", "-o", "--out", "-t", "--tmp"}

var modeTypes = map[string]string{
	"geno":          TypeNucl,
	"genome":        TypeNucl,
	"tran":          TypeNucl,
	"transcriptome": TypeNucl,
	"prot":          TypeProt,
	"proteins":      TypeProt,
}

const modeHelp = "geno or genome for genome assemblies (DNA), " +
	"tran or transcriptome for transcriptome assemblies (DNA), " +
	"prot or proteins for annotated gene sets (protein)"

// ClassifyMode maps a BUSCO mode onto the fasta type it reads.
func ClassifyMode(mode string) (string, error) {
	seqType, ok := modeTypes[mode]
	if !ok {
		return "", fmt.Errorf("the value passed to --mode (%s) is not valid; use %s", mode, modeHelp)
	}
	return seqType, nil
}

// Modes lists the accepted mode values.
func Modes() []string {
	out := make([]string, 0, len(modeTypes))
	for mode := range modeTypes {
		out = append(out, mode)
	}
	sort.Strings(out)
	return out
}

// Step runs BUSCO per sample or once per project.
type Step struct {
	step.Base
	scope      step.Scope
	seqType    string
	lineageURL string
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

// New creates a BUSCO step. The params are copied; redirect cleanup never
// touches the caller's value.
func New(params *step.Params) *Step {
	var p step.Params
	if params != nil {
		p = *params
		p.Redirects = params.Redirects.Clone()
	}
	info := step.Info{
		ID:          moduleID,
		Name:        "BUSCO",
		Description: "Assesses assembly completeness against a BUSCO lineage.",
		Version:     moduleVersion,
	}
	s := &Step{Base: step.NewBase(info, &p)}
	s.SetInputs(datastore.FastaNucl, datastore.FastaProt, datastore.BUSCOLineage)
	s.SetOutputs(datastore.BUSCO, datastore.BUSCOLineage)
	return s
}

// Scope returns the validated scope.
func (s *Step) Scope() step.Scope {
	return s.scope
}

// SeqType returns the fasta type selected by the mode.
func (s *Step) SeqType() string {
	return s.seqType
}

// Configure validates scope and mode.
func (s *Step) Configure(ctx *step.Context) error {
	params := s.Params()
	scope, err := step.ParseScope(params.Scope)
	if err != nil {
		return s.Fail("%v", err)
	}
	s.scope = scope

	for _, flag := range managedFlags {
		if params.Redirects.Delete(flag) {
			ctx.Warn("%s is not supposed to be redirected; it is set automatically", flag)
		}
	}
	params.Redirects.Rename(flagModeShort, flagMode)
	if !params.Redirects.Has(flagMode) {
		return s.Fail("redirect --mode (or -m) is required: %s", modeHelp)
	}
	seqType, err := ClassifyMode(params.Redirects.Value(flagMode))
	if err != nil {
		return s.Fail("%v", err)
	}
	s.seqType = seqType

	s.lineageURL, _ = params.Option(optionGetLineage)
	return nil
}

// Resolve checks every unit holds the fasta file of the selected type, and
// that a lineage is available. An earlier step may have downloaded one.
func (s *Step) Resolve(ctx *step.Context) error {
	if s.lineageURL == "" && !s.Params().Redirects.Has(flagLineage) &&
		!ctx.Store.Has(datastore.ProjectKey, datastore.BUSCOLineage) {
		return s.Fail("supply a lineage, either via redirects (--lineage) or via %s", optionGetLineage)
	}
	slot := datastore.FastaSlot(s.seqType)
	for _, unit := range ctx.Units(s.scope) {
		if _, err := ctx.Store.Get(unit, slot); err != nil {
			if unit == datastore.ProjectKey {
				return step.Errorf(s.Name(), "no project-wide %s fasta file", s.seqType).Because(err)
			}
			return step.SampleErrorf(s.Name(), unit, "no sample-wide %s fasta file", s.seqType).Because(err)
		}
	}
	return nil
}

// Preliminary downloads and unpacks the lineage archive when get_lineage is
// set, and publishes the unpacked directory as BUSCO.lineage.
func (s *Step) Preliminary(ctx *step.Context) (*step.Script, error) {
	if s.lineageURL == "" {
		return nil, nil
	}
	archive := path.Base(s.lineageURL)
	name, ok := strings.CutSuffix(archive, lineageSuffix)
	if !ok || name == "" || name == "." {
		return nil, s.Fail("error with supplied lineage path (%s): expected a %s archive", s.lineageURL, lineageSuffix)
	}
	useDir, setup := ctx.Stager.Start(ctx.BaseDir)
	script := &step.Script{
		Name:  s.ScriptName("preliminary"),
		Unit:  datastore.ProjectKey,
		Dir:   useDir,
		Setup: setup,
	}
	script.Add(
		step.Line("wget "+s.lineageURL),
		step.Line("tar zxvf "+archive),
	)
	// The staged copy is removed once the script finishes; later scripts read
	// the permanent one.
	if err := s.Register(ctx, datastore.ProjectKey, datastore.BUSCOLineage, filepath.Join(ctx.BaseDir, name)); err != nil {
		return nil, err
	}
	s.FinishScript(ctx, script, ctx.BaseDir)
	return script, nil
}

// BuildScripts emits one BUSCO invocation per unit. Outputs are registered
// only once every unit built.
func (s *Step) BuildScripts(ctx *step.Context) ([]*step.Script, error) {
	redirects := s.Params().Redirects
	lineage := ""
	if !redirects.Has(flagLineage) {
		value, ok := ctx.Store.Lookup(datastore.ProjectKey, datastore.BUSCOLineage)
		if !ok {
			return nil, s.Fail("supply a lineage, either via redirects (--lineage) or via %s", optionGetLineage)
		}
		lineage = value
	}

	slot := datastore.FastaSlot(s.seqType)
	var (
		scripts []*step.Script
		pending []datastore.Registration
	)
	for _, unit := range ctx.Units(s.scope) {
		dir, err := ctx.UnitDir(unit)
		if err != nil {
			return nil, s.FailSample(unit, "%v", err)
		}
		fasta, err := ctx.Store.Get(unit, slot)
		if err != nil {
			return nil, step.SampleErrorf(s.Name(), unit, "no %s fasta file", s.seqType).Because(err)
		}
		script := s.NewScript(ctx, unit, dir)
		cmd := s.ScriptConst().
			Flag("--out", unit).
			Flag("--in", fasta).
			Flag("--tmp", filepath.Join(script.Dir, "tmp"))
		if lineage != "" {
			cmd.Flag(flagLineage, lineage)
		}
		script.Add(cmd)
		pending = append(pending, datastore.Registration{Unit: unit, Slot: datastore.BUSCO, Value: filepath.Join(dir, "run_"+unit)})
		s.FinishScript(ctx, script, dir)
		scripts = append(scripts, script)
	}
	if err := s.Commit(ctx, pending); err != nil {
		return nil, err
	}
	return scripts, nil
}
