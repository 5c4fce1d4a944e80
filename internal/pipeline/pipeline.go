// Package pipeline is the thin host that drives step instances in parameter
// file order and lays their scripts out on disk.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/seqsteps/internal/config"
	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/logbook"
	"github.com/kingrea/seqsteps/internal/paramfile"
	"github.com/kingrea/seqsteps/internal/step"
)

// Node is one step instance plus its dependency metadata.
type Node struct {
	// Index is the 1-based position in the parameter file.
	Index        int
	ID           string
	Params       *step.Params
	Step         step.Step
	Dependencies []string
	Dependents   []string

	DataDir    string
	ScriptsDir string
	Result     step.Result
	Files      []ScriptFile
	Err        error
}

// ScriptFile is a script and the path it is written to.
type ScriptFile struct {
	Path   string
	Script *step.Script
}

// Plan is the outcome of driving every step.
type Plan struct {
	Config  *config.Config
	Store   *datastore.Store
	Logbook *logbook.Logbook
	Nodes   []*Node
}

// Node returns a step by instance name.
func (p *Plan) Node(id string) (*Node, bool) {
	for _, node := range p.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return nil, false
}

// Scripts returns every script file in run order.
func (p *Plan) Scripts() []ScriptFile {
	var out []ScriptFile
	for _, node := range p.Nodes {
		out = append(out, node.Files...)
	}
	return out
}

// Warnings returns the warnings of every step, tagged with the instance name.
func (p *Plan) Warnings() []string {
	var out []string
	for _, node := range p.Nodes {
		for _, warning := range node.Result.Warnings {
			out = append(out, fmt.Sprintf("[%s] %s", node.ID, warning))
		}
	}
	return out
}

// Builder turns a parameter file and a sample store into a Plan.
type Builder struct {
	cfg      *config.Config
	registry *step.Registry
	logbook  *logbook.Logbook
}

// NewBuilder wires the host collaborators.
func NewBuilder(cfg *config.Config, registry *step.Registry, lb *logbook.Logbook) *Builder {
	return &Builder{cfg: cfg, registry: registry, logbook: lb}
}

// Plan resolves every step, then runs each through its lifecycle in file
// order. The store is shared, so a step sees what earlier steps registered.
// The first failing step aborts the build.
func (b *Builder) Plan(params *paramfile.File, store *datastore.Store) (*Plan, error) {
	if b.cfg == nil || b.registry == nil {
		return nil, fmt.Errorf("pipeline: config and registry are required")
	}
	if params == nil || store == nil {
		return nil, fmt.Errorf("pipeline: parameters and samples are required")
	}
	nodes, err := b.resolve(params)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Config: b.cfg, Store: store, Logbook: b.logbook, Nodes: nodes}
	root := step.NewContext(store, b.cfg.Stager(), b.logbook)
	b.logbook.Info("building %d step(s) for %s", len(nodes), store.Title())

	for _, node := range nodes {
		if err := os.MkdirAll(node.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("pipeline: ensure %s: %w", node.DataDir, err)
		}
		ctx := root.ForInstance(node.ID, node.DataDir)
		result, err := step.NewInstance(node.Step, ctx).Run()
		if err != nil {
			node.Err = err
			return nil, fmt.Errorf("pipeline: step %s (%s): %w", node.ID, node.Params.Module, err)
		}
		node.Result = result
		for _, script := range result.AllScripts() {
			node.Files = append(node.Files, ScriptFile{
				Path:   filepath.Join(node.ScriptsDir, script.Name+".sh"),
				Script: script,
			})
		}
	}
	return plan, nil
}

func (b *Builder) resolve(params *paramfile.File) ([]*Node, error) {
	byID := make(map[string]*Node, len(params.Steps))
	nodes := make([]*Node, 0, len(params.Steps))
	for idx, p := range params.Steps {
		if _, dup := byID[p.Name]; dup {
			return nil, fmt.Errorf("pipeline: duplicate step %s", p.Name)
		}
		for _, base := range p.Base {
			if _, ok := byID[base]; !ok {
				return nil, fmt.Errorf("pipeline: step %s: base %s is not an earlier step", p.Name, base)
			}
		}
		s, err := b.registry.Resolve(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		node := &Node{
			Index:        idx + 1,
			ID:           p.Name,
			Params:       p,
			Step:         s,
			Dependencies: append([]string(nil), p.Base...),
			DataDir:      b.cfg.StepDataDir(p.Module, p.Name),
			ScriptsDir:   b.cfg.StepScriptsDir(idx+1, p.Module, p.Name),
		}
		for _, base := range p.Base {
			byID[base].Dependents = append(byID[base].Dependents, node.ID)
		}
		byID[p.Name] = node
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Write stores every script plus the master workflow script.
func (p *Plan) Write() error {
	shebang := "#!/usr/bin/env " + p.Config.Project.Shell + "\n\n"
	for _, node := range p.Nodes {
		if err := os.MkdirAll(node.ScriptsDir, 0o755); err != nil {
			return fmt.Errorf("pipeline: ensure %s: %w", node.ScriptsDir, err)
		}
		for _, file := range node.Files {
			if err := os.WriteFile(file.Path, []byte(shebang+file.Script.Render()), 0o755); err != nil {
				return fmt.Errorf("pipeline: write %s: %w", file.Path, err)
			}
		}
	}
	master := p.Config.WorkflowScriptPath()
	if err := os.MkdirAll(filepath.Dir(master), 0o755); err != nil {
		return fmt.Errorf("pipeline: ensure %s: %w", filepath.Dir(master), err)
	}
	if err := os.WriteFile(master, []byte(shebang+p.MasterScript()), 0o755); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", master, err)
	}
	p.Logbook.Info("wrote %d script(s) under %s", len(p.Scripts()), p.Config.ScriptsDir())
	return nil
}

// MasterScript lists every step script in run order.
func (p *Plan) MasterScript() string {
	var b strings.Builder
	b.WriteString("# Generated by seqsteps. Runs every step script in order.\n")
	for _, node := range p.Nodes {
		fmt.Fprintf(&b, "\n# %02d %s (%s)\n", node.Index, node.ID, node.Params.Module)
		for _, file := range node.Files {
			fmt.Fprintf(&b, "%s %s\n", p.Config.Project.Shell, file.Path)
		}
	}
	return b.String()
}
