// Package execute runs a written plan locally as a scipipe workflow. Every
// script becomes a process that leaves a done marker; a script waits for the
// markers of the steps it builds on.
package execute

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sp "github.com/scipipe/scipipe"

	"github.com/kingrea/seqsteps/internal/pipeline"
)

const donePort = "done"

// Options tunes a run.
type Options struct {
	// MaxParallel caps concurrent scripts; zero uses the project setting.
	MaxParallel int
	// Only restricts the run to processes matching these patterns and their
	// upstream dependencies.
	Only []string
	// Graph writes a dot file of the workflow instead of running it.
	Graph string
}

// NewWorkflow wires a scipipe workflow for the plan. Done markers are
// relative to the scripts directory, which must be the working directory
// when the workflow runs.
func NewWorkflow(plan *pipeline.Plan, maxParallel int) (*sp.Workflow, error) {
	if plan == nil || len(plan.Nodes) == 0 {
		return nil, fmt.Errorf("execute: plan has no steps")
	}
	if maxParallel < 1 {
		maxParallel = plan.Config.Project.MaxParallel
	}
	shell := plan.Config.Project.Shell
	wf := sp.NewWorkflow("seqsteps_"+sanitize(plan.Store.Title()), maxParallel)

	byNode := map[string][]*sp.Process{}
	for _, node := range plan.Nodes {
		var upstream []*sp.Process
		for _, base := range node.Dependencies {
			upstream = append(upstream, byNode[base]...)
		}
		var procs, units []*sp.Process
		for _, file := range node.Files {
			switch file.Script {
			case node.Result.Preliminary:
				prelim := newProc(wf, plan, file, shell, upstream)
				procs = append(procs, prelim)
				upstream = append(append([]*sp.Process(nil), upstream...), prelim)
			case node.Result.WrapUp:
				deps := units
				if len(deps) == 0 {
					deps = upstream
				}
				procs = append(procs, newProc(wf, plan, file, shell, deps))
			default:
				proc := newProc(wf, plan, file, shell, upstream)
				units = append(units, proc)
				procs = append(procs, proc)
			}
		}
		byNode[node.ID] = procs
	}
	return wf, nil
}

// Run executes the plan. Scripts whose done marker exists are skipped by
// scipipe, so an interrupted run resumes where it stopped.
func Run(plan *pipeline.Plan, opts Options) error {
	wf, err := NewWorkflow(plan, opts.MaxParallel)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("execute: working dir: %w", err)
	}
	if err := os.Chdir(plan.Config.ScriptsDir()); err != nil {
		return fmt.Errorf("execute: enter %s: %w", plan.Config.ScriptsDir(), err)
	}
	defer os.Chdir(cwd)

	if opts.Graph != "" {
		wf.PlotGraph(opts.Graph)
		plan.Logbook.Info("wrote workflow graph to %s", opts.Graph)
		return nil
	}
	plan.Logbook.Info("running %d script(s) with up to %d in parallel", len(wf.Procs()), maxOr(opts.MaxParallel, plan.Config.Project.MaxParallel))
	if len(opts.Only) > 0 {
		for _, pattern := range opts.Only {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("execute: pattern %q: %w", pattern, err)
			}
		}
		wf.RunToRegex(opts.Only...)
	} else {
		wf.Run()
	}
	plan.Logbook.Info("run finished")
	return nil
}

// ProcNames lists the process names of a workflow, sorted.
func ProcNames(wf *sp.Workflow) []string {
	names := make([]string, 0, len(wf.Procs()))
	for name := range wf.Procs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newProc(wf *sp.Workflow, plan *pipeline.Plan, file pipeline.ScriptFile, shell string, deps []*sp.Process) *sp.Process {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s && echo done > {o:%s}", shell, file.Path, donePort)
	if len(deps) > 0 {
		b.WriteString(" #")
		for i := range deps {
			fmt.Fprintf(&b, " {i:dep%d}", i)
		}
	}
	proc := wf.NewProc(file.Script.Name, b.String())
	marker, err := filepath.Rel(plan.Config.ScriptsDir(), file.Path)
	if err != nil {
		marker = filepath.Base(file.Path)
	}
	proc.SetOut(donePort, strings.TrimSuffix(marker, ".sh")+".done")
	for i, dep := range deps {
		proc.In(fmt.Sprintf("dep%d", i)).From(dep.Out(donePort))
	}
	return proc
}

func sanitize(title string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, title)
}

func maxOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
