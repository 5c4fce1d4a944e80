// Package step defines the contract every pipeline step implements and the
// lifecycle driver that walks a step from configuration to finalized scripts.
package step

import (
	"fmt"
	"strings"

	"github.com/kingrea/seqsteps/internal/datastore"
)

// Info describes a step module's identity.
type Info struct {
	ID          string
	Name        string
	Description string
	Version     string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("step: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("step: name is required for %s", i.ID)
	}
	if i.Version == "" {
		return fmt.Errorf("step: version is required for %s", i.ID)
	}
	return nil
}

// Scope selects whether a step runs once per sample or once per project.
type Scope string

const (
	ScopeSample  Scope = "sample"
	ScopeProject Scope = "project"
)

// ParseScope validates a raw scope value.
func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeSample:
		return ScopeSample, nil
	case ScopeProject:
		return ScopeProject, nil
	case "":
		return "", fmt.Errorf("scope is required: either 'sample' or 'project'")
	default:
		return "", fmt.Errorf("scope must be either 'sample' or 'project', got %q", raw)
	}
}

// Step is implemented by every pipeline step module.
//
// The host calls Configure once, Resolve once upstream data is known,
// Preliminary once, BuildScripts once (one script per scope unit) and WrapUp
// once. Preliminary and WrapUp return nil when the step has nothing to add.
type Step interface {
	Info() Info
	Inputs() []datastore.Slot
	Outputs() []datastore.Slot
	Configure(ctx *Context) error
	Resolve(ctx *Context) error
	Preliminary(ctx *Context) (*Script, error)
	BuildScripts(ctx *Context) ([]*Script, error)
	WrapUp(ctx *Context) (*Script, error)
}

// Result captures everything a step instance produced.
type Result struct {
	Instance    string
	Module      string
	Preliminary *Script
	Scripts     []*Script
	WrapUp      *Script
	Warnings    []string
	Registered  []datastore.Registration
}

// AllScripts returns the preliminary, unit and wrap-up scripts in run order.
func (r Result) AllScripts() []*Script {
	var out []*Script
	if r.Preliminary != nil {
		out = append(out, r.Preliminary)
	}
	out = append(out, r.Scripts...)
	if r.WrapUp != nil {
		out = append(out, r.WrapUp)
	}
	return out
}
