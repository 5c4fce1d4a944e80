package step

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/logbook"
	"github.com/kingrea/seqsteps/internal/staging"
)

// Context carries the host-provided runtime into a step instance.
type Context struct {
	Store   *datastore.Store
	Stager  staging.Stager
	Logbook *logbook.Logbook
	// Instance is the step instance name used in script names and logs.
	Instance string
	// BaseDir is the permanent output folder of the instance.
	BaseDir string

	warnings []string
}

// NewContext builds a Context for one step instance. A nil stager falls back
// to staging.Direct.
func NewContext(store *datastore.Store, stager staging.Stager, lb *logbook.Logbook) *Context {
	if stager == nil {
		stager = staging.Direct{}
	}
	return &Context{Store: store, Stager: stager, Logbook: lb}
}

// ForInstance returns a copy bound to one instance and its base directory.
// Warnings are not shared with the parent.
func (ctx *Context) ForInstance(name, baseDir string) *Context {
	clone := *ctx
	clone.Instance = name
	clone.BaseDir = baseDir
	clone.warnings = nil
	return &clone
}

// Warn records a non-fatal condition.
func (ctx *Context) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ctx.warnings = append(ctx.warnings, msg)
	ctx.Logbook.Step(logbook.LevelWarn, ctx.Instance, "%s", msg)
}

// Warnings returns the warnings recorded so far.
func (ctx *Context) Warnings() []string {
	return append([]string(nil), ctx.warnings...)
}

// Units lists the store keys a scope iterates: every sample in host order, or
// the project unit alone.
func (ctx *Context) Units(scope Scope) []string {
	if scope == ScopeProject {
		return []string{datastore.ProjectKey}
	}
	return ctx.Store.Samples()
}

// UnitLabel is the human-facing name of a unit: the sample name, or the
// project title for the project unit.
func (ctx *Context) UnitLabel(unit string) string {
	if unit == datastore.ProjectKey {
		if title := strings.TrimSpace(ctx.Store.Title()); title != "" {
			return title
		}
	}
	return unit
}

// UnitDir returns the permanent folder for a unit, creating per-sample
// folders through the stager.
func (ctx *Context) UnitDir(unit string) (string, error) {
	if unit == datastore.ProjectKey {
		return ctx.BaseDir, nil
	}
	return ctx.Stager.SampleDir(ctx.BaseDir, unit)
}

// validate ensures the host wired everything a step needs.
func (ctx *Context) validate() error {
	if ctx == nil {
		return fmt.Errorf("step: context is nil")
	}
	if ctx.Store == nil {
		return fmt.Errorf("step %s: data store is required", ctx.Instance)
	}
	if ctx.Stager == nil {
		return fmt.Errorf("step %s: stager is required", ctx.Instance)
	}
	if strings.TrimSpace(ctx.BaseDir) == "" || !filepath.IsAbs(ctx.BaseDir) {
		return fmt.Errorf("step %s: absolute base dir is required, got %q", ctx.Instance, ctx.BaseDir)
	}
	return nil
}
