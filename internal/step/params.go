package step

import (
	"fmt"
	"strings"
)

// Params is the configuration of one step instance as read from the
// parameter file.
type Params struct {
	// Module selects the registered step implementation (e.g. BUSCO).
	Module string
	// Name is the instance name, unique within a pipeline.
	Name string
	// Base lists the instances this one builds on.
	Base []string
	// ScriptPath is the tool invocation placed before the redirects.
	ScriptPath string
	// Scope is the raw scope value; steps parse it with ParseScope.
	Scope string
	// Redirects are passed verbatim to the tool.
	Redirects Redirects
	// Options holds step-specific keys such as get_lineage or reference.
	Options map[string]any
}

// Option returns a trimmed string option and whether it was set.
func (p *Params) Option(key string) (string, bool) {
	if p == nil || p.Options == nil {
		return "", false
	}
	raw, ok := p.Options[key]
	if !ok {
		return "", false
	}
	if raw == nil {
		return "", true
	}
	return strings.TrimSpace(fmt.Sprint(raw)), true
}

// HasOption reports whether an option key is present.
func (p *Params) HasOption(key string) bool {
	_, ok := p.Option(key)
	return ok
}

// Validate checks the fields every step needs.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("step: params are nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("step: instance name is required")
	}
	if strings.TrimSpace(p.Module) == "" {
		return fmt.Errorf("step %s: module is required", p.Name)
	}
	if strings.TrimSpace(p.ScriptPath) == "" {
		return fmt.Errorf("step %s: script_path is required", p.Name)
	}
	return nil
}
