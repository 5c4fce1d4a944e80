// Package paramfile loads pipeline parameter files: global settings, user
// variables and the ordered list of step instances.
package paramfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/seqsteps/internal/step"
)

const (
	keyGlobal = "Global_params"
	keyVars   = "Vars"
	keySteps  = "Step_params"
	keyDoc    = "Documentation"
)

// File is a parsed parameter file.
type File struct {
	Path          string
	Documentation string
	Global        map[string]any
	Vars          map[string]any
	// Steps keeps the order instances were declared in.
	Steps []*step.Params
}

// Step returns the params of a named instance.
func (f *File) Step(name string) (*step.Params, bool) {
	for _, params := range f.Steps {
		if params.Name == name {
			return params, true
		}
	}
	return nil, false
}

// ParseYAML decodes a parameter file payload.
func ParseYAML(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("paramfile: payload is empty")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("paramfile: decode: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("paramfile: top level must be a mapping")
	}
	root := doc.Content[0]

	sections := map[string]*yaml.Node{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case keyGlobal, keyVars, keySteps, keyDoc:
		default:
			return nil, fmt.Errorf("paramfile: unknown section %q (line %d)", key, root.Content[i].Line)
		}
		if _, dup := sections[key]; dup {
			return nil, fmt.Errorf("paramfile: duplicate section %s", key)
		}
		sections[key] = value
	}

	file := &File{Global: map[string]any{}, Vars: map[string]any{}}
	if node, ok := sections[keyVars]; ok && !isNull(node) {
		if err := node.Decode(&file.Vars); err != nil {
			return nil, fmt.Errorf("paramfile: %s: %w", keyVars, err)
		}
	}
	vars := newResolver(file.Vars)

	if node, ok := sections[keyDoc]; ok && !isNull(node) {
		file.Documentation = strings.TrimSpace(node.Value)
	}
	if node, ok := sections[keyGlobal]; ok && !isNull(node) {
		if err := vars.substitute(node); err != nil {
			return nil, fmt.Errorf("paramfile: %s: %w", keyGlobal, err)
		}
		if err := node.Decode(&file.Global); err != nil {
			return nil, fmt.Errorf("paramfile: %s: %w", keyGlobal, err)
		}
	}

	stepsNode, ok := sections[keySteps]
	if !ok || isNull(stepsNode) {
		return nil, fmt.Errorf("paramfile: %s is required", keySteps)
	}
	if stepsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("paramfile: %s must be a mapping of instance name to parameters", keySteps)
	}
	if err := vars.substitute(stepsNode); err != nil {
		return nil, fmt.Errorf("paramfile: %s: %w", keySteps, err)
	}
	seen := map[string]struct{}{}
	for i := 0; i+1 < len(stepsNode.Content); i += 2 {
		name := strings.TrimSpace(stepsNode.Content[i].Value)
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("paramfile: duplicate step %s", name)
		}
		seen[name] = struct{}{}
		params, err := decodeStep(name, stepsNode.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("paramfile: %w", err)
		}
		file.Steps = append(file.Steps, params)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("paramfile: at least one step is required")
	}
	return file, nil
}

// LoadFile reads and parses a parameter file from disk.
func LoadFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("paramfile: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("paramfile: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("paramfile: read %s: %w", path, err)
	}
	file, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.Path = filepath.Clean(path)
	return file, nil
}

func decodeStep(name string, node *yaml.Node) (*step.Params, error) {
	if name == "" {
		return nil, fmt.Errorf("step name is required (line %d)", node.Line)
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("step %s: parameters must be a mapping", name)
	}
	params := &step.Params{Name: name, Options: map[string]any{}}
	redirectKey := ""
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimSpace(node.Content[i].Value)
		value := node.Content[i+1]
		switch key {
		case "module":
			params.Module = strings.TrimSpace(value.Value)
		case "script_path":
			params.ScriptPath = strings.TrimSpace(value.Value)
		case "scope":
			params.Scope = strings.TrimSpace(value.Value)
		case "base":
			bases, err := decodeBase(value)
			if err != nil {
				return nil, fmt.Errorf("step %s: base: %w", name, err)
			}
			params.Base = bases
		case "redirects", "redir_params":
			if redirectKey != "" {
				return nil, fmt.Errorf("step %s: both %s and %s are set", name, redirectKey, key)
			}
			redirectKey = key
			if err := value.Decode(&params.Redirects); err != nil {
				return nil, fmt.Errorf("step %s: %w", name, err)
			}
		default:
			var option any
			if err := value.Decode(&option); err != nil {
				return nil, fmt.Errorf("step %s: %s: %w", name, key, err)
			}
			params.Options[key] = option
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func decodeBase(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) || strings.TrimSpace(node.Value) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(node.Value)}, nil
	case yaml.SequenceNode:
		var out []string
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("expected step names (line %d)", item.Line)
			}
			if trimmed := strings.TrimSpace(item.Value); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a step name or a list (line %d)", node.Line)
	}
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
