package paramfile

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var varPattern = regexp.MustCompile(`\{Vars\.([A-Za-z0-9_.\-]+)\}`)

// resolver substitutes {Vars.a.b} references with values from the Vars
// section. Only scalar leaves can be referenced.
type resolver struct {
	vars map[string]any
}

func newResolver(vars map[string]any) resolver {
	return resolver{vars: vars}
}

// lookup returns the scalar value at a dotted path.
func (r resolver) lookup(path string) (string, error) {
	var current any = r.vars
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("Vars.%s: %s is not a mapping", path, part)
		}
		next, ok := node[part]
		if !ok {
			return "", fmt.Errorf("unknown variable Vars.%s", path)
		}
		current = next
	}
	switch value := current.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("Vars.%s is not a scalar", path)
	case nil:
		return "", nil
	default:
		return fmt.Sprint(value), nil
	}
}

func (r resolver) expand(text string) (string, error) {
	var firstErr error
	out := varPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := varPattern.FindStringSubmatch(match)[1]
		value, err := r.lookup(path)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return value
	})
	return out, firstErr
}

// substitute rewrites every scalar under node in place.
func (r resolver) substitute(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if !strings.Contains(node.Value, "{Vars.") {
			return nil
		}
		expanded, err := r.expand(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		node.Value = expanded
		node.Tag = "!!str"
		node.Style = 0
	case yaml.MappingNode, yaml.SequenceNode, yaml.DocumentNode:
		for _, child := range node.Content {
			if err := r.substitute(child); err != nil {
				return err
			}
		}
	}
	return nil
}
