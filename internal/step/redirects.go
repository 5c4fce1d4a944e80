package step

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Redirect is a flag passed verbatim to the wrapped tool. A switch has no
// values; list values are joined on one line.
type Redirect struct {
	Flag   string
	Values []string
}

// Value returns the redirect values joined by a space.
func (r Redirect) Value() string {
	return strings.Join(r.Values, " ")
}

// Redirects is an ordered flag -> value mapping. File order is preserved so
// the emitted command matches what the user wrote.
type Redirects struct {
	entries []Redirect
}

// NewRedirects builds redirects from flag/value pairs. An empty value
// declares a switch.
func NewRedirects(pairs ...string) Redirects {
	var r Redirects
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			r.Set(pairs[i])
			continue
		}
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Len returns the number of redirected flags.
func (r *Redirects) Len() int {
	return len(r.entries)
}

// Has reports whether the flag was redirected.
func (r *Redirects) Has(flag string) bool {
	return r.index(flag) >= 0
}

// Get returns the redirect for a flag.
func (r *Redirects) Get(flag string) (Redirect, bool) {
	idx := r.index(flag)
	if idx < 0 {
		return Redirect{}, false
	}
	return r.entries[idx], true
}

// Value returns the joined value of a flag, or "" when absent.
func (r *Redirects) Value(flag string) string {
	red, _ := r.Get(flag)
	return red.Value()
}

// Set replaces the values of an existing flag in place or appends it.
func (r *Redirects) Set(flag string, values ...string) {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return
	}
	entry := Redirect{Flag: flag, Values: append([]string(nil), values...)}
	if idx := r.index(flag); idx >= 0 {
		r.entries[idx] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

// Delete removes a flag and reports whether it was present.
func (r *Redirects) Delete(flag string) bool {
	idx := r.index(flag)
	if idx < 0 {
		return false
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	return true
}

// Rename moves the values of from onto to, keeping the position of from.
// An existing to entry is dropped. Reports whether from was present.
func (r *Redirects) Rename(from, to string) bool {
	idx := r.index(from)
	if idx < 0 {
		return false
	}
	values := r.entries[idx].Values
	r.entries[idx] = Redirect{Flag: to, Values: values}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if i != idx && r.entries[i].Flag == to {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
		}
	}
	return true
}

// Entries returns a copy of the redirects in order.
func (r *Redirects) Entries() []Redirect {
	out := make([]Redirect, len(r.entries))
	for i, entry := range r.entries {
		out[i] = Redirect{Flag: entry.Flag, Values: append([]string(nil), entry.Values...)}
	}
	return out
}

// Clone returns an independent copy.
func (r *Redirects) Clone() Redirects {
	return Redirects{entries: r.Entries()}
}

// UnmarshalYAML decodes a mapping while keeping key order. Null values
// become switches, sequences become multi-value flags.
func (r *Redirects) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		r.entries = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("redirects: expected a mapping at line %d", node.Line)
	}
	r.entries = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		values, err := scalarValues(value)
		if err != nil {
			return fmt.Errorf("redirects: %s: %w", key.Value, err)
		}
		r.Set(key.Value, values...)
	}
	return nil
}

// MarshalYAML keeps the order on the way out.
func (r Redirects) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range r.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: entry.Flag}
		var value *yaml.Node
		switch len(entry.Values) {
		case 0:
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}
		case 1:
			value = &yaml.Node{Kind: yaml.ScalarNode, Value: entry.Values[0]}
		default:
			value = &yaml.Node{Kind: yaml.SequenceNode}
			for _, v := range entry.Values {
				value.Content = append(value.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
			}
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func (r *Redirects) index(flag string) int {
	for i, entry := range r.entries {
		if entry.Flag == flag {
			return i
		}
	}
	return -1
}

func scalarValues(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("nested values are not supported (line %d)", item.Line)
			}
			values = append(values, item.Value)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unsupported value at line %d", node.Line)
	}
}
