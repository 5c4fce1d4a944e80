// Package command builds tool invocations as ordered argument groups and
// renders them to shell text only at the boundary.
package command

import "strings"

// Continuation separates rendered argument lines.
const Continuation = " \\\n\t"

// Command is a program followed by ordered argument groups. Each group is
// rendered on its own line: a flag with its values, or a positional value.
// Tokens are emitted verbatim; redirected values may carry shell syntax.
type Command struct {
	program string
	groups  [][]string
}

// New starts a command for the given program path.
func New(program string) *Command {
	return &Command{program: strings.TrimSpace(program)}
}

// Program returns the executable path.
func (c *Command) Program() string {
	return c.program
}

// Flag appends a flag with optional values. Empty values are dropped so
// switches like --force render without a trailing blank.
func (c *Command) Flag(name string, values ...string) *Command {
	group := []string{name}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		group = append(group, value)
	}
	c.groups = append(c.groups, group)
	return c
}

// Positional appends a bare argument.
func (c *Command) Positional(value string) *Command {
	c.groups = append(c.groups, []string{value})
	return c
}

// Groups returns a copy of the argument groups.
func (c *Command) Groups() [][]string {
	out := make([][]string, len(c.groups))
	for i, group := range c.groups {
		out[i] = append([]string(nil), group...)
	}
	return out
}

// Tokens flattens the command into argv form.
func (c *Command) Tokens() []string {
	var out []string
	if c.program != "" {
		out = append(out, c.program)
	}
	for _, group := range c.groups {
		out = append(out, group...)
	}
	return out
}

// HasFlag reports whether a group starts with the flag.
func (c *Command) HasFlag(name string) bool {
	for _, group := range c.groups {
		if len(group) > 0 && group[0] == name {
			return true
		}
	}
	return false
}

// Value returns the values of the first group starting with the flag,
// joined by spaces.
func (c *Command) Value(name string) string {
	for _, group := range c.groups {
		if len(group) > 0 && group[0] == name {
			return strings.Join(group[1:], " ")
		}
	}
	return ""
}

// Clone returns an independent copy, so a constant prefix can be reused.
func (c *Command) Clone() *Command {
	return &Command{program: c.program, groups: c.Groups()}
}

// Render returns the multi-line shell invocation. The last line never ends
// with a continuation.
func (c *Command) Render() string {
	lines := make([]string, 0, len(c.groups)+1)
	if c.program != "" {
		lines = append(lines, c.program)
	}
	for _, group := range c.groups {
		lines = append(lines, strings.Join(group, " "))
	}
	return strings.Join(lines, Continuation)
}
