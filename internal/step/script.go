package step

import (
	"strings"

	"github.com/kingrea/seqsteps/internal/command"
)

// Block is a renderable piece of a script body.
type Block interface {
	Render() string
}

// Line is a literal shell line.
type Line string

// Render implements Block.
func (l Line) Render() string {
	return string(l)
}

// Script is one unit of work handed to the host: a sample script, the
// project script, or a preliminary/wrap-up script.
type Script struct {
	Name string
	// Unit is the store key the script was built for.
	Unit string
	// Dir is the staged working directory the script changes into.
	Dir string
	// Setup lines run before changing into Dir.
	Setup  []string
	Blocks []Block
	// Epilogue lines reconcile staged files after the blocks ran.
	Epilogue []string
}

// Add appends blocks to the script body.
func (s *Script) Add(blocks ...Block) *Script {
	s.Blocks = append(s.Blocks, blocks...)
	return s
}

// Commands returns the command blocks in order.
func (s *Script) Commands() []*command.Command {
	var out []*command.Command
	for _, block := range s.Blocks {
		if cmd, ok := block.(*command.Command); ok {
			out = append(out, cmd)
		}
	}
	return out
}

// Render returns the script body without a shebang.
func (s *Script) Render() string {
	var parts []string
	if len(s.Setup) > 0 {
		parts = append(parts, strings.Join(s.Setup, "\n"))
	}
	if s.Dir != "" {
		parts = append(parts, "# Moving into output location\ncd "+s.Dir)
	}
	for _, block := range s.Blocks {
		if text := block.Render(); strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	if len(s.Epilogue) > 0 {
		parts = append(parts, strings.Join(s.Epilogue, "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n"
}
