// Package staging provisions the working directories scripts run in and the
// shell lines that move staged results back to permanent storage.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stager is the host-side staging collaborator consumed by steps.
type Stager interface {
	// SampleDir creates and returns the permanent folder for one sample.
	SampleDir(baseDir, sample string) (string, error)
	// Start returns the directory a script should work in and any shell
	// lines needed to prepare it.
	Start(dir string) (useDir string, setup []string)
	// Finish returns shell lines reconciling useDir into dir.
	Finish(useDir, dir string) []string
}

// Direct runs scripts in their permanent folders.
type Direct struct{}

// SampleDir implements Stager.
func (Direct) SampleDir(baseDir, sample string) (string, error) {
	return makeSampleDir(baseDir, sample)
}

// Start implements Stager.
func (Direct) Start(dir string) (string, []string) {
	return dir, nil
}

// Finish implements Stager.
func (Direct) Finish(string, string) []string {
	return nil
}

// Scratch stages work under a node-local scratch root and copies results back.
type Scratch struct {
	// Root is the scratch directory on the execution node.
	Root string
	// ProjectDir anchors permanent paths so they can be mirrored under Root.
	ProjectDir string
}

// SampleDir implements Stager.
func (s Scratch) SampleDir(baseDir, sample string) (string, error) {
	return makeSampleDir(baseDir, sample)
}

// Start implements Stager.
func (s Scratch) Start(dir string) (string, []string) {
	useDir := filepath.Join(s.Root, s.relative(dir))
	return useDir, []string{fmt.Sprintf("mkdir -p %s", useDir)}
}

// Finish implements Stager.
func (s Scratch) Finish(useDir, dir string) []string {
	if filepath.Clean(useDir) == filepath.Clean(dir) {
		return nil
	}
	return []string{
		"# Moving staged results to permanent location",
		fmt.Sprintf("mkdir -p %s", dir),
		fmt.Sprintf("cp -rf %s/. %s/", useDir, dir),
		fmt.Sprintf("rm -rf %s", useDir),
	}
}

func (s Scratch) relative(dir string) string {
	if s.ProjectDir != "" {
		if rel, err := filepath.Rel(s.ProjectDir, dir); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return strings.TrimPrefix(filepath.Clean(dir), string(os.PathSeparator))
}

func makeSampleDir(baseDir, sample string) (string, error) {
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return "", fmt.Errorf("staging: sample name is required")
	}
	dir := filepath.Join(baseDir, sample)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("staging: ensure %s: %w", dir, err)
	}
	return dir, nil
}
