// internal/config/config.go
//
// This package handles the project configuration and the output directory
// layout. A project is any directory holding a sample file and a parameter
// file; seqsteps.yaml in that directory is optional.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/staging"
)

const (
	// FileName is the project configuration file looked up in the project dir.
	FileName = "seqsteps.yaml"

	// WorkflowScript is the master script that runs every step script in order.
	WorkflowScript = "00.workflow.commands.sh"

	defaultDataDir    = "data"
	defaultScriptsDir = "scripts"
	defaultLogsDir    = "logs"
	defaultShell      = "bash"
	defaultParallel   = 4
)

const defaultProjectConfigYAML = `# seqsteps project configuration
version: 1

# Output layout, relative to the project directory.
data_dir: data
scripts_dir: scripts
logs_dir: logs

# Stage work under a node-local directory and copy results back when done.
# scratch_dir: /scratch/$USER

shell: bash
max_parallel: 4

# Extra sample data slots accepted in sample files.
# extra_slots:
#   - bam
`

// ProjectConfig models seqsteps.yaml.
type ProjectConfig struct {
	Version     int      `yaml:"version"`
	DataDir     string   `yaml:"data_dir"`
	ScriptsDir  string   `yaml:"scripts_dir"`
	LogsDir     string   `yaml:"logs_dir"`
	ScratchDir  string   `yaml:"scratch_dir,omitempty"`
	Shell       string   `yaml:"shell"`
	MaxParallel int      `yaml:"max_parallel"`
	ExtraSlots  []string `yaml:"extra_slots,omitempty"`
}

// Config holds the runtime configuration for one project.
type Config struct {
	// ProjectDir is the absolute project directory.
	ProjectDir string

	Project ProjectConfig
}

// InitProject creates the output directories and a commented seqsteps.yaml
// when none exists.
func InitProject(projectDir string) error {
	cfg, err := NewConfig(projectDir)
	if err != nil {
		return err
	}
	for _, dir := range []string{cfg.DataDir(), cfg.ScriptsDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(cfg.ProjectConfigPath())
}

// NewConfig creates a new Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	if strings.TrimSpace(projectDir) == "" {
		projectDir = "."
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{ProjectDir: abs, Project: defaultProjectConfig()}
	cfg.Project.normalize(abs)
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ProjectDir, FileName)
}

// DataDir returns the root of step output folders.
func (c *Config) DataDir() string {
	return c.Project.DataDir
}

// ScriptsDir returns the root of generated scripts.
func (c *Config) ScriptsDir() string {
	return c.Project.ScriptsDir
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return c.Project.LogsDir
}

// LogPath returns the pipeline log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "seqsteps.log")
}

// StepDataDir returns the permanent output folder of a step instance.
func (c *Config) StepDataDir(module, name string) string {
	return filepath.Join(c.DataDir(), module, name)
}

// StepScriptsDir returns the script folder of the index-th step instance.
func (c *Config) StepScriptsDir(index int, module, name string) string {
	return filepath.Join(c.ScriptsDir(), fmt.Sprintf("%02d.%s_%s", index, module, name))
}

// WorkflowScriptPath returns the master script location.
func (c *Config) WorkflowScriptPath() string {
	return filepath.Join(c.ScriptsDir(), WorkflowScript)
}

// Schema returns the default slot schema extended with extra_slots.
func (c *Config) Schema() datastore.Schema {
	schema := datastore.DefaultSchema()
	for _, slot := range c.Project.ExtraSlots {
		schema.Declare(datastore.Slot(slot))
	}
	return schema
}

// Stager returns scratch staging when scratch_dir is set, direct otherwise.
func (c *Config) Stager() staging.Stager {
	if c.Project.ScratchDir == "" {
		return staging.Direct{}
	}
	return staging.Scratch{Root: c.Project.ScratchDir, ProjectDir: c.ProjectDir}
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:     1,
		DataDir:     defaultDataDir,
		ScriptsDir:  defaultScriptsDir,
		LogsDir:     defaultLogsDir,
		Shell:       defaultShell,
		MaxParallel: defaultParallel,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.DataDir) == "" {
		pc.DataDir = defaultDataDir
	}
	if strings.TrimSpace(pc.ScriptsDir) == "" {
		pc.ScriptsDir = defaultScriptsDir
	}
	if strings.TrimSpace(pc.LogsDir) == "" {
		pc.LogsDir = defaultLogsDir
	}
	if strings.TrimSpace(pc.Shell) == "" {
		pc.Shell = defaultShell
	}
	if pc.MaxParallel == 0 {
		pc.MaxParallel = defaultParallel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.DataDir = resolvePath(base, pc.DataDir)
	pc.ScriptsDir = resolvePath(base, pc.ScriptsDir)
	pc.LogsDir = resolvePath(base, pc.LogsDir)
	pc.ScratchDir = resolvePath(base, os.ExpandEnv(pc.ScratchDir))
	pc.Shell = strings.TrimSpace(pc.Shell)
	var slots []string
	for _, slot := range pc.ExtraSlots {
		if trimmed := strings.TrimSpace(slot); trimmed != "" && !contains(slots, trimmed) {
			slots = append(slots, trimmed)
		}
	}
	pc.ExtraSlots = slots
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be >= 1")
	}
	if pc.ScratchDir != "" && pc.ScratchDir == pc.DataDir {
		return fmt.Errorf("scratch_dir must differ from data_dir")
	}
	for i, slot := range pc.ExtraSlots {
		if strings.ContainsAny(slot, " \t/") {
			return fmt.Errorf("extra_slots[%d]: %q must not contain spaces or slashes", i, slot)
		}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
