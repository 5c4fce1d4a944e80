package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kingrea/seqsteps/internal/config"
	"github.com/kingrea/seqsteps/internal/execute"
	"github.com/kingrea/seqsteps/internal/pipeline"
	"github.com/kingrea/seqsteps/internal/steps"
	"github.com/kingrea/seqsteps/internal/tui"
)

// Set with -ldflags at build time.
var version = "dev"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	stepStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type rootOptions struct {
	project string
	params  string
	samples string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "seqsteps",
		Short: "Builds shell scripts for sequence analysis steps.",
		Long: `seqsteps reads a parameter file and a sample file, drives every step
instance in order and writes one shell script per sample (or one per project)
under the scripts directory, plus a master script that runs them all.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.project, "project", "p", "", "project directory (defaults to the working directory)")
	root.PersistentFlags().StringVar(&opts.params, "params", "params.yaml", "parameter file, relative to the project directory")
	root.PersistentFlags().StringVar(&opts.samples, "samples", "samples.yaml", "sample file, relative to the project directory")

	root.AddCommand(
		newInitCmd(opts),
		newBuildCmd(opts),
		newPreviewCmd(opts),
		newRunCmd(opts),
		newStepsCmd(),
	)
	return root
}

func (o *rootOptions) projectDir() (string, error) {
	dir := strings.TrimSpace(o.project)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = wd
	}
	return filepath.Abs(dir)
}

func (o *rootOptions) load() (*pipeline.Plan, error) {
	dir, err := o.projectDir()
	if err != nil {
		return nil, err
	}
	return pipeline.Load(pipeline.Options{
		ProjectDir: dir,
		ParamFile:  o.params,
		SampleFile: o.samples,
	}, steps.NewRegistry())
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the project layout and a default " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.projectDir()
			if err != nil {
				return err
			}
			if err := config.InitProject(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", filepath.Join(dir, config.FileName))
			return nil
		},
	}
}

func newBuildCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Write every step script and the master workflow script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := opts.load()
			if err != nil {
				return err
			}
			if err := plan.Write(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary(plan))
			return nil
		},
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Browse the generated scripts without writing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := opts.load()
			if err != nil {
				return err
			}
			return tui.Run(plan)
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		maxParallel int
		only        []string
		graph       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the scripts, then run them locally in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxParallel < 0 {
				return fmt.Errorf("--max-parallel must not be negative")
			}
			if graph != "" {
				abs, err := filepath.Abs(graph)
				if err != nil {
					return fmt.Errorf("resolve graph path: %w", err)
				}
				graph = abs
			}
			plan, err := opts.load()
			if err != nil {
				return err
			}
			if err := plan.Write(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary(plan))
			return execute.Run(plan, execute.Options{MaxParallel: maxParallel, Only: only, Graph: graph})
		},
	}
	cmd.Flags().IntVarP(&maxParallel, "max-parallel", "j", 0, "scripts to run at once (0 uses the project setting)")
	cmd.Flags().StringArrayVar(&only, "only", nil, "run only scripts matching this regex and what they depend on (repeatable)")
	cmd.Flags().StringVar(&graph, "graph", "", "write a dot graph of the workflow to this file instead of running it")
	return cmd
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the available step modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, module := range steps.NewRegistry().Modules() {
				fmt.Fprintln(cmd.OutOrStdout(), module)
			}
			return nil
		},
	}
}

func summary(plan *pipeline.Plan) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(plan.Store.Title()) + "\n")
	for _, node := range plan.Nodes {
		fmt.Fprintf(&b, "%s %s\n",
			stepStyle.Render(fmt.Sprintf("%02d %s", node.Index, node.ID)),
			mutedStyle.Render(fmt.Sprintf("(%s, %d script(s))", node.Params.Module, len(node.Files))))
		for _, file := range node.Files {
			fmt.Fprintf(&b, "   %s\n", file.Path)
		}
	}
	for _, warning := range plan.Warnings() {
		b.WriteString(warnStyle.Render("warning: "+warning) + "\n")
	}
	fmt.Fprintf(&b, "master script: %s\n", plan.Config.WorkflowScriptPath())
	return b.String()
}
