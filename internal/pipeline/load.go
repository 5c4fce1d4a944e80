package pipeline

import (
	"path/filepath"

	"github.com/kingrea/seqsteps/internal/config"
	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/logbook"
	"github.com/kingrea/seqsteps/internal/paramfile"
	"github.com/kingrea/seqsteps/internal/step"
)

// Options locates the inputs of a build.
type Options struct {
	ProjectDir string
	// ParamFile and SampleFile may be relative to ProjectDir.
	ParamFile  string
	SampleFile string
}

// Load reads the project configuration, samples and parameters, then plans
// the pipeline. Nothing is written to disk except the log.
func Load(opts Options, registry *step.Registry) (*Plan, error) {
	cfg, err := config.NewConfig(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		return nil, err
	}
	store, err := datastore.LoadSampleFile(within(cfg.ProjectDir, opts.SampleFile), cfg.Schema())
	if err != nil {
		lb.Error("%v", err)
		return nil, err
	}
	params, err := paramfile.LoadFile(within(cfg.ProjectDir, opts.ParamFile))
	if err != nil {
		lb.Error("%v", err)
		return nil, err
	}
	return NewBuilder(cfg, registry, lb).Plan(params, store)
}

func within(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
