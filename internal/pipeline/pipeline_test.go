package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/steps"
)

const sampleSheet = `title: Trinity_demo
project:
  fasta.nucl: assembly/Trinity.fasta
  gtf: assembly/genes.gtf
samples:
  - name: S1
    slots:
      fasta.nucl: assembly/S1.fasta
  - name: S2
    slots:
      fasta.nucl: assembly/S2.fasta
`

const paramSheet = `Vars:
  busco: python /opt/busco/run_BUSCO.py
Step_params:
  RSEM_ref:
    module: RSEM_prep
    script_path: rsem-prepare-reference
    scope: project
    redirects:
      --star:
  BUSCO_download:
    module: BUSCO
    base: RSEM_ref
    script_path: '{Vars.busco}'
    scope: project
    get_lineage: http://busco.ezlab.org/datasets/eukaryota_odb9.tar.gz
    redirects:
      -m: tran
  BUSCO_samples:
    module: BUSCO
    base: BUSCO_download
    script_path: '{Vars.busco}'
    scope: sample
    redirects:
      --mode: geno
      --out: ignored
`

func writeProject(t *testing.T, params string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "samples.yaml"), []byte(sampleSheet), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "params.yaml"), []byte(params), 0o644))
	return dir
}

func load(t *testing.T, dir string) (*Plan, error) {
	t.Helper()
	return Load(Options{ProjectDir: dir, ParamFile: "params.yaml", SampleFile: "samples.yaml"}, steps.NewRegistry())
}

func TestLoadPlansStepsInOrder(t *testing.T) {
	dir := writeProject(t, paramSheet)
	plan, err := load(t, dir)
	require.NoError(t, err)
	require.Len(t, plan.Nodes, 3)

	rsem, ok := plan.Node("RSEM_ref")
	require.True(t, ok)
	assert.Equal(t, []string{"BUSCO_download"}, rsem.Dependents)
	assert.Equal(t, filepath.Join(dir, "scripts", "01.RSEM_prep_RSEM_ref"), rsem.ScriptsDir)
	require.Len(t, rsem.Files, 1)
	body := rsem.Files[0].Script.Render()
	assert.Contains(t, body, "--gtf "+filepath.Join(dir, "assembly", "genes.gtf"))
	assert.True(t, plan.Store.Has(datastore.ProjectKey, datastore.STARIndex))

	download, _ := plan.Node("BUSCO_download")
	require.NotNil(t, download.Result.Preliminary)
	assert.Len(t, download.Files, 2)

	samples, _ := plan.Node("BUSCO_samples")
	require.Len(t, samples.Files, 2)
	lineage := filepath.Join(download.DataDir, "eukaryota_odb9")
	for _, file := range samples.Files {
		assert.Contains(t, file.Script.Render(), "--lineage "+lineage)
	}
	assert.Equal(t, []string{"[BUSCO_samples] --out is not supposed to be redirected; it is set automatically"}, plan.Warnings())
	assert.Len(t, plan.Scripts(), 5)
}

func TestWriteLaysOutScripts(t *testing.T) {
	dir := writeProject(t, paramSheet)
	plan, err := load(t, dir)
	require.NoError(t, err)
	require.NoError(t, plan.Write())

	for _, file := range plan.Scripts() {
		data, err := os.ReadFile(file.Path)
		require.NoError(t, err, file.Path)
		assert.True(t, strings.HasPrefix(string(data), "#!/usr/bin/env bash\n\n"), file.Path)
		info, err := os.Stat(file.Path)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0o100, "script must be executable")
	}

	master, err := os.ReadFile(filepath.Join(dir, "scripts", "00.workflow.commands.sh"))
	require.NoError(t, err)
	text := string(master)
	first := strings.Index(text, "RSEM_prep_RSEM_ref_Trinity_demo.sh")
	prelim := strings.Index(text, "BUSCO_BUSCO_download_preliminary.sh")
	last := strings.Index(text, "BUSCO_BUSCO_samples_S2.sh")
	require.True(t, first >= 0 && prelim > first && last > prelim, "unexpected master script:\n%s", text)

	logData, err := os.ReadFile(filepath.Join(dir, "logs", "seqsteps.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "[BUSCO_samples]")
}

func TestBaseMustReferenceEarlierStep(t *testing.T) {
	params := strings.Replace(paramSheet, "base: RSEM_ref", "base: BUSCO_samples", 1)
	_, err := load(t, writeProject(t, params))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base BUSCO_samples is not an earlier step")
}

func TestFailingStepAbortsBuild(t *testing.T) {
	params := strings.Replace(paramSheet, "-m: tran", "-m: rna", 1)
	dir := writeProject(t, params)
	_, err := load(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step BUSCO_download (BUSCO)")
	_, statErr := os.Stat(filepath.Join(dir, "scripts", "00.workflow.commands.sh"))
	assert.True(t, os.IsNotExist(statErr))
}
