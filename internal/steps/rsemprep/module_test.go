package rsemprep

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/seqsteps/internal/datastore"
	"github.com/kingrea/seqsteps/internal/staging"
	"github.com/kingrea/seqsteps/internal/step"
)

func newStore(t *testing.T, samples ...string) *datastore.Store {
	t.Helper()
	store := datastore.New("proj", nil)
	for _, sample := range samples {
		require.NoError(t, store.AddSample(sample))
	}
	return store
}

func newParams(scope string, redirects ...string) *step.Params {
	return &step.Params{
		Module:     moduleID,
		Name:       "RSEM1",
		ScriptPath: "rsem-prepare-reference",
		Scope:      scope,
		Redirects:  step.NewRedirects(redirects...),
		Options:    map[string]any{},
	}
}

func run(t *testing.T, store *datastore.Store, params *step.Params) (*step.Context, step.Result, error) {
	t.Helper()
	ctx := step.NewContext(store, nil, nil).ForInstance(params.Name, t.TempDir())
	result, err := step.NewInstance(New(params), ctx).Run()
	return ctx, result, err
}

func slotsOf(regs []datastore.Registration, unit string) []datastore.Slot {
	var out []datastore.Slot
	for _, reg := range regs {
		if reg.Unit == unit {
			out = append(out, reg.Slot)
		}
	}
	return out
}

func TestCompanionFilesFollowOverridePolicy(t *testing.T) {
	store := newStore(t, "S1")
	require.NoError(t, store.Set("S1", datastore.FastaNucl, "/data/S1.fa"))
	require.NoError(t, store.Set("S1", datastore.NoPolyASubset, "/data/nopolya.txt"))
	require.NoError(t, store.Set("S1", datastore.GTF, "/data/store.gtf"))
	require.NoError(t, store.Set("S1", datastore.TranscriptToGeneMap, "/data/t2g.txt"))

	ctx, result, err := run(t, store, newParams("sample", "--gtf", "/user/genes.gtf", "-p", "4"))
	require.NoError(t, err)
	require.Len(t, result.Scripts, 1)

	dir := filepath.Join(ctx.BaseDir, "S1")
	want := []string{
		"rsem-prepare-reference",
		"--gtf", "/user/genes.gtf",
		"-p", "4",
		"--transcript-to-gene-map", "/data/t2g.txt",
		"--no-polyA-subset", "/data/nopolya.txt",
		"/data/S1.fa",
		filepath.Join(dir, "S1_rsem_ref"),
	}
	if diff := cmp.Diff(want, result.Scripts[0].Commands()[0].Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, result.Scripts[0].Render(), "/data/store.gtf")
}

func TestStarSlotsOnlyWithStarRedirect(t *testing.T) {
	for _, tc := range []struct {
		name      string
		redirects []string
		want      []datastore.Slot
	}{
		{name: "without star", want: []datastore.Slot{datastore.RSEMIndex, datastore.RSEMFasta}},
		{
			name:      "with star",
			redirects: []string{"--star", ""},
			want:      []datastore.Slot{datastore.RSEMIndex, datastore.RSEMFasta, datastore.STARIndex, datastore.STARFasta},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t, "S1", "S2")
			require.NoError(t, store.Set("S1", datastore.FastaNucl, "/data/S1.fa"))
			require.NoError(t, store.Set("S2", datastore.FastaNucl, "/data/S2.fa"))
			ctx, result, err := run(t, store, newParams("sample", tc.redirects...))
			require.NoError(t, err)
			assert.Len(t, result.Scripts, 2)
			for _, sample := range []string{"S1", "S2"} {
				assert.Equal(t, tc.want, slotsOf(result.Registered, sample), sample)
			}
			assert.Empty(t, slotsOf(result.Registered, datastore.ProjectKey))

			index, err := store.Get("S2", datastore.RSEMIndex)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(ctx.BaseDir, "S2", "S2_rsem_ref"), index)
			if len(tc.redirects) > 0 {
				starIndex, _ := store.Lookup("S2", datastore.STARIndex)
				assert.Equal(t, filepath.Join(ctx.BaseDir, "S2"), starIndex)
			}
		})
	}
}

func TestReferenceDefaultsToProjectScope(t *testing.T) {
	store := newStore(t, "S1", "S2")
	params := newParams("")
	params.Options[optionReference] = "/refs/genome.fa"
	ctx, result, err := run(t, store, params)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Scripts, 1)
	assert.Equal(t, "RSEM_prep_RSEM1_proj", result.Scripts[0].Name)

	fasta, err := store.Get(datastore.ProjectKey, datastore.RSEMFasta)
	require.NoError(t, err)
	assert.Equal(t, "/refs/genome.fa", fasta)
	index, _ := store.Lookup(datastore.ProjectKey, datastore.RSEMIndex)
	assert.Equal(t, filepath.Join(ctx.BaseDir, "proj_rsem_ref"), index)
}

func TestReferenceScopeHandling(t *testing.T) {
	store := newStore(t, "S1", "S2")
	params := newParams("sample")
	params.Options[optionReference] = "/refs/genome.fa"
	_, result, err := run(t, store, params)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "sample-scope external reference")
	assert.Len(t, result.Scripts, 2)

	params = newParams("everything")
	params.Options[optionReference] = "/refs/genome.fa"
	_, result, err = run(t, newStore(t, "S1"), params)
	require.NoError(t, err)
	require.Len(t, result.Scripts, 1)
	assert.Equal(t, datastore.ProjectKey, result.Scripts[0].Unit)
}

func TestScopeRequiredWithoutReference(t *testing.T) {
	store := newStore(t, "S1")
	_, result, err := run(t, store, newParams(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scope is required")
	assert.Empty(t, result.AllScripts())
}

func TestMissingFastaNamesSample(t *testing.T) {
	store := newStore(t, "S1", "S2")
	require.NoError(t, store.Set("S1", datastore.FastaNucl, "/data/S1.fa"))
	_, _, err := run(t, store, newParams("sample"))
	require.Error(t, err)
	var stepErr *step.Error
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "S2", stepErr.Sample)
	assert.False(t, store.Has("S1", datastore.RSEMIndex))

	_, _, err = run(t, store, newParams("project"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fasta.nucl defined for project")
}

func TestRepeatedBuildReportsEveryWrittenSlot(t *testing.T) {
	store := newStore(t, "S1")
	require.NoError(t, store.Set(datastore.ProjectKey, datastore.FastaNucl, "/data/Trinity.fasta"))
	base := t.TempDir()
	want := []datastore.Registration{
		{Unit: datastore.ProjectKey, Slot: datastore.RSEMIndex, Value: filepath.Join(base, "proj_rsem_ref")},
		{Unit: datastore.ProjectKey, Slot: datastore.RSEMFasta, Value: "/data/Trinity.fasta"},
	}
	for i := 0; i < 2; i++ {
		ctx := step.NewContext(store, nil, nil).ForInstance("RSEM1", base)
		result, err := step.NewInstance(New(newParams("project")), ctx).Run()
		require.NoError(t, err)
		assert.Equal(t, want, result.Registered, "run %d", i+1)
	}
}

func TestScratchStagingRegistersPermanentPaths(t *testing.T) {
	store := newStore(t, "S1")
	require.NoError(t, store.Set("S1", datastore.FastaNucl, "/data/S1.fa"))
	base := t.TempDir()
	stager := staging.Scratch{Root: "/scratch/job", ProjectDir: filepath.Dir(base)}
	ctx := step.NewContext(store, stager, nil).ForInstance("RSEM1", base)
	result, err := step.NewInstance(New(newParams("sample", "--star", "")), ctx).Run()
	require.NoError(t, err)
	require.Len(t, result.Scripts, 1)

	staged := filepath.Join("/scratch/job", filepath.Base(base), "S1")
	dir := filepath.Join(base, "S1")
	script := result.Scripts[0]
	assert.Equal(t, staged, script.Dir)
	tokens := script.Commands()[0].Tokens()
	assert.Equal(t, filepath.Join(staged, "S1_rsem_ref"), tokens[len(tokens)-1])
	body := script.Render()
	assert.Contains(t, body, "mkdir -p "+staged)
	assert.Contains(t, body, "cp -rf "+staged+"/. "+dir+"/")

	index, _ := store.Lookup("S1", datastore.RSEMIndex)
	assert.Equal(t, filepath.Join(dir, "S1_rsem_ref"), index)
	starIndex, _ := store.Lookup("S1", datastore.STARIndex)
	assert.Equal(t, dir, starIndex)
}

type brokenSampleStager struct {
	staging.Direct
	sample string
}

func (b brokenSampleStager) SampleDir(baseDir, sample string) (string, error) {
	if sample == b.sample {
		return "", errors.New("disk full")
	}
	return b.Direct.SampleDir(baseDir, sample)
}

func TestFailedUnitRegistersNothing(t *testing.T) {
	store := newStore(t, "S1", "S2")
	require.NoError(t, store.Set("S1", datastore.FastaNucl, "/data/S1.fa"))
	require.NoError(t, store.Set("S2", datastore.FastaNucl, "/data/S2.fa"))
	ctx := step.NewContext(store, brokenSampleStager{sample: "S2"}, nil).ForInstance("RSEM1", t.TempDir())
	_, err := step.NewInstance(New(newParams("sample")), ctx).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	for _, slot := range []datastore.Slot{datastore.RSEMIndex, datastore.RSEMFasta} {
		assert.False(t, store.Has("S1", slot), slot)
	}
}
