package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/seqsteps/internal/pipeline"
	"github.com/kingrea/seqsteps/internal/steps"
)

const testSamples = `title: preview_demo
samples:
  - name: S1
    slots:
      fasta.nucl: /data/S1.fa
  - name: S2
    slots:
      fasta.nucl: /data/S2.fa
`

const testParams = `Step_params:
  rsem1:
    module: RSEM_prep
    script_path: rsem-prepare-reference
    scope: sample
    redirects:
      --star:
  busco1:
    module: BUSCO
    base: rsem1
    script_path: run_BUSCO.py
    scope: sample
    redirects:
      --mode: tran
      --lineage: /db/eukaryota_odb9
      --out: ignored
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "samples.yaml"), []byte(testSamples), 0o644); err != nil {
		t.Fatalf("write samples: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "params.yaml"), []byte(testParams), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	plan, err := pipeline.Load(pipeline.Options{ProjectDir: dir, ParamFile: "params.yaml", SampleFile: "samples.yaml"}, steps.NewRegistry())
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	app, err := NewApp(plan)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(*App)
}

func press(t *testing.T, app *App, msg tea.KeyMsg) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	next, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	return next, cmd
}

func TestSelectionStartsAtFirstScript(t *testing.T) {
	app := newTestApp(t)
	if got := app.Selected().Script.Name; got != "RSEM_prep_rsem1_S1" {
		t.Fatalf("expected first script selected, got %s", got)
	}
	view := app.View()
	for _, want := range []string{"SEQSTEPS · preview_demo", "RSEM_prep_rsem1_S1.sh", "rsem-prepare-reference"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDownMovesSelectionAndBody(t *testing.T) {
	app := newTestApp(t)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if got := app.Selected().Script.Name; got != "RSEM_prep_rsem1_S2" {
		t.Fatalf("expected second script, got %s", got)
	}
	if !strings.Contains(app.body.View(), "/data/S2.fa") {
		t.Fatalf("body should show the S2 script:\n%s", app.body.View())
	}
}

func TestTabMovesFocusToBody(t *testing.T) {
	app := newTestApp(t)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != focusBody {
		t.Fatalf("tab should focus the script body")
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if got := app.Selected().Script.Name; got != "RSEM_prep_rsem1_S1" {
		t.Fatalf("selection must not move while reading, got %s", got)
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.focus != focusScripts {
		t.Fatalf("esc should return focus to the script list")
	}
}

func TestQuitKey(t *testing.T) {
	app := newTestApp(t)
	_, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q should quit")
	}
}

func TestWarningsAreShown(t *testing.T) {
	app := newTestApp(t)
	view := app.View()
	if !strings.Contains(view, "1 warning(s)") || !strings.Contains(view, "[busco1] --out is not supposed to be redirected") {
		t.Fatalf("warnings missing from view:\n%s", view)
	}
}

func TestNewAppRejectsEmptyPlan(t *testing.T) {
	if _, err := NewApp(nil); err == nil {
		t.Fatalf("expected error for nil plan")
	}
	if _, err := NewApp(&pipeline.Plan{}); err == nil {
		t.Fatalf("expected error for empty plan")
	}
}
