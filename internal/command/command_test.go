package command

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderHasNoDanglingContinuation(t *testing.T) {
	cmd := New("/opt/busco/run_BUSCO.py").
		Flag("--mode", "transcriptome").
		Flag("--force").
		Flag("--out", "S1")
	got := cmd.Render()
	want := "/opt/busco/run_BUSCO.py \\\n\t--mode transcriptome \\\n\t--force \\\n\t--out S1"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	if strings.HasSuffix(got, "\\") || strings.HasSuffix(got, "\t") {
		t.Fatalf("render ends with continuation: %q", got)
	}
}

func TestTokensKeepOrder(t *testing.T) {
	cmd := New("rsem-prepare-reference").
		Flag("--gtf", "/ref.gtf").
		Positional("/ref.fa").
		Positional("/out/S1_rsem_ref")
	want := []string{"rsem-prepare-reference", "--gtf", "/ref.gtf", "/ref.fa", "/out/S1_rsem_ref"}
	if diff := cmp.Diff(want, cmd.Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	prefix := New("tool").Flag("--cpu", "4")
	first := prefix.Clone().Flag("--in", "a")
	second := prefix.Clone().Flag("--in", "b")
	if !first.HasFlag("--in") || !second.HasFlag("--in") {
		t.Fatalf("clones should carry their own flags")
	}
	if prefix.HasFlag("--in") {
		t.Fatalf("prefix must not be mutated by clones")
	}
	if diff := cmp.Diff([][]string{{"--cpu", "4"}, {"--in", "b"}}, second.Groups()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderProgramOnly(t *testing.T) {
	if got := New("tool").Render(); got != "tool" {
		t.Fatalf("render = %q", got)
	}
}

func TestValueReadsFirstMatchingFlag(t *testing.T) {
	cmd := New("tool").Flag("--mode", "tran").Flag("--files", "a", "b").Flag("--mode", "geno")
	if got := cmd.Value("--mode"); got != "tran" {
		t.Fatalf("Value(--mode) = %q", got)
	}
	if got := cmd.Value("--files"); got != "a b" {
		t.Fatalf("Value(--files) = %q", got)
	}
	if got := cmd.Value("--missing"); got != "" {
		t.Fatalf("Value(--missing) = %q", got)
	}
}
