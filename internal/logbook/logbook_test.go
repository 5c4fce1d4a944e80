package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seqsteps.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestStepEntriesAreTaggedAndCounted(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "logs", "seqsteps.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Step(LevelWarn, "BUSCO1", "removed %s", "--out")
	book.Step(LevelInfo, "BUSCO1", "built %d scripts", 2)
	if got := book.Warnings(); got != 1 {
		t.Fatalf("warnings = %d, want 1", got)
	}
	lines, _ := book.Tail(2)
	if !strings.Contains(lines[0], "WARN  [BUSCO1] removed --out") {
		t.Fatalf("unexpected warn line %q", lines[0])
	}
}

func TestNilLogbookIsNoop(t *testing.T) {
	var book *Logbook
	book.Warn("ignored")
	if lines, total := book.Tail(1); lines != nil || total != 0 {
		t.Fatalf("nil logbook should return nothing")
	}
	if book.Warnings() != 0 {
		t.Fatalf("nil logbook should count no warnings")
	}
}
