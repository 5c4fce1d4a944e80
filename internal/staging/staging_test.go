package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirectStartsInPlace(t *testing.T) {
	base := t.TempDir()
	dir, err := Direct{}.SampleDir(base, "S1")
	if err != nil {
		t.Fatalf("sample dir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to exist", dir)
	}
	useDir, setup := Direct{}.Start(dir)
	if useDir != dir || setup != nil {
		t.Fatalf("direct staging should not move work: %s %v", useDir, setup)
	}
	if lines := (Direct{}).Finish(useDir, dir); lines != nil {
		t.Fatalf("direct finish should be empty, got %v", lines)
	}
}

func TestScratchMirrorsProjectLayout(t *testing.T) {
	project := t.TempDir()
	s := Scratch{Root: "/scratch/job", ProjectDir: project}
	dir := filepath.Join(project, "data", "BUSCO", "BUSCO1", "S1")
	useDir, setup := s.Start(dir)
	if want := "/scratch/job/data/BUSCO/BUSCO1/S1"; useDir != want {
		t.Fatalf("useDir = %s, want %s", useDir, want)
	}
	if len(setup) != 1 || setup[0] != "mkdir -p "+useDir {
		t.Fatalf("unexpected setup lines %v", setup)
	}
	lines := s.Finish(useDir, dir)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "cp -rf "+useDir+"/. "+dir+"/") {
		t.Fatalf("finish should copy staged files back:\n%s", joined)
	}
}

func TestSampleDirRequiresName(t *testing.T) {
	if _, err := (Direct{}).SampleDir(t.TempDir(), " "); err == nil {
		t.Fatalf("expected blank sample to fail")
	}
}
