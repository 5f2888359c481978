package doctor_test

import (
	"path/filepath"
	"testing"

	"github.com/h3ow3d/whacdamole/internal/doctor"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

func TestRunChecksCoversPrerequisites(t *testing.T) {
	work := workdir.At(filepath.Join(t.TempDir(), "demo"))
	results := doctor.RunChecks(work)

	wantNames := []string{"docker", "docker compose", "helm", "kubectl", "git", "work directory access"}
	if len(results) != len(wantNames) {
		t.Fatalf("checks = %d, want %d", len(results), len(wantNames))
	}
	for i, want := range wantNames {
		if results[i].Name != want {
			t.Errorf("check %d = %q, want %q", i, results[i].Name, want)
		}
		if results[i].Message == "" {
			t.Errorf("check %q has no message", results[i].Name)
		}
		if !results[i].OK && results[i].HowToFix == "" {
			t.Errorf("failing check %q has no fix hint", results[i].Name)
		}
	}
}

func TestWorkDirCheckCreatesDirectory(t *testing.T) {
	work := workdir.At(filepath.Join(t.TempDir(), "nested", "demo"))
	results := doctor.RunChecks(work)

	last := results[len(results)-1]
	if !last.OK {
		t.Errorf("work directory check failed: %s", last.Message)
	}
}
