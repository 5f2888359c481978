package workdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/h3ow3d/whacdamole/internal/workdir"
)

func TestForProjectUsesXDGStateHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", base)

	d := workdir.ForProject("demo")
	want := filepath.Join(base, "whacdamole", "demo")
	if d.Path() != want {
		t.Errorf("Path = %q, want %q", d.Path(), want)
	}
}

func TestArtifactPathsLiveInsideDir(t *testing.T) {
	d := workdir.At("/state/whacdamole/demo")

	cases := map[string]string{
		d.MirrorFile(): "registries.yaml",
		d.TokenFile():  "token",
		d.Kubeconfig(): "kubeconfig.yaml",
	}
	for path, base := range cases {
		if filepath.Dir(path) != d.Path() {
			t.Errorf("%s not inside %s", path, d.Path())
		}
		if filepath.Base(path) != base {
			t.Errorf("artifact = %s, want basename %s", path, base)
		}
	}
}

func TestEnsureCreatesPrivateDir(t *testing.T) {
	d := workdir.At(filepath.Join(t.TempDir(), "nested", "demo"))

	if err := d.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	fi, err := os.Stat(d.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !fi.IsDir() {
		t.Fatal("not a directory")
	}
	if perm := fi.Mode().Perm(); perm != 0o700 {
		t.Errorf("perm = %o, want 0700 (holds credentials)", perm)
	}
	// Second Ensure on an existing directory is a no-op.
	if err := d.Ensure(); err != nil {
		t.Fatalf("Ensure (existing): %v", err)
	}
}

func TestRemoveToleratesAbsentDir(t *testing.T) {
	d := workdir.At(filepath.Join(t.TempDir(), "never-created"))
	if err := d.Remove(); err != nil {
		t.Errorf("Remove on absent dir: %v", err)
	}
}
