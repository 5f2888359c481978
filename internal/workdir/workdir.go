// Package workdir resolves the project-scoped working directory that holds
// generated artifacts: the registry-mirror file mounted into every cluster
// node, the bootstrap token, and the kubeconfig emitted by the server node.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the working directory for one project.
type Dir struct {
	path string
}

// xdgState returns the XDG state base directory, falling back to
// ~/.local/state when the environment variable is unset or empty.
func xdgState() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/state"
	}
	return filepath.Join(home, ".local/state")
}

// ForProject returns the working directory for the named project,
// $XDG_STATE_HOME/whacdamole/<project>.
func ForProject(project string) Dir {
	return Dir{path: filepath.Join(xdgState(), "whacdamole", project)}
}

// At returns a working directory rooted at an explicit path. Used in tests.
func At(path string) Dir { return Dir{path: path} }

// Path returns the directory itself.
func (d Dir) Path() string { return d.path }

// MirrorFile returns the path of the generated registry-mirror file.
func (d Dir) MirrorFile() string { return filepath.Join(d.path, "registries.yaml") }

// TokenFile returns the path of the persisted cluster bootstrap token.
func (d Dir) TokenFile() string { return filepath.Join(d.path, "token") }

// Kubeconfig returns the path where the server node writes its kubeconfig.
func (d Dir) Kubeconfig() string { return filepath.Join(d.path, "kubeconfig.yaml") }

// Ensure creates the working directory if it does not yet exist. Mode 0700:
// the token and kubeconfig are credentials.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0o700); err != nil {
		return fmt.Errorf("create work directory %s: %w", d.path, err)
	}
	return nil
}

// Remove deletes the working directory and everything in it.
func (d Dir) Remove() error {
	return os.RemoveAll(d.path)
}
