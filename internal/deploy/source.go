// Package deploy drives chart and overlay deployments to convergence
// against a target control plane using the bounded retry protocol.
package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// sourceRoot returns the directory deployment paths are resolved against.
// When gitRepo is set, the repository is cloned into a fresh temporary
// workspace and the returned cleanup removes it; cleanup must run
// regardless of deployment outcome. Without a repository the root is
// baseDir and cleanup is a no-op.
func sourceRoot(r runtime.Runner, baseDir, gitRepo, branch string) (string, func(), error) {
	if gitRepo == "" {
		return baseDir, func() {}, nil
	}

	workspace, err := os.MkdirTemp("", "whacdamole-clone-*")
	if err != nil {
		return "", nil, fmt.Errorf("create clone workspace: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(workspace) }

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, gitRepo, workspace)

	log.Infof("Cloning %s", gitRepo)
	if err := r.Run("git", args...); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("git clone %s: %w", gitRepo, err)
	}

	return workspace, cleanup, nil
}

// resolve joins rel onto root unless rel is already absolute.
func resolve(root, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, rel)
}
