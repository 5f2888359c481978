// Package image builds and pushes the manifest's Docker images, in
// declaration order, one blocking tool call at a time.
package image

import (
	"fmt"
	"path/filepath"

	"github.com/h3ow3d/whacdamole/internal/cluster"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// Builder builds and pushes images described by the manifest.
type Builder struct {
	run     runtime.Runner
	baseDir string
	// registryPort resolves the local registry alias to localhost for
	// pushes from outside the project network.
	registryPort int
}

// NewBuilder returns a builder resolving build contexts against baseDir.
func NewBuilder(r runtime.Runner, baseDir string, registryPort int) *Builder {
	return &Builder{run: r, baseDir: baseDir, registryPort: registryPort}
}

// reference returns the full image reference for one tag. Images targeting
// the reserved local registry alias are pushed through the host-side port
// binding; cluster nodes pull them back through the alias mirror.
func (b *Builder) reference(img manifest.DockerImage, tag string) string {
	registry := img.Registry
	if registry == cluster.LocalRegistryAlias {
		registry = fmt.Sprintf("localhost:%d", b.registryPort)
	}
	if registry == "" {
		return img.Name + ":" + tag
	}
	return registry + "/" + img.Name + ":" + tag
}

// BuildAndPush builds the image's context once per tag and pushes each
// resulting reference. Any tool failure is fatal; there is no retry on the
// build path.
func (b *Builder) BuildAndPush(img manifest.DockerImage) error {
	dir := img.Directory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.baseDir, dir)
	}

	for _, tag := range img.Tags {
		ref := b.reference(img, tag)

		log.Infof("Building %s", ref)
		if err := b.run.Run("docker", "build", "-t", ref, dir); err != nil {
			return fmt.Errorf("docker build %s: %w", ref, err)
		}

		log.Infof("Pushing %s", ref)
		if err := b.run.Run("docker", "push", ref); err != nil {
			return fmt.Errorf("docker push %s: %w", ref, err)
		}

		log.Okf("Image %s pushed", ref)
	}
	return nil
}
