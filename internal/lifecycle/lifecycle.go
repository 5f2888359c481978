// Package lifecycle sequences the controllers into the top-level up, down
// and build operations.
package lifecycle

import (
	"fmt"

	"github.com/h3ow3d/whacdamole/internal/cluster"
	"github.com/h3ow3d/whacdamole/internal/deploy"
	"github.com/h3ow3d/whacdamole/internal/image"
	"github.com/h3ow3d/whacdamole/internal/kube"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/network"
	"github.com/h3ow3d/whacdamole/internal/registry"
	"github.com/h3ow3d/whacdamole/internal/runtime"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

// Coordinator wires the manifest to the controllers for one invocation.
type Coordinator struct {
	Manifest *manifest.Manifest
	Docker   *runtime.Docker
	Network  *network.Controller
	Registry *registry.Controller
	Cluster  *cluster.Controller
	Deployer *deploy.Orchestrator
	Builder  *image.Builder
}

// New builds a coordinator with the standard controller wiring for the
// given manifest, resolving local paths against baseDir.
func New(m *manifest.Manifest, d *runtime.Docker, baseDir string) *Coordinator {
	project := m.ProjectName()
	env := m.Spec.LocalEnvironment
	work := workdir.ForProject(project)
	net := network.NewController(d, project)

	return &Coordinator{
		Manifest: m,
		Docker:   d,
		Network:  net,
		Registry: registry.NewController(d, net, project, m.RegistryImage(), env.RegistryPort()),
		Cluster:  cluster.NewController(d, net, project, m.K3sImage(), env, work),
		Deployer: deploy.NewOrchestrator(d.Runner(), baseDir),
		Builder:  image.NewBuilder(d.Runner(), baseDir, env.RegistryPort()),
	}
}

// Build builds and pushes every manifest image, in declaration order.
func (c *Coordinator) Build() error {
	if !c.Docker.Available() {
		return fmt.Errorf("container runtime is not available")
	}
	for _, img := range c.Manifest.Spec.DockerImages {
		if err := c.Builder.BuildAndPush(img); err != nil {
			return err
		}
	}
	return nil
}

// Up brings the stack to its declared state: images are built when the
// runtime is available, registry and cluster start if enabled, then every
// chart entry deploys before any overlay entry, in manifest order. A fatal
// failure aborts without rolling back already-started components.
func (c *Coordinator) Up() error {
	m := c.Manifest
	env := m.Spec.LocalEnvironment

	if c.Docker.Available() {
		for _, img := range m.Spec.DockerImages {
			if err := c.Builder.BuildAndPush(img); err != nil {
				return err
			}
		}
	} else if len(m.Spec.DockerImages) > 0 {
		log.Skip("Container runtime unavailable, skipping image builds")
	}

	if env.EnableLocalDockerRegistry {
		if err := c.Registry.Start(); err != nil {
			return err
		}
	}

	// A freshly started local cluster takes precedence over a
	// manifest-declared external kubeconfig.
	kubeconfig := ""
	if env.EnableLocalKubernetes {
		var err error
		if kubeconfig, err = c.Cluster.Start(); err != nil {
			return err
		}
	} else if env.Kubeconfig != "" {
		info, err := kube.Inspect(env.Kubeconfig)
		if err != nil {
			return err
		}
		log.Infof("Deploying against context %s (%s)", info.Context, info.Server)
		kubeconfig = env.Kubeconfig
	}

	for _, d := range m.Spec.HelmDeployments {
		if err := c.Deployer.DeployHelm(d, kubeconfig); err != nil {
			return err
		}
	}
	for _, d := range m.Spec.KustomizeDeployments {
		if err := c.Deployer.DeployKustomize(d, kubeconfig); err != nil {
			return err
		}
	}

	log.Ok("Stack up")
	return nil
}

// Down tears the stack down: registry stop, cluster stop, network teardown,
// in that fixed order. Every step is attempted even when an earlier one
// fails; non-fatal failures are collected and reported at the end rather
// than silently discarded.
func (c *Coordinator) Down() error {
	if !c.Docker.Available() {
		log.Skip("Container runtime unavailable, nothing to tear down")
		return nil
	}

	type step struct {
		name string
		run  func() error
	}
	steps := []step{
		{"registry stop", c.Registry.Stop},
		{"cluster stop", c.Cluster.Stop},
		{"network teardown", c.Network.Teardown},
	}

	var failures []string
	for _, s := range steps {
		if err := s.run(); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
		}
	}

	if len(failures) > 0 {
		log.Warnf("Teardown finished with %d unresolved step(s):", len(failures))
		for _, f := range failures {
			log.Errorf("  %s", f)
		}
	} else {
		log.Ok("Stack down")
	}

	// Teardown is best-effort: leftover resources are reported above but
	// do not fail the invocation.
	return nil
}
