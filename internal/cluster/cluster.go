// Package cluster manages the multi-node k3s topology: one privileged
// server container plus N agents, all joined to the project network and
// mounting the generated registry-mirror file.
package cluster

import (
	"fmt"
	"os"
	"strings"

	"github.com/h3ow3d/whacdamole/internal/compose"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/names"
	"github.com/h3ow3d/whacdamole/internal/network"
	"github.com/h3ow3d/whacdamole/internal/runtime"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

// apiPort is the Kubernetes API port exposed by the server node.
const apiPort = 6443

// mirrorMountPath is where the cluster software reads its registries file.
const mirrorMountPath = "/etc/rancher/k3s/registries.yaml"

// Controller generates and manages the cluster topology. Running state is
// probed from the container runtime by server container name; the
// kubeconfig path is valid only between a Start success and Stop.
type Controller struct {
	docker  *runtime.Docker
	network *network.Controller
	project string
	image   string
	env     manifest.LocalEnvironment
	work    workdir.Dir
}

// NewController returns a cluster controller for the named project.
func NewController(d *runtime.Docker, net *network.Controller, project, image string, env manifest.LocalEnvironment, work workdir.Dir) *Controller {
	return &Controller{docker: d, network: net, project: project, image: image, env: env, work: work}
}

// ServerName returns the derived server container name.
func (c *Controller) ServerName() string { return names.Server(c.project) }

// IsRunning probes the container runtime for a running server node.
func (c *Controller) IsRunning() bool {
	return c.docker.ContainerRunning(c.ServerName())
}

// composition generates the full topology: server plus agents.
func (c *Controller) composition(token string) *compose.File {
	netName := c.network.Name()
	serverName := c.ServerName()

	serverCmd := []string{"server", "--tls-san", serverName}
	if !c.env.TraefikEnabled() {
		serverCmd = append(serverCmd, "--disable", "traefik")
	}

	ports := []string{fmt.Sprintf("%d:%d", apiPort, apiPort)}
	ports = append(ports, c.env.LocalKubernetesPorts...)

	services := map[string]compose.Service{
		"server": {
			Image:         c.image,
			ContainerName: serverName,
			Command:       serverCmd,
			Privileged:    true,
			Tmpfs:         []string{"/run", "/var/run"},
			Environment: []string{
				"K3S_TOKEN=" + token,
				"K3S_KUBECONFIG_OUTPUT=/output/kubeconfig.yaml",
				"K3S_KUBECONFIG_MODE=666",
			},
			Ports: ports,
			Volumes: []string{
				c.work.MirrorFile() + ":" + mirrorMountPath,
				c.work.Path() + ":/output",
			},
			Networks: []string{netName},
		},
	}

	for i := 1; i <= c.env.AgentCount(); i++ {
		services[fmt.Sprintf("agent-%d", i)] = compose.Service{
			Image:         c.image,
			ContainerName: names.Agent(c.project, i),
			Command:       []string{"agent"},
			Privileged:    true,
			Tmpfs:         []string{"/run", "/var/run"},
			Environment: []string{
				fmt.Sprintf("K3S_URL=https://%s:%d", serverName, apiPort),
				"K3S_TOKEN=" + token,
			},
			Volumes:  []string{c.work.MirrorFile() + ":" + mirrorMountPath},
			Networks: []string{netName},
		}
	}

	return &compose.File{
		Services: services,
		Networks: map[string]compose.Network{
			netName: {Name: netName, External: true},
		},
	}
}

// WriteMirrorFile generates the registry-mirror file from the manifest's
// local-environment settings and writes it into the work directory.
func (c *Controller) WriteMirrorFile() error {
	data, err := GenerateMirrorFile(MirrorConfig{
		Project:        c.project,
		ExtraEndpoints: c.env.LocalDockerRegistries,
		RawOverrides:   c.env.LocalDockerRegistriesFile,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.work.MirrorFile(), data, 0o644); err != nil {
		return fmt.Errorf("write mirror file: %w", err)
	}
	return nil
}

// Start brings the topology up and returns the path of the generated
// kubeconfig. A topology apply failure tears the partial topology back down
// and is fatal; there is no retry at this layer. Convergence against a
// still-booting control plane is the deployment retry engine's job.
func (c *Controller) Start() (string, error) {
	if c.IsRunning() {
		log.Skipf("Cluster %s already running", c.ServerName())
		return c.work.Kubeconfig(), nil
	}

	if err := c.network.Setup(); err != nil {
		return "", err
	}
	if err := c.work.Ensure(); err != nil {
		return "", err
	}

	token, err := EnsureToken(c.work)
	if err != nil {
		return "", err
	}
	if err := c.WriteMirrorFile(); err != nil {
		return "", err
	}

	log.Infof("Starting cluster %s (%d agents)", c.ServerName(), c.env.AgentCount())
	topology := c.composition(token)
	if err := compose.Up(c.docker.Runner(), c.project+"-k3s", topology); err != nil {
		// Roll the partial topology back before propagating.
		if downErr := compose.Down(c.docker.Runner(), c.project+"-k3s", topology); downErr != nil {
			log.Errorf("rollback after failed start: %v", downErr)
		}
		return "", fmt.Errorf("start cluster: %w", err)
	}

	kubeconfig := c.work.Kubeconfig()
	log.Okf("Cluster %s ready, kubeconfig at %s", c.ServerName(), kubeconfig)
	return kubeconfig, nil
}

// Stop tears the topology down and best-effort deletes the work directory.
// The directory may already be gone; a deletion failure is logged, not
// fatal.
func (c *Controller) Stop() error {
	log.Infof("Stopping cluster %s", c.ServerName())

	// Compose down only needs the service shapes, so a missing token file
	// (work directory already gone) is fine.
	token := ""
	if data, err := os.ReadFile(c.work.TokenFile()); err == nil {
		token = strings.TrimSpace(string(data))
	}
	if err := compose.Down(c.docker.Runner(), c.project+"-k3s", c.composition(token)); err != nil {
		return fmt.Errorf("stop cluster: %w", err)
	}

	if err := c.work.Remove(); err != nil {
		log.Warnf("could not remove work directory %s: %v", c.work.Path(), err)
	}

	log.Okf("Cluster %s stopped", c.ServerName())
	return nil
}
