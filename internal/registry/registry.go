// Package registry manages the project-scoped container registry instance.
package registry

import (
	"fmt"

	"github.com/h3ow3d/whacdamole/internal/compose"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/names"
	"github.com/h3ow3d/whacdamole/internal/network"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// registryPort is the port the registry software listens on inside the
// container; the configured port is only the host-side binding.
const registryPort = 5000

// Controller starts and stops the registry container. Running state is
// discovered from the container runtime at call time, never cached.
type Controller struct {
	docker  *runtime.Docker
	network *network.Controller
	project string
	image   string
	port    int
}

// NewController returns a registry controller. image is the registry
// container image, port the host port to bind.
func NewController(d *runtime.Docker, net *network.Controller, project, image string, port int) *Controller {
	return &Controller{docker: d, network: net, project: project, image: image, port: port}
}

// ContainerName returns the derived registry container name.
func (c *Controller) ContainerName() string { return names.Registry(c.project) }

// IsRunning probes the container runtime for a running registry container.
func (c *Controller) IsRunning() bool {
	return c.docker.ContainerRunning(c.ContainerName())
}

// composition regenerates the registry composition from current
// configuration. Changing the port or image while the registry is running
// therefore has no effect until an explicit stop/start cycle.
func (c *Controller) composition() *compose.File {
	netName := c.network.Name()
	return &compose.File{
		Services: map[string]compose.Service{
			"registry": {
				Image:         c.image,
				ContainerName: c.ContainerName(),
				Restart:       "unless-stopped",
				Ports:         []string{fmt.Sprintf("%d:%d", c.port, registryPort)},
				Networks:      []string{netName},
			},
		},
		Networks: map[string]compose.Network{
			netName: {Name: netName, External: true},
		},
	}
}

// Start brings the registry up. It is a no-op when the registry is already
// running, so two successive Starts perform the underlying apply exactly
// once. The project network is ensured first.
func (c *Controller) Start() error {
	if c.IsRunning() {
		log.Skipf("Registry %s already running", c.ContainerName())
		return nil
	}

	if err := c.network.Setup(); err != nil {
		return err
	}

	log.Infof("Starting registry %s on port %d", c.ContainerName(), c.port)
	if err := compose.Up(c.docker.Runner(), c.project+"-registry", c.composition()); err != nil {
		return fmt.Errorf("start registry: %w", err)
	}

	log.Okf("Registry %s ready", c.ContainerName())
	return nil
}

// Stop tears the registry down by re-applying the regenerated composition
// with a down action.
func (c *Controller) Stop() error {
	log.Infof("Stopping registry %s", c.ContainerName())
	if err := compose.Down(c.docker.Runner(), c.project+"-registry", c.composition()); err != nil {
		return fmt.Errorf("stop registry: %w", err)
	}
	log.Okf("Registry %s stopped", c.ContainerName())
	return nil
}
