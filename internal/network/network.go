// Package network manages the project-scoped Docker bridge network that the
// registry and cluster containers join so they can reach each other by name.
package network

import (
	"fmt"

	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/names"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// Controller creates and destroys the project network.
type Controller struct {
	docker  *runtime.Docker
	project string
}

// NewController returns a network controller for the named project.
func NewController(d *runtime.Docker, project string) *Controller {
	return &Controller{docker: d, project: project}
}

// Name returns the derived network name.
func (c *Controller) Name() string { return names.Network(c.project) }

// Setup creates the bridge network if it does not already exist. The probe
// runs first so an existing network is a skip, not a masked failure; a
// genuine creation error is surfaced because nothing downstream can work
// without the network.
func (c *Controller) Setup() error {
	name := c.Name()

	if c.docker.NetworkExists(name) {
		log.Skipf("Network %s already exists", name)
		return nil
	}

	log.Infof("Creating network %s", name)
	if err := c.docker.CreateNetwork(name); err != nil {
		return fmt.Errorf("setup network: %w", err)
	}

	log.Okf("Network %s ready", name)
	return nil
}

// Teardown removes the network. A missing network is a skip; a removal
// failure (typically: still in use by a container) is reported to the
// caller so the coordinator can include it in the teardown summary.
func (c *Controller) Teardown() error {
	name := c.Name()

	if !c.docker.NetworkExists(name) {
		log.Skipf("Network %s does not exist", name)
		return nil
	}

	log.Infof("Removing network %s", name)
	if err := c.docker.RemoveNetwork(name); err != nil {
		return fmt.Errorf("teardown network: %w", err)
	}

	log.Okf("Network %s removed", name)
	return nil
}
