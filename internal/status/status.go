// Package status reports the discovered state of a project's stack. State
// is probed from the container runtime at call time; there is no persisted
// lifecycle database to consult.
package status

import (
	"fmt"

	"github.com/h3ow3d/whacdamole/internal/kube"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/names"
	"github.com/h3ow3d/whacdamole/internal/runtime"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

// Report holds the probed state of every stack resource.
type Report struct {
	Project       string
	NetworkExists bool
	Registry      ResourceState
	Server        ResourceState
	Agents        []ResourceState
	Kubeconfig    string // empty unless the server is running
	APIServer     string // empty unless the kubeconfig parses
}

// ResourceState pairs a container name with its running flag.
type ResourceState struct {
	Name    string
	Running bool
}

// Probe collects the current stack state for the manifest's project.
func Probe(m *manifest.Manifest, d *runtime.Docker) Report {
	project := m.ProjectName()
	work := workdir.ForProject(project)

	rep := Report{
		Project:       project,
		NetworkExists: d.NetworkExists(names.Network(project)),
		Registry:      probeContainer(d, names.Registry(project)),
		Server:        probeContainer(d, names.Server(project)),
	}

	for i := 1; i <= m.Spec.LocalEnvironment.AgentCount(); i++ {
		rep.Agents = append(rep.Agents, probeContainer(d, names.Agent(project, i)))
	}

	if rep.Server.Running {
		rep.Kubeconfig = work.Kubeconfig()
		if info, err := kube.Inspect(rep.Kubeconfig); err == nil {
			rep.APIServer = info.Server
		}
	}
	return rep
}

func probeContainer(d *runtime.Docker, name string) ResourceState {
	return ResourceState{Name: name, Running: d.ContainerRunning(name)}
}

// Print renders the report as status lines.
func (r Report) Print() {
	log.Infof("Project %s", r.Project)
	printFlag(names.Network(r.Project), r.NetworkExists, "exists", "absent")
	printFlag(r.Registry.Name, r.Registry.Running, "running", "stopped")
	printFlag(r.Server.Name, r.Server.Running, "running", "stopped")
	for _, a := range r.Agents {
		printFlag(a.Name, a.Running, "running", "stopped")
	}
	if r.Kubeconfig != "" {
		msg := "kubeconfig " + r.Kubeconfig
		if r.APIServer != "" {
			msg += " (" + r.APIServer + ")"
		}
		log.Info(msg)
	}
}

func printFlag(name string, ok bool, yes, no string) {
	if ok {
		log.Okf("%s %s", name, yes)
	} else {
		log.Skip(fmt.Sprintf("%s %s", name, no))
	}
}
