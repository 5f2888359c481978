// Package names derives the deterministic Docker resource names used by a
// project. Every name is a pure function of the project name, so repeated
// invocations address the same network and containers.
package names

import "fmt"

// Network returns the project bridge network name.
func Network(project string) string { return project + "-network" }

// Registry returns the registry container name.
func Registry(project string) string { return project + "-registry" }

// Server returns the cluster server container name.
func Server(project string) string { return project + "-k3s-server" }

// Agent returns the i-th (1-based) cluster agent container name.
func Agent(project string, i int) string {
	return fmt.Sprintf("%s-k3s-agent-%d", project, i)
}

// AgentPrefix returns the common prefix of all agent container names.
func AgentPrefix(project string) string { return project + "-k3s-agent-" }
