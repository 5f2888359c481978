// Package runtime wraps the container runtime CLI behind a small Runner
// interface so controllers can probe and mutate Docker state without being
// tied to a real daemon in tests.
package runtime

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external tools. Run streams output to the terminal;
// Output captures stdout. RunEnv behaves like Run with extra environment
// variables appended to the ambient environment.
type Runner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
	RunEnv(extraEnv []string, name string, args ...string) error
}

// ExecRunner is the production Runner backed by os/exec. Every call blocks
// until the subprocess exits.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (ExecRunner) RunEnv(extraEnv []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Docker probes and mutates container runtime state by deterministic name.
type Docker struct {
	run Runner
}

// NewDocker returns a Docker probe using the given Runner.
func NewDocker(r Runner) *Docker { return &Docker{run: r} }

// Runner exposes the underlying Runner for callers that invoke docker
// subcommands directly.
func (d *Docker) Runner() Runner { return d.run }

// Available reports whether the Docker daemon is reachable.
func (d *Docker) Available() bool {
	_, err := d.run.Output("docker", "info", "--format", "{{.ServerVersion}}")
	return err == nil
}

// ContainerRunning reports whether a container with exactly the given name
// is currently running.
func (d *Docker) ContainerRunning(name string) bool {
	out, err := d.run.Output("docker", "ps",
		"--filter", "name=^"+name+"$",
		"--format", "{{.Names}}")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) != ""
}

// NetworkExists reports whether the named Docker network is defined.
func (d *Docker) NetworkExists(name string) bool {
	_, err := d.run.Output("docker", "network", "inspect", name, "--format", "{{.Id}}")
	return err == nil
}

// CreateNetwork creates a bridge network with the given name.
func (d *Docker) CreateNetwork(name string) error {
	if err := d.run.Run("docker", "network", "create", "--driver", "bridge", name); err != nil {
		return fmt.Errorf("docker network create %s: %w", name, err)
	}
	return nil
}

// RemoveNetwork removes the named network.
func (d *Docker) RemoveNetwork(name string) error {
	if err := d.run.Run("docker", "network", "rm", name); err != nil {
		return fmt.Errorf("docker network rm %s: %w", name, err)
	}
	return nil
}
