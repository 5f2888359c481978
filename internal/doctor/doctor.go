// Package doctor checks the external tools and directories whacdamole
// depends on and reports actionable results.
package doctor

import (
	"fmt"
	"os/exec"

	"github.com/h3ow3d/whacdamole/internal/workdir"
)

// CheckResult holds the outcome of a single doctor check.
type CheckResult struct {
	Name     string
	OK       bool
	Message  string
	HowToFix string
}

// RunChecks performs all prerequisite checks and returns the results.
// It never returns an error itself; pass/fail is encoded in each CheckResult.
func RunChecks(work workdir.Dir) []CheckResult {
	return []CheckResult{
		checkCommand("docker", "docker", "--version"),
		checkCompose(),
		checkCommand("helm", "helm", "version", "--short"),
		checkCommand("kubectl", "kubectl", "version", "--client"),
		checkCommand("git", "git", "--version"),
		checkWorkDir(work),
	}
}

// checkCommand verifies that an executable is on PATH and runs without error.
func checkCommand(name, bin string, args ...string) CheckResult {
	path, err := exec.LookPath(bin)
	if err != nil {
		return CheckResult{
			Name:     name,
			OK:       false,
			Message:  fmt.Sprintf("%s not found in PATH", bin),
			HowToFix: installHint(bin),
		}
	}
	cmd := exec.Command(path, args...) //nolint:gosec // path is resolved via LookPath
	if out, err := cmd.CombinedOutput(); err != nil {
		return CheckResult{
			Name:     name,
			OK:       false,
			Message:  fmt.Sprintf("%s found but failed: %s", bin, string(out)),
			HowToFix: installHint(bin),
		}
	}
	return CheckResult{Name: name, OK: true, Message: fmt.Sprintf("%s found", path)}
}

// checkCompose verifies the compose plugin, which ships separately from the
// docker CLI on some distributions.
func checkCompose() CheckResult {
	const name = "docker compose"
	path, err := exec.LookPath("docker")
	if err != nil {
		return CheckResult{
			Name:     name,
			OK:       false,
			Message:  "docker not found; cannot check the compose plugin",
			HowToFix: installHint("docker"),
		}
	}
	cmd := exec.Command(path, "compose", "version") //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		return CheckResult{
			Name:     name,
			OK:       false,
			Message:  fmt.Sprintf("compose plugin failed: %s", string(out)),
			HowToFix: "sudo apt install docker-compose-plugin",
		}
	}
	return CheckResult{Name: name, OK: true, Message: "compose plugin available"}
}

// checkWorkDir verifies that the project work directory can be created.
func checkWorkDir(work workdir.Dir) CheckResult {
	const name = "work directory access"
	if err := work.Ensure(); err != nil {
		return CheckResult{
			Name:     name,
			OK:       false,
			Message:  fmt.Sprintf("cannot create work directory: %v", err),
			HowToFix: "Check that your home directory is writable and you have sufficient disk space.",
		}
	}
	return CheckResult{Name: name, OK: true, Message: fmt.Sprintf("work dir ready (%s)", work.Path())}
}

// installHint returns a human-friendly install hint for a known binary.
func installHint(bin string) string {
	hints := map[string]string{
		"docker":  "https://docs.docker.com/engine/install/",
		"helm":    "https://helm.sh/docs/intro/install/",
		"kubectl": "sudo apt install kubectl  # or see https://kubernetes.io/docs/tasks/tools/",
		"git":     "sudo apt install git",
	}
	if hint, ok := hints[bin]; ok {
		return hint
	}
	return fmt.Sprintf("Install %q and ensure it is on your PATH.", bin)
}
