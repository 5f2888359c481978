package deploy

import (
	"sort"
	"strings"
	"time"

	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/retry"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// Retry policy per call site. Chart operations retry tightly because the
// chart installer itself fails fast against a booting control plane;
// overlay applies wait longer between attempts.
const (
	chartAttempts = 10
	chartDelay    = 5 * time.Second

	overlayAttempts = 25
	overlayDelay    = 10 * time.Second
)

// Orchestrator deploys manifest entries one at a time, in declaration
// order, against the control plane addressed by an explicit kubeconfig.
type Orchestrator struct {
	run     runtime.Runner
	baseDir string
}

// NewOrchestrator returns an orchestrator resolving local deployment paths
// against baseDir.
func NewOrchestrator(r runtime.Runner, baseDir string) *Orchestrator {
	return &Orchestrator{run: r, baseDir: baseDir}
}

// kubeEnv returns the environment override for deployment subprocesses.
// When no kubeconfig is resolved the ambient environment passes through
// unmodified.
func kubeEnv(kubeconfig string) []string {
	if kubeconfig == "" {
		return nil
	}
	return []string{"KUBECONFIG=" + kubeconfig}
}

// DeployHelm installs or upgrades one chart release. The chart comes from a
// chart repository (helmRepo/helmRepoPath), a freshly cloned git repository
// (gitRepo/releasePath), or a local path; every path is retried under the
// chart policy and exhaustion is fatal to the invocation.
func (o *Orchestrator) DeployHelm(d manifest.HelmDeployment, kubeconfig string) error {
	env := kubeEnv(kubeconfig)

	chart := d.ReleasePath
	if d.HelmRepoPath != "" {
		if err := o.registerChartRepo(d, env); err != nil {
			return err
		}
		chart = d.HelmRepoPath
	} else {
		root, cleanup, err := sourceRoot(o.run, o.baseDir, d.GitRepo, d.BranchToWatch)
		if err != nil {
			return err
		}
		defer cleanup()
		chart = resolve(root, d.ReleasePath)
		if d.Values != "" {
			d.Values = resolve(root, d.Values)
		}
	}

	args := []string{"upgrade", "--install", d.Release, chart,
		"--atomic", "--create-namespace",
		"--namespace", d.EffectiveNamespace()}
	if d.ReleaseVersion != "" {
		args = append(args, "--version", d.ReleaseVersion)
	}
	if d.Values != "" {
		args = append(args, "-f", d.Values)
	}
	for _, k := range sortedKeys(d.Overrides) {
		args = append(args, "--set", k+"="+d.Overrides[k])
	}

	log.Infof("Deploying release %s from %s", d.Release, chart)
	err := retry.Do(chartAttempts, chartDelay, "helm install "+d.Release, func() error {
		return o.run.RunEnv(env, "helm", args...)
	})
	if err != nil {
		return err
	}

	log.Okf("Release %s deployed", d.Release)
	return nil
}

// registerChartRepo adds (or refreshes) the chart repository an entry
// references, under the chart retry policy.
func (o *Orchestrator) registerChartRepo(d manifest.HelmDeployment, env []string) error {
	repoName := d.Release
	if i := strings.IndexByte(d.HelmRepoPath, '/'); i > 0 {
		repoName = d.HelmRepoPath[:i]
	}

	log.Infof("Registering chart repository %s", repoName)
	return retry.Do(chartAttempts, chartDelay, "helm repo add "+repoName, func() error {
		if err := o.run.RunEnv(env, "helm", "repo", "add", repoName, d.HelmRepo, "--force-update"); err != nil {
			return err
		}
		return o.run.RunEnv(env, "helm", "repo", "update", repoName)
	})
}

// sortedKeys returns the map's keys in sorted order so override arguments
// are deterministic across invocations.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
