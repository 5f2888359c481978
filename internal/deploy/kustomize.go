package deploy

import (
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/retry"
)

// DeployKustomize applies one overlay to its target namespace. Source
// resolution matches charts: clone when a repository is given, local path
// otherwise. The apply runs under the overlay retry policy and makes the
// full 25 attempts before reporting exhaustion.
func (o *Orchestrator) DeployKustomize(d manifest.KustomizeDeployment, kubeconfig string) error {
	root, cleanup, err := sourceRoot(o.run, o.baseDir, d.GitRepo, d.BranchToWatch)
	if err != nil {
		return err
	}
	defer cleanup()

	path := resolve(root, d.KustomizePath)
	env := kubeEnv(kubeconfig)

	log.Infof("Applying overlay %s to namespace %s", path, d.EffectiveNamespace())
	err = retry.Do(overlayAttempts, overlayDelay, "kubectl apply -k "+path, func() error {
		return o.run.RunEnv(env, "kubectl", "apply", "-k", path, "-n", d.EffectiveNamespace())
	})
	if err != nil {
		return err
	}

	log.Okf("Overlay %s applied", path)
	return nil
}
