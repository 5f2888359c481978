// Package kube inspects kubeconfig files so the orchestrator can report and
// sanity-check the control plane it is about to deploy against. Deployments
// themselves go through the external tools with KUBECONFIG injected; the
// ambient default context is never mutated.
package kube

import (
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
)

// Info summarizes a kubeconfig file.
type Info struct {
	Path    string
	Context string
	Server  string
}

// Inspect parses the kubeconfig at path and returns its current context and
// API server endpoint. An unparsable or contextless file is an error: a
// deployment pointed at it could only fail later with a worse message.
func Inspect(path string) (Info, error) {
	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("kubeconfig %s: %w", path, err)
	}

	ctxName := cfg.CurrentContext
	if ctxName == "" {
		return Info{}, fmt.Errorf("kubeconfig %s: no current context", path)
	}
	ctx, ok := cfg.Contexts[ctxName]
	if !ok {
		return Info{}, fmt.Errorf("kubeconfig %s: current context %q not defined", path, ctxName)
	}

	info := Info{Path: path, Context: ctxName}
	if cluster, ok := cfg.Clusters[ctx.Cluster]; ok {
		info.Server = cluster.Server
	}
	return info, nil
}
