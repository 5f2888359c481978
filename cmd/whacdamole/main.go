// whacdamole – disposable local dev stack CLI
//
// Usage:
//
//	whacdamole up              – build images, start the stack, deploy everything
//	whacdamole down            – tear the stack down
//	whacdamole build           – build and push images only
//	whacdamole registry up     – start only the local registry
//	whacdamole registry down   – stop only the local registry
//	whacdamole k3s up          – start only the local cluster
//	whacdamole k3s down        – stop only the local cluster
//	whacdamole status          – show the discovered stack state
//	whacdamole doctor          – check prerequisites
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/h3ow3d/whacdamole/internal/doctor"
	"github.com/h3ow3d/whacdamole/internal/lifecycle"
	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/runtime"
	"github.com/h3ow3d/whacdamole/internal/status"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

var (
	baseDir    string
	configFile string
)

func main() {
	root := &cobra.Command{
		Use:   "whacdamole",
		Short: "Disposable local dev stacks from one manifest",
		Long: `whacdamole – provision an isolated network, registry and k3s cluster in
containers and drive Helm and Kustomize deployments against it (or a remote
target), all from a single versioned manifest.

The stack is addressed by deterministic names derived from the project name,
so repeated invocations converge on the same resources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "directory local deployment paths and build contexts are resolved against")
	root.PersistentFlags().StringVar(&configFile, "config-file", "whacdamole.yaml", "path to the project manifest")

	root.AddCommand(upCmd(), downCmd(), buildCmd(), registryCmd(), k3sCmd(), statusCmd(), doctorCmd())

	if err := root.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// coordinator loads the manifest and wires the controllers. A load failure
// is a configuration error and fatal.
func coordinator() (*lifecycle.Coordinator, error) {
	m, err := manifest.Load(configFile)
	if err != nil {
		return nil, err
	}
	return lifecycle.New(m, runtime.NewDocker(runtime.ExecRunner{}), baseDir), nil
}

// ── up / down / build ─────────────────────────────────────────────────────────

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Bring the stack to its declared state",
		Long: `Brings the project up:
  1. builds and pushes images (when the container runtime is available)
  2. starts the local registry and/or k3s cluster if enabled
  3. deploys every Helm entry, then every Kustomize entry, in manifest order

Deployments retry with a fixed delay until the control plane converges.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Up()
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Tear the stack down",
		Long: `Stops the registry, stops the cluster and removes the project network, in
that order. Every step runs even when an earlier one fails; unresolved
steps are reported at the end.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Down()
		},
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build and push the manifest's images",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Build()
		},
	}
}

// ── controller-scoped commands ────────────────────────────────────────────────

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage only the local registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Start the local registry",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Registry.Start()
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Stop the local registry",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Registry.Stop()
		},
	})
	return cmd
}

func k3sCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "k3s",
		Short: "Manage only the local cluster",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Start the local k3s cluster",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			kubeconfig, err := c.Cluster.Start()
			if err != nil {
				return err
			}
			fmt.Printf("export KUBECONFIG=%s\n", kubeconfig)
			return nil
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Stop the local k3s cluster",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := coordinator()
			if err != nil {
				return err
			}
			return c.Cluster.Stop()
		},
	})
	return cmd
}

// ── status / doctor ───────────────────────────────────────────────────────────

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the discovered state of the stack",
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := manifest.Load(configFile)
			if err != nil {
				return err
			}
			status.Probe(m, runtime.NewDocker(runtime.ExecRunner{})).Print()
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		Long:  `Verifies that docker, the compose plugin, helm, kubectl and git are usable and that the project work directory is writable.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// The manifest is optional here: doctor should work before a
			// project exists.
			project := "whacdamole"
			if m, err := manifest.Load(configFile); err == nil {
				project = m.ProjectName()
			}

			failed := 0
			for _, r := range doctor.RunChecks(workdir.ForProject(project)) {
				if r.OK {
					log.Okf("%s: %s", r.Name, r.Message)
				} else {
					failed++
					log.Errorf("%s: %s", r.Name, r.Message)
					log.Errorf("    fix: %s", r.HowToFix)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
