package lifecycle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/h3ow3d/whacdamole/internal/lifecycle"
	"github.com/h3ow3d/whacdamole/internal/manifest"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// fakeRunner scripts the whole stack for coordinator tests: every external
// command is recorded, responses and failures keyed by substring.
type fakeRunner struct {
	calls   []string
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeRunner) record(name string, args []string) string {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	return key
}

func (f *fakeRunner) errFor(key string) error {
	for sub, err := range f.fail {
		if strings.Contains(key, sub) {
			return err
		}
	}
	return nil
}

func (f *fakeRunner) Run(name string, args ...string) error {
	return f.errFor(f.record(name, args))
}

func (f *fakeRunner) Output(name string, args ...string) ([]byte, error) {
	key := f.record(name, args)
	if err := f.errFor(key); err != nil {
		return nil, err
	}
	for sub, out := range f.outputs {
		if strings.Contains(key, sub) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (f *fakeRunner) RunEnv(env []string, name string, args ...string) error {
	return f.errFor(f.record(strings.Join(env, " ")+" "+name, args))
}

func (f *fakeRunner) indexOf(sub string) int {
	for i, c := range f.calls {
		if strings.Contains(c, sub) {
			return i
		}
	}
	return -1
}

func loadManifest(t *testing.T, doc string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.LoadBytes([]byte(doc), "test")
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return m
}

func newCoordinator(t *testing.T, f *fakeRunner, doc string) *lifecycle.Coordinator {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	return lifecycle.New(loadManifest(t, doc), runtime.NewDocker(f), "/proj")
}

const fullStack = `apiVersion: whacdamole.dev/v1alpha1
kind: Whacdamole
spec:
  name: demo
  localEnvironment:
    enableLocalKubernetes: true
    enableLocalDockerRegistry: true
  dockerImages:
    - name: local/api
      tags: ["v1"]
      directory: services/api
  helmDeployments:
    - release: api
      releasePath: charts/api
  kustomizeDeployments:
    - kustomizePath: overlays/dev
`

func TestUpOrdersStackBringup(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"network inspect": "abc\n"}}
	c := newCoordinator(t, f, fullStack)

	if err := c.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	build := f.indexOf("docker build")
	push := f.indexOf("docker push")
	registryUp := f.indexOf("-p demo-registry")
	clusterUp := f.indexOf("-p demo-k3s")
	helm := f.indexOf("helm upgrade --install api")
	kustomize := f.indexOf("kubectl apply -k")

	for name, i := range map[string]int{
		"image build": build, "image push": push,
		"registry up": registryUp, "cluster up": clusterUp,
		"chart deploy": helm, "overlay apply": kustomize,
	} {
		if i < 0 {
			t.Fatalf("%s never ran, calls: %v", name, f.calls)
		}
	}
	if !(build < push && push < registryUp && registryUp < clusterUp && clusterUp < helm && helm < kustomize) {
		t.Errorf("bring-up out of order: build=%d push=%d registry=%d cluster=%d helm=%d kustomize=%d",
			build, push, registryUp, clusterUp, helm, kustomize)
	}
}

func TestUpInjectsClusterKubeconfigIntoDeployments(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"network inspect": "abc\n"}}
	c := newCoordinator(t, f, fullStack)

	if err := c.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	helm := f.indexOf("helm upgrade --install api")
	if helm < 0 {
		t.Fatalf("no chart deploy, calls: %v", f.calls)
	}
	if !strings.Contains(f.calls[helm], "KUBECONFIG=") || !strings.Contains(f.calls[helm], "kubeconfig.yaml") {
		t.Errorf("chart deploy %q should carry the cluster kubeconfig", f.calls[helm])
	}
}

func TestUpWithoutLocalClusterDeploysFromBaseDir(t *testing.T) {
	f := &fakeRunner{}
	c := newCoordinator(t, f, `apiVersion: whacdamole.dev/v1alpha1
kind: Whacdamole
spec:
  name: demo
  kustomizeDeployments:
    - kustomizePath: overlays/dev
`)

	if err := c.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	i := f.indexOf("kubectl apply -k /proj/overlays/dev")
	if i < 0 {
		t.Fatalf("overlay not applied from the base directory, calls: %v", f.calls)
	}
	if f.indexOf("compose") >= 0 {
		t.Error("no topology must start when the local cluster is disabled")
	}
	if strings.Contains(f.calls[i], "KUBECONFIG=") {
		t.Errorf("overlay apply %q should use the ambient kubeconfig", f.calls[i])
	}
}

func TestUpSkipsBuildsWhenRuntimeUnavailable(t *testing.T) {
	f := &fakeRunner{fail: map[string]error{"docker info": errors.New("daemon down")}}
	c := newCoordinator(t, f, `apiVersion: whacdamole.dev/v1alpha1
kind: Whacdamole
spec:
  name: demo
  dockerImages:
    - name: local/api
      tags: ["v1"]
      directory: services/api
`)

	if err := c.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if f.indexOf("docker build") >= 0 {
		t.Error("images must not build without a container runtime")
	}
}

func TestBuildFailsWithoutRuntime(t *testing.T) {
	f := &fakeRunner{fail: map[string]error{"docker info": errors.New("daemon down")}}
	c := newCoordinator(t, f, fullStack)

	if err := c.Build(); err == nil {
		t.Error("Build must fail when the container runtime is unavailable")
	}
}

func TestDownAttemptsEveryStepDespiteFailures(t *testing.T) {
	f := &fakeRunner{
		outputs: map[string]string{"network inspect": "abc\n"},
		fail:    map[string]error{"-p demo-registry": errors.New("registry stuck")},
	}
	c := newCoordinator(t, f, fullStack)

	if err := c.Down(); err != nil {
		t.Errorf("Down = %v, teardown is best-effort and must not fail the invocation", err)
	}

	registryDown := f.indexOf("-p demo-registry")
	clusterDown := f.indexOf("-p demo-k3s")
	networkRm := f.indexOf("network rm demo-network")
	for name, i := range map[string]int{
		"registry stop": registryDown, "cluster stop": clusterDown, "network teardown": networkRm,
	} {
		if i < 0 {
			t.Fatalf("%s never attempted, calls: %v", name, f.calls)
		}
	}
	if !(registryDown < clusterDown && clusterDown < networkRm) {
		t.Errorf("teardown out of order: registry=%d cluster=%d network=%d",
			registryDown, clusterDown, networkRm)
	}
}

func TestDownSkipsWhenRuntimeUnavailable(t *testing.T) {
	f := &fakeRunner{fail: map[string]error{"docker info": errors.New("daemon down")}}
	c := newCoordinator(t, f, fullStack)

	if err := c.Down(); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if f.indexOf("compose") >= 0 || f.indexOf("network rm") >= 0 {
		t.Error("nothing must be torn down without a container runtime")
	}
}
