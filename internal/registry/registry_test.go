package registry_test

import (
	"os"
	"strings"
	"testing"

	"github.com/h3ow3d/whacdamole/internal/network"
	"github.com/h3ow3d/whacdamole/internal/registry"
	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// fakeRunner tracks container state: compose up flips the registry to
// running so successive probes see it.
type fakeRunner struct {
	calls       []string
	running     bool
	composition string
}

func (f *fakeRunner) record(name string, args []string) string {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	return key
}

func (f *fakeRunner) Run(name string, args ...string) error {
	key := f.record(name, args)
	if strings.Contains(key, "compose") && strings.Contains(key, "up") {
		f.running = true
		for i, a := range args {
			if a == "-f" && i+1 < len(args) {
				if data, err := os.ReadFile(args[i+1]); err == nil {
					f.composition = string(data)
				}
			}
		}
	}
	return nil
}

func (f *fakeRunner) Output(name string, args ...string) ([]byte, error) {
	key := f.record(name, args)
	if strings.Contains(key, "docker ps") && strings.Contains(key, "demo-registry") && f.running {
		return []byte("demo-registry\n"), nil
	}
	if strings.Contains(key, "network inspect") {
		return []byte("abc\n"), nil
	}
	return nil, nil
}

func (f *fakeRunner) RunEnv(_ []string, name string, args ...string) error {
	return f.Run(name, args...)
}

func (f *fakeRunner) countComposeUps() int {
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, "compose") && strings.Contains(c, "up -d") {
			n++
		}
	}
	return n
}

func newController(f *fakeRunner) *registry.Controller {
	d := runtime.NewDocker(f)
	net := network.NewController(d, "demo")
	return registry.NewController(d, net, "demo", "registry:2", 5000)
}

func TestStartAppliesComposition(t *testing.T) {
	f := &fakeRunner{}
	c := newController(f)

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if f.countComposeUps() != 1 {
		t.Fatalf("compose ups = %d, want 1", f.countComposeUps())
	}
	for _, want := range []string{
		"container_name: demo-registry",
		"image: registry:2",
		"5000:5000",
		"demo-network",
	} {
		if !strings.Contains(f.composition, want) {
			t.Errorf("composition missing %q:\n%s", want, f.composition)
		}
	}
}

func TestStartTwiceAppliesOnce(t *testing.T) {
	f := &fakeRunner{}
	c := newController(f)

	if err := c.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if f.countComposeUps() != 1 {
		t.Errorf("compose ups = %d, want exactly 1 (second Start must observe running state)", f.countComposeUps())
	}
}

func TestStopUsesDownAction(t *testing.T) {
	f := &fakeRunner{}
	c := newController(f)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	found := false
	for _, call := range f.calls {
		if strings.Contains(call, "compose") && strings.HasSuffix(call, "down") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a compose down call, got: %v", f.calls)
	}
}

func TestIsRunningProbesByName(t *testing.T) {
	f := &fakeRunner{running: true}
	c := newController(f)

	if !c.IsRunning() {
		t.Error("IsRunning = false, want true")
	}
}
