package cluster_test

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/whacdamole/internal/cluster"
)

func TestGenerateMirrorFileLocalEndpointFirst(t *testing.T) {
	data, err := cluster.GenerateMirrorFile(cluster.MirrorConfig{
		Project:        "demo",
		ExtraEndpoints: []string{"https://mirror.example.com"},
	})
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}

	var doc struct {
		Mirrors map[string]struct {
			Endpoint []string          `yaml:"endpoint"`
			Rewrite  map[string]string `yaml:"rewrite"`
		} `yaml:"mirrors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated file does not parse: %v", err)
	}

	alias, ok := doc.Mirrors[cluster.LocalRegistryAlias]
	if !ok {
		t.Fatalf("missing alias mirror entry %q in:\n%s", cluster.LocalRegistryAlias, data)
	}
	want := []string{"http://demo-registry:5000", "https://mirror.example.com"}
	if len(alias.Endpoint) != len(want) {
		t.Fatalf("endpoints = %v, want %v", alias.Endpoint, want)
	}
	for i := range want {
		if alias.Endpoint[i] != want[i] {
			t.Errorf("endpoint[%d] = %q, want %q", i, alias.Endpoint[i], want[i])
		}
	}
	if got := alias.Rewrite[`^local/(.*)`]; got != "$1" {
		t.Errorf("rewrite = %q, want $1 (strip the local/ namespace marker)", got)
	}
}

func TestGenerateMirrorFileIdempotent(t *testing.T) {
	cfg := cluster.MirrorConfig{
		Project:        "demo",
		ExtraEndpoints: []string{"https://b.example.com", "https://a.example.com"},
		RawOverrides: map[string]any{
			"configs": map[string]any{
				"mirror.example.com": map[string]any{
					"tls": map[string]any{"insecure_skip_verify": true},
				},
			},
		},
	}

	first, err := cluster.GenerateMirrorFile(cfg)
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}
	second, err := cluster.GenerateMirrorFile(cfg)
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("generation is not byte-identical:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestGenerateMirrorFileQuotesProblematicKeys(t *testing.T) {
	data, err := cluster.GenerateMirrorFile(cluster.MirrorConfig{
		Project: "demo",
		RawOverrides: map[string]any{
			"mirrors": map[string]any{
				"docker.io": map[string]any{
					"endpoint": []any{"https://mirror.example.com"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}

	out := string(data)
	// Dotted hostnames, the alias hostname, and regex-bearing rewrite keys
	// must always be emitted quoted.
	for _, key := range []string{
		`"registry.local":`,
		`"docker.io":`,
		`"^local/(.*)":`,
	} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing quoted key %s:\n%s", key, out)
		}
	}
	// The plain top-level key stays unquoted.
	if !strings.Contains(out, "mirrors:") {
		t.Errorf("output missing plain mirrors key:\n%s", out)
	}
}

func TestGenerateMirrorFileMergesRawBlock(t *testing.T) {
	data, err := cluster.GenerateMirrorFile(cluster.MirrorConfig{
		Project: "demo",
		RawOverrides: map[string]any{
			"mirrors": map[string]any{
				"docker.io": map[string]any{
					"endpoint": []any{"https://hub-mirror.example.com"},
				},
			},
			"configs": map[string]any{
				"demo-registry:5000": map[string]any{
					"tls": map[string]any{"insecure_skip_verify": true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated file does not parse: %v", err)
	}

	mirrors, ok := doc["mirrors"].(map[string]any)
	if !ok {
		t.Fatalf("mirrors block missing: %s", data)
	}
	// The generated alias entry survives the merge...
	if _, ok := mirrors[cluster.LocalRegistryAlias]; !ok {
		t.Error("alias mirror entry lost during merge")
	}
	// ...the raw entry is added alongside it...
	if _, ok := mirrors["docker.io"]; !ok {
		t.Error("raw docker.io mirror entry missing after merge")
	}
	// ...and unrelated top-level blocks pass through verbatim.
	if _, ok := doc["configs"]; !ok {
		t.Error("raw configs block missing after merge")
	}
}

func TestGenerateMirrorFileRawOverridesWin(t *testing.T) {
	data, err := cluster.GenerateMirrorFile(cluster.MirrorConfig{
		Project: "demo",
		RawOverrides: map[string]any{
			"mirrors": map[string]any{
				cluster.LocalRegistryAlias: map[string]any{
					"endpoint": []any{"https://pinned.example.com"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("GenerateMirrorFile: %v", err)
	}

	var doc struct {
		Mirrors map[string]struct {
			Endpoint []string `yaml:"endpoint"`
		} `yaml:"mirrors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated file does not parse: %v", err)
	}
	got := doc.Mirrors[cluster.LocalRegistryAlias].Endpoint
	if len(got) != 1 || got[0] != "https://pinned.example.com" {
		t.Errorf("endpoint = %v, want the raw override to win", got)
	}
}
