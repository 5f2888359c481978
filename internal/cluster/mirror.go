package cluster

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/whacdamole/internal/names"
)

const (
	// LocalRegistryAlias is the reserved pseudo-hostname workloads use to
	// address images through whichever concrete registry is configured.
	LocalRegistryAlias = "registry.local"

	// namespaceMarker is the reserved image-namespace prefix the alias
	// rewrite rule strips, so `registry.local/local/app` resolves to `app`
	// on the backing registry.
	namespaceMarker = "local"

	// registryPort is the in-container registry listen port; nodes reach
	// the registry over the project network, not the host binding.
	registryPort = 5000
)

// MirrorConfig is the input to registry-mirror file generation.
type MirrorConfig struct {
	// Project names the local registry service on the project network.
	Project string
	// ExtraEndpoints are manifest-declared external mirror endpoints.
	ExtraEndpoints []string
	// RawOverrides is the manifest's verbatim mirror/auth/TLS block,
	// merged on top of the generated document.
	RawOverrides map[string]any
}

// GenerateMirrorFile renders the registries file every cluster node mounts.
// Generation is deterministic: identical input yields byte-identical output.
func GenerateMirrorFile(cfg MirrorConfig) ([]byte, error) {
	endpoints := make([]any, 0, 1+len(cfg.ExtraEndpoints))
	endpoints = append(endpoints, fmt.Sprintf("http://%s:%d", names.Registry(cfg.Project), registryPort))
	for _, e := range cfg.ExtraEndpoints {
		endpoints = append(endpoints, e)
	}

	doc := map[string]any{
		"mirrors": map[string]any{
			LocalRegistryAlias: map[string]any{
				"endpoint": endpoints,
				"rewrite": map[string]any{
					"^" + namespaceMarker + "/(.*)": "$1",
				},
			},
		},
	}

	if len(cfg.RawOverrides) > 0 {
		doc = mergeMaps(doc, cfg.RawOverrides)
	}

	node, err := buildNode(doc)
	if err != nil {
		return nil, err
	}
	root := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}}

	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("serialize mirror file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serialize mirror file: %w", err)
	}
	return []byte(buf.String()), nil
}

// mergeMaps deep-merges src into dst and returns the result. Entries in src
// win on conflict; dst entries not overridden are preserved.
func mergeMaps(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if base, ok := out[k].(map[string]any); ok {
				out[k] = mergeMaps(base, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// buildNode converts a generic document into a yaml.Node tree. Map keys are
// emitted in sorted order for determinism, and keys the target parser
// requires quoted (dotted hostnames, host:port forms, regex-bearing rewrite
// keys, the registry alias) are forced to double-quoted style at the node
// level instead of being patched into the serialized text afterwards.
func buildNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			if needsQuoting(k) {
				keyNode.Style = yaml.DoubleQuotedStyle
			}
			valNode, err := buildNode(val[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, keyNode, valNode)
		}
		return n, nil
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, v := range val {
			converted[fmt.Sprint(k)] = v
		}
		return buildNode(converted)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			itemNode, err := buildNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, itemNode)
		}
		return n, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", val)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", val)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", val)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: fmt.Sprintf("%g", val)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	default:
		return nil, fmt.Errorf("mirror file: unsupported value type %T", v)
	}
}

// needsQuoting reports whether a map key must be double-quoted for the
// cluster software's registries parser.
func needsQuoting(key string) bool {
	return strings.ContainsAny(key, ".:/^*$")
}
