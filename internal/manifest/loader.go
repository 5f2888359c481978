package manifest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	supportedAPIVersion = "whacdamole.dev/v1alpha1"
	supportedKind       = "Whacdamole"
)

// Load reads a manifest file from path, parses it, and validates it.
// Any failure here is a configuration error and is fatal to the invocation.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %q: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses and validates a manifest from raw YAML bytes.
// The source parameter is used only for error messages.
func LoadBytes(data []byte, source string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest %q: YAML parse error: %w", source, err)
	}
	if err := Validate(&m, source); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks a parsed Manifest for correctness and returns a
// descriptive error if any issue is found.
func Validate(m *Manifest, source string) error {
	var errs []string

	if m.APIVersion == "" {
		errs = append(errs, "missing required field: apiVersion (expected \"whacdamole.dev/v1alpha1\")")
	} else if m.APIVersion != supportedAPIVersion {
		errs = append(errs, fmt.Sprintf("unsupported apiVersion %q: only %q is supported", m.APIVersion, supportedAPIVersion))
	}

	if m.Kind == "" {
		errs = append(errs, "missing required field: kind (expected \"Whacdamole\")")
	} else if m.Kind != supportedKind {
		errs = append(errs, fmt.Sprintf("unsupported kind %q: only %q is supported", m.Kind, supportedKind))
	}

	env := m.Spec.LocalEnvironment
	if env.LocalDockerRegistryPort < 0 || env.LocalDockerRegistryPort > 65535 {
		errs = append(errs, fmt.Sprintf("spec.localEnvironment.localDockerRegistryPort: %d is not a valid port", env.LocalDockerRegistryPort))
	}
	if env.LocalKubernetesAgentCount != nil && *env.LocalKubernetesAgentCount < 0 {
		errs = append(errs, "spec.localEnvironment.localKubernetesAgentCount: must not be negative")
	}

	for i, img := range m.Spec.DockerImages {
		if img.Name == "" {
			errs = append(errs, fmt.Sprintf("spec.dockerImages[%d]: name is required", i))
		}
		if len(img.Tags) == 0 {
			errs = append(errs, fmt.Sprintf("spec.dockerImages[%d]: at least one tag is required", i))
		}
		if img.Directory == "" {
			errs = append(errs, fmt.Sprintf("spec.dockerImages[%d]: directory is required", i))
		}
	}

	for i, d := range m.Spec.HelmDeployments {
		if d.Release == "" {
			errs = append(errs, fmt.Sprintf("spec.helmDeployments[%d]: release is required", i))
		}
		if d.ReleasePath == "" && d.HelmRepoPath == "" {
			errs = append(errs, fmt.Sprintf("spec.helmDeployments[%d]: releasePath or helmRepoPath is required", i))
		}
		if d.HelmRepoPath != "" && d.HelmRepo == "" {
			errs = append(errs, fmt.Sprintf("spec.helmDeployments[%d]: helmRepoPath is set but helmRepo is missing", i))
		}
	}

	for i, d := range m.Spec.KustomizeDeployments {
		if d.KustomizePath == "" && d.GitRepo == "" {
			errs = append(errs, fmt.Sprintf("spec.kustomizeDeployments[%d]: kustomizePath or gitRepo is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest %q is invalid:\n  - %s", source, strings.Join(errs, "\n  - "))
	}
	return nil
}
