// Package manifest provides loading, validation and defaulting for
// whacdamole v1alpha1 project manifests.
package manifest

// Manifest is the top-level structure of a whacdamole.yaml file.
type Manifest struct {
	APIVersion string     `yaml:"apiVersion"`
	Kind       string     `yaml:"kind"`
	Metadata   ObjectMeta `yaml:"metadata"`
	Spec       Spec       `yaml:"spec"`
}

// ObjectMeta holds identity metadata for a project manifest.
type ObjectMeta struct {
	Name string `yaml:"name"`
}

// Spec is the spec section of a Manifest.
type Spec struct {
	Name                 string                `yaml:"name"`
	Version              string                `yaml:"version"`
	GitRepo              string                `yaml:"gitRepo"`
	BranchToWatch        string                `yaml:"branchToWatch"`
	RegistryImage        string                `yaml:"registryImage"`
	K3sImage             string                `yaml:"k3sImage"`
	LocalEnvironment     LocalEnvironment      `yaml:"localEnvironment"`
	DockerImages         []DockerImage         `yaml:"dockerImages"`
	HelmDeployments      []HelmDeployment      `yaml:"helmDeployments"`
	KustomizeDeployments []KustomizeDeployment `yaml:"kustomizeDeployments"`
}

// LocalEnvironment holds the toggles and parameters for the disposable
// local stack.
type LocalEnvironment struct {
	EnableLocalKubernetes        bool           `yaml:"enableLocalKubernetes"`
	EnableLocalKubernetesTraefik *bool          `yaml:"enableLocalKubernetesTraefik"`
	EnableLocalDockerRegistry    bool           `yaml:"enableLocalDockerRegistry"`
	LocalDockerRegistryPort      int            `yaml:"localDockerRegistryPort"`
	LocalDockerRegistries        []string       `yaml:"localDockerRegistries"`
	LocalDockerRegistriesFile    map[string]any `yaml:"localDockerRegistriesFile"`
	LocalKubernetesAgentCount    *int           `yaml:"localKubernetesAgentCount"`
	LocalKubernetesPorts         []string       `yaml:"localKubernetesPorts"`
	Kubeconfig                   string         `yaml:"kubeconfig"`
}

// DockerImage describes one image to build and push.
type DockerImage struct {
	Name      string   `yaml:"name"`
	Tags      []string `yaml:"tags"`
	Registry  string   `yaml:"registry"`
	Directory string   `yaml:"directory"`
}

// HelmDeployment describes one chart release to install or upgrade.
type HelmDeployment struct {
	GitRepo        string            `yaml:"gitRepo"`
	BranchToWatch  string            `yaml:"branchToWatch"`
	HelmRepo       string            `yaml:"helmRepo"`
	HelmRepoPath   string            `yaml:"helmRepoPath"`
	Release        string            `yaml:"release"`
	ReleasePath    string            `yaml:"releasePath"`
	ReleaseVersion string            `yaml:"releaseVersion"`
	Namespace      string            `yaml:"namespace"`
	Values         string            `yaml:"values"`
	Overrides      map[string]string `yaml:"overrides"`
}

// KustomizeDeployment describes one overlay to apply.
type KustomizeDeployment struct {
	GitRepo       string `yaml:"gitRepo"`
	BranchToWatch string `yaml:"branchToWatch"`
	KustomizePath string `yaml:"kustomizePath"`
	Namespace     string `yaml:"namespace"`
}

// ProjectName returns the effective project name: spec.name, falling back to
// metadata.name, falling back to "whacdamole".
func (m *Manifest) ProjectName() string {
	if m.Spec.Name != "" {
		return m.Spec.Name
	}
	if m.Metadata.Name != "" {
		return m.Metadata.Name
	}
	return "whacdamole"
}

// RegistryImage returns the registry container image, defaulted.
func (m *Manifest) RegistryImage() string {
	if m.Spec.RegistryImage != "" {
		return m.Spec.RegistryImage
	}
	return "registry:2"
}

// K3sImage returns the cluster node image, defaulted.
func (m *Manifest) K3sImage() string {
	if m.Spec.K3sImage != "" {
		return m.Spec.K3sImage
	}
	return "rancher/k3s:v1.31.5-k3s1"
}

// RegistryPort returns the host port for the local registry, defaulted.
func (e LocalEnvironment) RegistryPort() int {
	if e.LocalDockerRegistryPort != 0 {
		return e.LocalDockerRegistryPort
	}
	return 5000
}

// AgentCount returns the number of cluster agent nodes, defaulted to 1.
func (e LocalEnvironment) AgentCount() int {
	if e.LocalKubernetesAgentCount != nil {
		return *e.LocalKubernetesAgentCount
	}
	return 1
}

// TraefikEnabled reports whether the cluster ships its bundled ingress
// controller. Unset means enabled.
func (e LocalEnvironment) TraefikEnabled() bool {
	if e.EnableLocalKubernetesTraefik != nil {
		return *e.EnableLocalKubernetesTraefik
	}
	return true
}

// EffectiveNamespace returns the target namespace, defaulted to "default".
func (d HelmDeployment) EffectiveNamespace() string {
	if d.Namespace != "" {
		return d.Namespace
	}
	return "default"
}

// EffectiveNamespace returns the target namespace, defaulted to "default".
func (d KustomizeDeployment) EffectiveNamespace() string {
	if d.Namespace != "" {
		return d.Namespace
	}
	return "default"
}
