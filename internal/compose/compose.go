// Package compose builds typed Docker Compose documents and applies them
// with the docker CLI. The composition is materialized to a transient file
// for the duration of one up/down call and removed afterwards; there is no
// stored definition to diff against.
package compose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/whacdamole/internal/runtime"
)

// File is the root of a compose document.
type File struct {
	Services map[string]Service `yaml:"services"`
	Networks map[string]Network `yaml:"networks,omitempty"`
}

// Service describes one container.
type Service struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"container_name"`
	Command       []string `yaml:"command,omitempty"`
	Privileged    bool     `yaml:"privileged,omitempty"`
	Restart       string   `yaml:"restart,omitempty"`
	Environment   []string `yaml:"environment,omitempty"`
	Ports         []string `yaml:"ports,omitempty"`
	Volumes       []string `yaml:"volumes,omitempty"`
	Tmpfs         []string `yaml:"tmpfs,omitempty"`
	Networks      []string `yaml:"networks,omitempty"`
}

// Network references a Docker network. The project network is always
// created ahead of time, so compose only ever attaches to it.
type Network struct {
	Name     string `yaml:"name"`
	External bool   `yaml:"external"`
}

// Marshal serializes the compose document.
func (f *File) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal compose file: %w", err)
	}
	return data, nil
}

// Up materializes the document to a transient file and runs
// `docker compose -p <project> up -d`. The file is removed before returning.
func Up(r runtime.Runner, project string, f *File) error {
	return apply(r, project, f, "up", "-d")
}

// Down materializes the document and runs `docker compose -p <project> down`.
func Down(r runtime.Runner, project string, f *File) error {
	return apply(r, project, f, "down")
}

func apply(r runtime.Runner, project string, f *File, action ...string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", project+"-compose-*.yaml")
	if err != nil {
		return fmt.Errorf("create transient compose file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write transient compose file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close transient compose file: %w", err)
	}

	args := append([]string{"compose", "-p", project, "-f", path}, action...)
	if err := r.Run("docker", args...); err != nil {
		return fmt.Errorf("docker compose %s: %w", action[0], err)
	}
	return nil
}
