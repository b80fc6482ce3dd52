package manifest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a manifest and expands ${root} and ${project} in source paths.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	interpolate(&m)
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Save writes m to path as YAML.
func Save(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func interpolate(m *Manifest) {
	r := strings.NewReplacer("${root}", m.Root, "${project}", m.Project)
	for name, src := range m.Sources {
		for i, f := range src.Files {
			src.Files[i] = r.Replace(f)
		}
		src.Unit = r.Replace(src.Unit)
		m.Sources[name] = src
	}
}
