// Package config implements the two configuration-facing contracts of the
// simulator: a YAML resource loader and an invoker-name resolver. Both
// treat malformed input as a fatal configuration error, surfaced with the
// offending file/field rather than at simulation time.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/faas-sim/sim/faas"
)

// YamlResource is one entry in a resources.yaml file: a named compute
// resource with a work rate, core count, and memory size.
type YamlResource struct {
	Name   string `yaml:"name"`
	Speed  uint64 `yaml:"speed"`
	Cores  uint32 `yaml:"cores"`
	Memory uint64 `yaml:"memory"`
}

// ResourceFile is the top-level shape of a resources.yaml file: a
// `resources:` list of YamlResource entries.
type ResourceFile struct {
	Resources []YamlResource `yaml:"resources"`
}

var requiredResourceFields = []string{"name", "speed", "cores", "memory"}

// LoadResources reads and strictly parses a resources.yaml file. Unknown
// fields are rejected (yaml.v3's KnownFields(true)); missing required
// fields are caught by a presence check against a raw decode, since
// yaml.v3 would otherwise silently fill an absent field with its
// zero-value. Returns a wrapped error naming path on any read, parse, or
// validation failure.
func LoadResources(path string) (*ResourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading resource file %s: %w", path, err)
	}

	var raw struct {
		Resources []map[string]any `yaml:"resources"`
	}
	rawDecoder := yaml.NewDecoder(bytes.NewReader(data))
	rawDecoder.KnownFields(true)
	if err := rawDecoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: parsing resource file %s: %w", path, err)
	}
	for i, entry := range raw.Resources {
		for _, field := range requiredResourceFields {
			if _, ok := entry[field]; !ok {
				return nil, fmt.Errorf("config: resource file %s: resources[%d]: missing required field %q", path, i, field)
			}
		}
	}

	var rf ResourceFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil {
		return nil, fmt.Errorf("config: parsing resource file %s: %w", path, err)
	}
	if err := rf.Validate(); err != nil {
		return nil, fmt.Errorf("config: resource file %s: %w", path, err)
	}
	return &rf, nil
}

// Validate checks that every resource has a non-empty, unique name.
func (rf *ResourceFile) Validate() error {
	seen := make(map[string]bool, len(rf.Resources))
	for i, r := range rf.Resources {
		if r.Name == "" {
			return fmt.Errorf("resources[%d]: missing required field \"name\"", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("resources[%d]: duplicate resource name %q", i, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// HostCapacities converts the loaded resources into faas.Resources
// keyed by resource name, for callers that want to size a
// faas.ContainerManager/Host per named resource. Memory is reported in
// the same units the YAML carries (bytes); Speed describes a compute
// rate that faas.Resources does not track and is dropped here.
func (rf *ResourceFile) HostCapacities() map[string]faas.Resources {
	out := make(map[string]faas.Resources, len(rf.Resources))
	for _, r := range rf.Resources {
		out[r.Name] = faas.Resources{Cores: int64(r.Cores), MemoryBytes: int64(r.Memory)}
	}
	return out
}
