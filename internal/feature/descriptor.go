package feature

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptorPath is the project-relative path of the YAML descriptor.
var DescriptorPath = filepath.Join(".featurecheck", "features.yml")

// Descriptor is the parsed, not yet validated, feature declaration of a project.
type Descriptor struct {
	// Features lists every declared flag with its rules.
	Features []Flag `yaml:"features"`
	// MutuallyExclusive lists groups of flags of which at most one may be enabled.
	MutuallyExclusive [][]string `yaml:"mutually_exclusive,omitempty"`
	// Source is the file the descriptor was read from.
	Source string `yaml:"-"`

	lines map[string]int
}

// line returns the descriptor line declaring flag, or 0.
func (d Descriptor) line(flag string) int {
	return d.lines[flag]
}

// ParseDescriptorFile reads a YAML descriptor from disk.
func ParseDescriptorFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("reading feature descriptor: %w", err)
	}
	desc, err := ParseDescriptorBytes(data)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	desc.Source = path
	return desc, nil
}

// ParseDescriptorBytes parses a YAML descriptor and records the line each
// flag is declared on, so model errors can point at it.
func ParseDescriptorBytes(data []byte) (Descriptor, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Descriptor{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return Descriptor{}, errors.New("parsing YAML: empty document")
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return Descriptor{}, fmt.Errorf("line %d: expected mapping at root", doc.Line)
	}

	var desc Descriptor
	if err := doc.Decode(&desc); err != nil {
		return Descriptor{}, fmt.Errorf("decoding descriptor: %w", err)
	}
	desc.lines = featureLines(doc)
	return desc, nil
}

// featureLines maps flag names to the line of their list entry.
func featureLines(doc *yaml.Node) map[string]int {
	lines := make(map[string]int)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "features" || doc.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range doc.Content[i+1].Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(item.Content); j += 2 {
				if item.Content[j].Value == "name" {
					if _, seen := lines[item.Content[j+1].Value]; !seen {
						lines[item.Content[j+1].Value] = item.Line
					}
				}
			}
		}
	}
	return lines
}

// LoadFile loads a model from an explicit descriptor path. Files named
// Cargo.toml (or ending in .toml) are read as Cargo manifests, anything
// else as a YAML descriptor.
func LoadFile(path string) (*Model, error) {
	var (
		desc Descriptor
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		desc, err = ParseCargoManifest(path)
	} else {
		desc, err = ParseDescriptorFile(path)
	}
	if err != nil {
		return nil, err
	}
	return Load(desc)
}

// LoadProject loads the model of the project in dir. The YAML descriptor
// takes precedence over Cargo.toml.
func LoadProject(dir string) (*Model, error) {
	candidates := []string{
		filepath.Join(dir, DescriptorPath),
		filepath.Join(dir, CargoManifestName),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, &NoDescriptorError{Dir: dir, Tried: candidates}
}
