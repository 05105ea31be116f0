package feature

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// CargoManifestName is the manifest file of a Cargo package.
const CargoManifestName = "Cargo.toml"

// defaultFeature is Cargo's implicit feature set. Probes always build with
// default features disabled, so it never becomes a flag.
const defaultFeature = "default"

type cargoManifest struct {
	Package struct {
		Name     string `toml:"name"`
		Metadata struct {
			Featurecheck cargoMetadata `toml:"featurecheck"`
		} `toml:"metadata"`
	} `toml:"package"`
	Features map[string][]string `toml:"features"`
}

type cargoMetadata struct {
	MutuallyExclusive [][]string `toml:"mutually_exclusive"`
	Skip              []string   `toml:"skip"`
}

// ParseCargoManifest reads the [features] table of a Cargo.toml.
//
// References to other local features become implications. "dep:",
// "crate/feature" and implicit optional-dependency references concern
// dependencies and are ignored.
// [package.metadata.featurecheck] may declare mutually_exclusive groups and
// flags to skip entirely.
func ParseCargoManifest(path string) (Descriptor, error) {
	var m cargoManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Descriptor{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	skip := make(map[string]bool, len(m.Package.Metadata.Featurecheck.Skip)+1)
	skip[defaultFeature] = true
	for _, s := range m.Package.Metadata.Featurecheck.Skip {
		skip[s] = true
	}

	names := make([]string, 0, len(m.Features))
	for name := range m.Features {
		if !skip[name] {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	desc := Descriptor{Source: path}
	for _, name := range names {
		var implies []string
		for _, ref := range m.Features[name] {
			if isDependencyRef(ref) || skip[ref] {
				continue
			}
			// implicit features of optional dependencies are not flags
			if _, declared := m.Features[ref]; !declared {
				continue
			}
			implies = append(implies, ref)
		}
		desc.Features = append(desc.Features, Flag{Name: name, Implies: implies})
	}

	for _, group := range m.Package.Metadata.Featurecheck.MutuallyExclusive {
		var kept []string
		for _, f := range group {
			if !skip[f] {
				kept = append(kept, f)
			}
		}
		// a group reduced to one flag by skipping constrains nothing
		if len(kept) < 2 {
			continue
		}
		desc.MutuallyExclusive = append(desc.MutuallyExclusive, kept)
	}
	return desc, nil
}

func isDependencyRef(ref string) bool {
	return strings.HasPrefix(ref, "dep:") || strings.Contains(ref, "/")
}
