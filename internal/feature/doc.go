// Package feature models the optional compile-time feature flags of a project.
//
// The package supports:
//   - Parsing a YAML descriptor (.featurecheck/features.yml) with line tracking
//   - Reading the [features] table of a Cargo.toml
//   - Validating identifiers, implications and mutual exclusions into a Model
//   - Checking whether a Subset of flags is a buildable configuration
//
// A Model is loaded once per run and never mutated afterwards. Subsets are
// immutable values, ordered by Compare (smallest first, then lexicographic).
package feature
