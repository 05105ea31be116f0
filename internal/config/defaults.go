package config

import "time"

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# featurecheck configuration
# Environment variables override every key: FEATURECHECK_<KEY>, e.g. FEATURECHECK_PARALLEL=4

# Enumeration
strategy: exhaustive                  # exhaustive | pairwise | bounded | each
max_subsets: 0                        # Cap for the bounded strategy
max_depth: 0                          # Max flags per subset (0 = no cap)
seed: 0                               # Bounded sampler seed (0 = built-in seed)

# Probing
parallel: 0                           # Concurrent probes (0 = CPU count)
probe_timeout: 10m                    # Per-build timeout
deadline: 0s                          # Whole-run deadline (0s = none)
retries: 0                            # Retries of infrastructure errors (0-10)
backoff_base: 500ms                   # First retry delay
backoff_max: 30s                      # Retry delay cap
minimize: false                       # Shrink failing subsets to a minimal reproducer
fail_fast: false                      # Stop after the first finding

# Build command
action: check                         # check | build | test
action_args: []                       # Extra arguments after the command
command: ""                           # Template with {{FEATURES}}, {{ACTION}}, {{WORKSPACE}}
workspace_dir: ""                     # Where build workspaces live (empty = temp dir)
keep_workspaces: false                # Keep workspaces after the run

# Model and output
descriptor: ""                        # Feature descriptor (empty = discover)
format: text                          # text | json | yaml
state_dir: ~/.featurecheck/state      # History location
max_history_entries: 500              # Max run history entries to retain

# Known conflicts
allow: []
#  - name: duplicate-T
#    requires: [a, c]
#    excludes: [b]
#    diagnostic: "defined multiple times"
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"strategy":    "exhaustive",
		"max_subsets": 0,
		"max_depth":   0,
		"seed":        0,
		// parallel: 0 resolves to runtime.NumCPU() at run time.
		"parallel":      0,
		"probe_timeout": (10 * time.Minute).String(),
		"deadline":      time.Duration(0).String(),
		"retries":       0,
		"backoff_base":  (500 * time.Millisecond).String(),
		"backoff_max":   (30 * time.Second).String(),
		"minimize":      false,
		"fail_fast":     false,
		"action":        "check",
		"action_args":   []string{},
		// command: empty selects the cargo template with default features disabled.
		"command":         "",
		"workspace_dir":   "",
		"keep_workspaces": false,
		"descriptor":      "",
		"format":          "text",
		"state_dir":       "~/.featurecheck/state",
		// max_history_entries: Oldest entries are pruned when this limit is exceeded.
		"max_history_entries": 500,
	}
}
