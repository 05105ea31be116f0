package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatures(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want []string
	}{
		"separate value":    {args: []string{"check", "--features", "a,c"}, want: []string{"a", "c"}},
		"equals form":       {args: []string{"--features=b"}, want: []string{"b"}},
		"empty feature set": {args: []string{"check", "--features", ""}, want: nil},
		"no flag":           {args: []string{"check"}, want: nil},
		"stray commas":      {args: []string{"--features", ",a,,b,"}, want: []string{"a", "b"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseFeatures(tt.args))
		})
	}
}

func TestFixtureCompiler_Rules(t *testing.T) {
	t.Parallel()

	rule := FixtureCompiler().Failures[0]
	tests := map[string]struct {
		features []string
		want     bool
	}{
		"baseline":     {features: nil, want: false},
		"a alone":      {features: []string{"a"}, want: false},
		"a and c":      {features: []string{"a", "c"}, want: true},
		"all three":    {features: []string{"a", "b", "c"}, want: false},
		"c alone":      {features: []string{"c"}, want: false},
		"b and c only": {features: []string{"b", "c"}, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rule.Matches(tt.features))
		})
	}
}

func TestHelperArgs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"check", "--features", "a"},
		helperArgs([]string{"bin", "-test.run=X", "--", "check", "--features", "a"}))
	assert.Nil(t, helperArgs([]string{"bin"}))
}

func TestCallLog_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, AppendCallLog(dir, CallLogEntry{
		Features:  []string{"a", "c"},
		Timestamp: "2026-01-01T00:00:00Z",
		ExitCode:  101,
	}))

	entries, err := ReadCallLog(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a,c", entries[0].FeatureKey())
	assert.Equal(t, 101, entries[0].ExitCode)
}
