package feature

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubset_Canonical(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flags   []string
		wantKey string
		wantStr string
	}{
		"empty":            {flags: nil, wantKey: "", wantStr: "{}"},
		"single":           {flags: []string{"a"}, wantKey: "a", wantStr: "{a}"},
		"unsorted":         {flags: []string{"c", "a"}, wantKey: "a,c", wantStr: "{a, c}"},
		"duplicates":       {flags: []string{"b", "a", "b"}, wantKey: "a,b", wantStr: "{a, b}"},
		"multi-char flags": {flags: []string{"serde", "std", "alloc"}, wantKey: "alloc,serde,std", wantStr: "{alloc, serde, std}"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := NewSubset(tt.flags...)
			assert.Equal(t, tt.wantKey, s.Key())
			assert.Equal(t, tt.wantStr, s.String())
		})
	}
}

func TestSubset_EqualityIgnoresOrder(t *testing.T) {
	t.Parallel()

	assert.True(t, NewSubset("a", "c").Equal(NewSubset("c", "a")))
	assert.False(t, NewSubset("a").Equal(NewSubset("a", "b")))
	assert.True(t, Subset{}.Equal(NewSubset()))
}

func TestSubset_Operations(t *testing.T) {
	t.Parallel()

	s := NewSubset("a", "c")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
	assert.Equal(t, "a,b,c", s.With("b").Key())
	assert.Equal(t, "c", s.Without("a").Key())
	assert.Equal(t, "a,c", s.Without("zzz").Key())
	assert.True(t, NewSubset("a").IsSubsetOf(s))
	assert.False(t, NewSubset("b").IsSubsetOf(s))
	assert.Equal(t, "a,b,c", s.Union(NewSubset("b")).Key())
	assert.Equal(t, "a,c", s.Key(), "operations must not mutate the receiver")
}

func TestSubset_FlagsReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewSubset("a", "b")
	flags := s.Flags()
	flags[0] = "z"
	assert.Equal(t, "a,b", s.Key())
	assert.NotNil(t, Subset{}.Flags())
}

func TestCompare_Ordering(t *testing.T) {
	t.Parallel()

	subsets := []Subset{
		NewSubset("a", "c"),
		NewSubset("b"),
		NewSubset(),
		NewSubset("a", "b"),
		NewSubset("a"),
		NewSubset("a", "b", "c"),
	}
	slices.SortFunc(subsets, Compare)

	var keys []string
	for _, s := range subsets {
		keys = append(keys, s.Key())
	}
	assert.Equal(t, []string{"", "a", "b", "a,b", "a,c", "a,b,c"}, keys)
}

func TestSubset_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewSubset("c", "a"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","c"]`, string(data))

	data, err = json.Marshal(Subset{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	var s Subset
	require.NoError(t, json.Unmarshal([]byte(`["b","a","b"]`), &s))
	assert.Equal(t, "a,b", s.Key())
}
