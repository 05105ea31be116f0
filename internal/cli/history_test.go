package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/history"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := newHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func seedHistory(t *testing.T, stateDir string) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, history.SaveHistory(stateDir, &history.HistoryFile{Entries: []history.HistoryEntry{
		{Timestamp: base, Command: "run", Project: "parser", Revision: "abc1234", Strategy: "exhaustive", Tested: 8, Duration: "1.2s"},
		{Timestamp: base.Add(time.Hour), Command: "run", Project: "codec", Strategy: "pairwise", ExitCode: 1, Tested: 5, Findings: 1, Duration: "800ms"},
		{Timestamp: base.Add(2 * time.Hour), Command: "watch", Project: "parser", Strategy: "bounded", ExitCode: 2, Tested: 3, Incomplete: true, Duration: "300ms"},
	}}))
}

func TestFilterEntries(t *testing.T) {
	t.Parallel()

	entries := []history.HistoryEntry{
		{RunID: "1", Project: "parser"},
		{RunID: "2", Project: "codec"},
		{RunID: "3", Project: "parser"},
		{RunID: "4", Project: "parser"},
	}

	tests := map[string]struct {
		project string
		limit   int
		want    []string
	}{
		"no filter":          {want: []string{"1", "2", "3", "4"}},
		"by project":         {project: "parser", want: []string{"1", "3", "4"}},
		"limit keeps newest": {limit: 2, want: []string{"3", "4"}},
		"project and limit":  {project: "parser", limit: 1, want: []string{"4"}},
		"limit above count":  {limit: 10, want: []string{"1", "2", "3", "4"}},
		"unknown project":    {project: "none", want: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, e := range filterEntries(entries, tt.project, tt.limit) {
				got = append(got, e.RunID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args    []string
		seed    bool
		want    []string
		wantNot []string
		wantErr bool
	}{
		"empty state": {
			want: []string{"No history available."},
		},
		"all entries": {
			seed: true,
			want: []string{"parser", "abc1234", "codec", "exit=1", "1/5 findings", "watch"},
		},
		"project filter": {
			args:    []string{"--project", "codec"},
			seed:    true,
			want:    []string{"codec", "pairwise"},
			wantNot: []string{"parser"},
		},
		"unknown project": {
			args: []string{"-p", "nope"},
			seed: true,
			want: []string{"No matching entries for project 'nope'."},
		},
		"limit": {
			args:    []string{"-n", "1"},
			seed:    true,
			want:    []string{"bounded"},
			wantNot: []string{"exhaustive", "pairwise"},
		},
		"negative limit": {
			args:    []string{"-n", "-1"},
			wantErr: true,
		},
		"clear": {
			args: []string{"--clear"},
			seed: true,
			want: []string{"History cleared."},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			stateDir := t.TempDir()
			if tt.seed {
				seedHistory(t, stateDir)
			}

			cmd, out := newTestHistoryCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			err := runHistoryWithStateDir(cmd, stateDir)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, out.String(), w)
			}
		})
	}
}

func TestRunHistory_ClearRemovesEntries(t *testing.T) {
	t.Parallel()
	stateDir := t.TempDir()
	seedHistory(t, stateDir)

	cmd, _ := newTestHistoryCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--clear"}))
	require.NoError(t, runHistoryWithStateDir(cmd, stateDir))

	h, err := history.LoadHistory(stateDir)
	require.NoError(t, err)
	assert.Empty(t, h.Entries)
}
