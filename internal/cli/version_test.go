package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want []string
	}{
		"plain": {
			args: []string{"version", "--plain"},
			want: []string{"featurecheck dev", "commit: unknown", "go: go", "platform: "},
		},
		"pretty": {
			args: []string{"version"},
			want: []string{"featurecheck dev", "Commit:", "Platform:"},
		},
		"alias": {
			args: []string{"v", "--plain"},
			want: []string{"featurecheck dev"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			var buf bytes.Buffer
			root.SetOut(&buf)
			root.SetArgs(tt.args)
			require.NoError(t, root.Execute())
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestTruncateCommit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc1234", truncateCommit("abc1234def"))
	assert.Equal(t, "abc", truncateCommit("abc"))
}
