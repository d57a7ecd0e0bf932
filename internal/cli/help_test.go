package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/internal/cli"
)

func TestHelpOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "root",
			args: []string{"--help"},
			want: []string{"Usage:", "annotext [command]", "Commands:", "edit", "watch", "Flags:"},
		},
		{
			name: "edit",
			args: []string{"edit", "--help"},
			want: []string{"Examples:", "Flags:", "-n, --dry-run", "--text string", "Global Flags:", "--store string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := cli.NewRootCommand(cli.BuildInfo{Version: "test"})
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
