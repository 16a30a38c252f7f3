package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/logger"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := version
	SetVersion(v)
	t.Cleanup(func() { version = original })
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		args    []string
		want    []string
		notWant string
	}{
		{
			name:    "release build",
			version: "1.2.0",
			args:    []string{"version"},
			want:    []string{"ragbench version 1.2.0\n"},
			notWant: runtime.Version(),
		},
		{
			name:    "dev build",
			version: "dev",
			args:    []string{"version"},
			want:    []string{"ragbench version dev\n"},
		},
		{
			name:    "verbose adds runtime",
			version: "1.2.0",
			args:    []string{"version", "-v"},
			want:    []string{"ragbench version 1.2.0\n", runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version)
			t.Cleanup(func() {
				resetFlags(rootCmd)
				logger.SetVerbose(false)
			})

			out, err := executeCommand(tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}
