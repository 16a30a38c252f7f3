package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// executeCommand runs rootCmd with args and returns stdout and stderr together.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"domain", "text", "chunk", "embed", "retrieve", "chat", "model", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestCommands_RequireServices(t *testing.T) {
	SetServices(Services{})
	defer resetFlags(rootCmd)

	tests := [][]string{
		{"domain", "list"},
		{"text", "show", "text-1"},
		{"chunk", "methods"},
		{"embed", "methods"},
		{"retrieve", "methods"},
		{"model", "info", "llama3.2"},
	}
	for _, args := range tests {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			_, err := executeCommand(args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not configured")
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{
		"chunk_size=500",
		"lambda=0.5",
		"bigrams=true",
		`separators=["\n\n", " "]`,
		"model=nomic-embed-text",
		"empty=",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(500), params["chunk_size"])
	assert.Equal(t, 0.5, params["lambda"])
	assert.Equal(t, true, params["bigrams"])
	assert.Equal(t, []any{"\n\n", " "}, params["separators"])
	assert.Equal(t, "nomic-embed-text", params["model"])
	assert.Equal(t, "", params["empty"])
}

func TestParseParams_Invalid(t *testing.T) {
	for _, pair := range []string{"chunk_size", "=5"} {
		_, err := parseParams([]string{pair})
		assert.ErrorIs(t, err, domain.ErrValidation, pair)
	}
}

func TestFormatParams(t *testing.T) {
	got := formatParams(map[string]any{"overlap": 50, "chunk_size": 500, domain.NameParam: "mine"})
	assert.Equal(t, "chunk_size=500 overlap=50", got)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "one two", preview("one\ntwo", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
	assert.Equal(t, "héllo", preview("héllo", 5))
}

func TestHint(t *testing.T) {
	assert.Contains(t, Hint(fmt.Errorf("embed: %w", domain.ErrTransientBackend)), "try again")
	assert.Contains(t, Hint(domain.ErrAuthentication), "API key")
	assert.Contains(t, Hint(domain.ErrLLMUnavailable), "RAGBENCH_CHAT_PROVIDER")
	assert.Empty(t, Hint(domain.ErrValidation))
}
