package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"/usr/local/bin/prompt", "/usr/local/bin/prompt"},
		{"/home/me/my tools/prompt", "'/home/me/my tools/prompt'"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ShellQuote(tt.in))
		})
	}
}

func TestGetPromptCommand(t *testing.T) {
	// The test binary is built by 'go test' under a go-build temp directory
	cmd := GetPromptCommand()
	assert.NotEmpty(t, cmd)
	if cmd != BinaryName {
		assert.True(t, filepath.IsAbs(cmd), "expected an absolute path, got %q", cmd)
	}
}

func TestIsTemporaryBuild(t *testing.T) {
	assert.True(t, isTemporaryBuild("/tmp/go-build123/b001/exe/prompt"))
	assert.False(t, isTemporaryBuild("/usr/local/bin/prompt"))
}
