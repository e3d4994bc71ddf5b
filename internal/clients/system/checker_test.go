package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidLogicalPath(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	real := filepath.Join(base, "real")
	other := filepath.Join(base, "other")
	link := filepath.Join(base, "link")
	require.NoError(t, os.Mkdir(real, 0o755))
	require.NoError(t, os.Mkdir(other, 0o755))
	require.NoError(t, os.Symlink(real, link))

	tests := []struct {
		name string
		pwd  string
		want bool
	}{
		{"physical path", real, true},
		{"symlinked path", link, true},
		{"different directory", other, false},
		{"relative", "real", false},
		{"dot component", base + "/./real", false},
		{"dotdot component", other + "/../real", false},
		{"missing", filepath.Join(base, "missing"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLogicalPath(tt.pwd, real))
		})
	}
}

func TestRealChecker_WorkingDir(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	real := filepath.Join(base, "real")
	link := filepath.Join(base, "link")
	require.NoError(t, os.Mkdir(real, 0o755))
	require.NoError(t, os.Symlink(real, link))

	t.Chdir(real)
	checker := NewRealChecker()

	// Logical path through the symlink is kept
	t.Setenv("PWD", link)
	wd, err := checker.WorkingDir()
	require.NoError(t, err)
	assert.Equal(t, link, wd)

	// A stale PWD falls back to the physical directory
	t.Setenv("PWD", base)
	wd, err = checker.WorkingDir()
	require.NoError(t, err)
	assert.Equal(t, real, wd)
}

func TestRealChecker_Hostname(t *testing.T) {
	host, err := NewRealChecker().Hostname()
	require.NoError(t, err)

	want, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, want, host)
}

func TestMockChecker(t *testing.T) {
	mock := NewMockChecker()

	if _, ok := mock.LookupEnv("USER"); ok {
		t.Error("LookupEnv(USER) reported set on empty mock")
	}
	mock.SetEnv("USER", "alice")
	v, ok := mock.LookupEnv("USER")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	assert.False(t, mock.IsRoot())
	mock.Root = true
	assert.True(t, mock.IsRoot())

	wd, err := mock.WorkingDir()
	require.NoError(t, err)
	assert.Equal(t, "/", wd)
}
