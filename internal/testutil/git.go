// Package testutil holds helpers for tests that need real git repositories.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SkipIfNoGit skips the test when git is not installed
func SkipIfNoGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// ResolvePath returns path with symlinks resolved, matching what git
// reports for repository locations (t.TempDir may live under a symlink).
func ResolvePath(t testing.TB, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", path, err)
	}
	return resolved
}

// IsolateGit points git away from the user's and system configuration for
// the duration of the test.
func IsolateGit(t testing.TB) {
	t.Helper()
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_TERMINAL_PROMPT", "0")
	t.Setenv("GIT_AUTHOR_DATE", "2024-01-01T00:00:00Z")
	t.Setenv("GIT_COMMITTER_DATE", "2024-01-01T00:00:00Z")
}

// Git runs git in dir and returns its trimmed stdout, failing the test on
// error.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// CreateTempGitRepo creates an empty repository whose HEAD points at the
// unborn branch main. The returned path has symlinks resolved.
func CreateTempGitRepo(t testing.TB) string {
	t.Helper()
	SkipIfNoGit(t)
	IsolateGit(t)

	dir := filepath.Join(ResolvePath(t, t.TempDir()), "repo")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}
	Git(t, dir, "init", "-q")
	Git(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

// WriteFile writes content to name inside dir, creating parent directories
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Commit stages everything in dir and commits it with message
func Commit(t testing.TB, dir, message string) string {
	t.Helper()
	Git(t, dir, "add", "-A")
	Git(t, dir, "commit", "-q", "--allow-empty", "-m", message)
	return Git(t, dir, "rev-parse", "HEAD")
}

// CreateTrackedClone creates a bare remote with one commit on main and a
// clone of it that tracks origin/main. Returns the clone's path.
func CreateTrackedClone(t testing.TB) (clone, remote string) {
	t.Helper()
	origin := CreateTempGitRepo(t)
	WriteFile(t, origin, "README.md", "hello\n")
	Commit(t, origin, "initial")

	parent := filepath.Dir(origin)
	remote = filepath.Join(parent, "remote.git")
	Git(t, parent, "clone", "-q", "--bare", origin, remote)

	clone = filepath.Join(parent, "clone")
	Git(t, parent, "clone", "-q", remote, clone)
	Git(t, clone, "config", "user.name", "Test User")
	Git(t, clone, "config", "user.email", "test@example.com")
	Git(t, clone, "config", "commit.gpgsign", "false")
	return clone, remote
}
