package state

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/clients/git"
	"github.com/jlaneve/prompt/internal/clients/system"
	"github.com/jlaneve/prompt/internal/repostate"
	"github.com/jlaneve/prompt/internal/types"
)

// OpenFunc discovers the repository containing dir
type OpenFunc func(dir string) (git.Backend, error)

// Config holds configuration for the Manager
type Config struct {
	System system.Checker // Injectable environment lookups
	Open   OpenFunc       // Injectable repository discovery
	Logger *zap.Logger
}

// Manager derives prompt snapshots from the environment and repository
type Manager struct {
	config Config
}

// NewManager creates a new Manager with the given configuration
func NewManager(config Config) *Manager {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.System == nil {
		config.System = system.NewRealChecker()
	}
	if config.Open == nil {
		logger := config.Logger
		config.Open = func(dir string) (git.Backend, error) {
			return git.Open(dir, logger)
		}
	}
	return &Manager{config: config}
}

// DeriveSnapshot reads identity, working directory and repository state
// fresh from the environment. An error means nothing should be rendered.
func (m *Manager) DeriveSnapshot() (types.Snapshot, error) {
	var snap types.Snapshot

	identity, err := m.deriveIdentity()
	if err != nil {
		return types.Snapshot{}, err
	}
	snap.Identity = identity

	if venv, ok := m.config.System.LookupEnv("VIRTUAL_ENV_PROMPT"); ok {
		snap.Venv = lossy(venv)
	}

	wd, err := m.config.System.WorkingDir()
	if err != nil {
		return types.Snapshot{}, err
	}
	snap.WorkingDir = wd

	if wd == "/" {
		snap.Dir = "/"
		return snap, nil
	}

	backend, err := m.discover(wd)
	if err != nil {
		return types.Snapshot{}, err
	}
	if backend == nil {
		snap.Dir = lossy(m.relativeToHome(wd))
		return snap, nil
	}

	snap.GitDir = backend.GitDir()
	snap.Dir = lossy(repoRelative(backend.Workdir(), wd, m.relativeToHome))

	rs, err := repostate.Summarize(backend)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to summarize repository %s: %w", backend.GitDir(), err)
	}
	snap.Repo = &rs
	return snap, nil
}

// discover returns a nil backend outside any repository
func (m *Manager) discover(wd string) (git.Backend, error) {
	backend, err := m.config.Open(wd)
	switch {
	case errors.Is(err, git.ErrNotRepository):
		return nil, nil
	case errors.Is(err, exec.ErrNotFound):
		m.config.Logger.Debug("git not installed, skipping repository lookup", zap.Error(err))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return backend, nil
}

func (m *Manager) deriveIdentity() (types.Identity, error) {
	sys := m.config.System

	user, ok := sys.LookupEnv("USER")
	if !ok {
		return types.Identity{}, nil
	}
	id := types.Identity{User: lossy(user), Root: sys.IsRoot()}

	logname, hasLogname := sys.LookupEnv("LOGNAME")
	id.Show = id.Root || (hasLogname && logname != user)
	for _, key := range []string{"SSH_CONNECTION", "SSH_CLIENT", "SSH_TTY"} {
		if _, set := sys.LookupEnv(key); set {
			id.Show = true
		}
	}

	if _, ssh := sys.LookupEnv("SSH_CONNECTION"); ssh {
		host, err := sys.Hostname()
		if err != nil {
			return types.Identity{}, err
		}
		id.Host = lossy(host)
	}
	return id, nil
}

// relativeToHome replaces a leading $HOME with "~"
func (m *Manager) relativeToHome(dir string) string {
	home, ok := m.config.System.LookupEnv("HOME")
	if !ok || home == "" {
		return dir
	}
	home = strings.TrimSuffix(home, "/")
	if home == "" {
		return dir
	}
	if dir == home {
		return "~"
	}
	if rest, found := strings.CutPrefix(dir, home+"/"); found {
		return "~/" + rest
	}
	return dir
}

// repoRelative renders wd relative to the parent of workdir. Git reports
// physical paths, so a logical wd reached through a symlink is retried
// with symlinks resolved. A repository without a work tree is rooted at
// wd itself.
func repoRelative(workdir, wd string, fallback func(string) string) string {
	if workdir == "" {
		return filepath.Base(wd)
	}
	if rel, ok := git.RelToRepoParent(workdir, wd); ok {
		return rel
	}
	if resolved, err := filepath.EvalSymlinks(wd); err == nil {
		if rel, ok := git.RelToRepoParent(workdir, resolved); ok {
			return rel
		}
	}
	return fallback(wd)
}

func lossy(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
