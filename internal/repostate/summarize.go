// Package repostate derives the compact repository summary shown in the
// prompt: head label, upstream divergence, status flags and stash presence.
package repostate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jlaneve/prompt/internal/clients/git"
	"github.com/jlaneve/prompt/internal/types"
)

// StashRef is the reference whose reflog holds stash entries
const StashRef = "refs/stash"

// Summarize reads a fresh snapshot of the repository behind b.
//
// Absent features (no upstream, no stash, no work tree) yield zero values.
// Any error returned means the repository metadata contradicts itself and
// nothing should be rendered for it.
func Summarize(b git.Backend) (types.RepoState, error) {
	var rs types.RepoState

	head, err := ReadHead(b)
	if err != nil {
		return types.RepoState{}, err
	}
	rs.Head = head

	state, err := b.State()
	if err != nil {
		return types.RepoState{}, fmt.Errorf("failed to read repository state: %w", err)
	}
	rs.State = state

	flags, err := ReadStatus(b)
	if err != nil {
		return types.RepoState{}, err
	}
	rs.StatusFlags = flags

	rs.HasStash = HasStash(b)
	return rs, nil
}

// ReadHead resolves HEAD into one of the three head kinds
func ReadHead(b git.Backend) (types.Head, error) {
	ref, err := b.Head()
	switch {
	case errors.Is(err, git.ErrUnbornBranch):
		return readUnborn(b)
	case err != nil:
		return types.Head{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if ref.Shorthand() == "HEAD" {
		if ref.Target == "" {
			return types.Head{}, fmt.Errorf("detached HEAD has no target")
		}
		short, err := b.ShortID(ref.Target)
		if err != nil {
			return types.Head{}, fmt.Errorf("failed to abbreviate HEAD: %w", err)
		}
		return types.Head{Kind: types.HeadDetached, ShortID: short}, nil
	}

	branch, err := b.FindBranch(ref.Shorthand())
	if err != nil {
		return types.Head{}, fmt.Errorf("branch %s is HEAD but cannot be read: %w", ref.Shorthand(), err)
	}

	head := types.Head{Kind: types.HeadBranch, Name: branch.Name}
	tracking, err := readTracking(b, branch)
	if err != nil {
		return types.Head{}, err
	}
	head.Tracking = tracking
	return head, nil
}

func readUnborn(b git.Backend) (types.Head, error) {
	ref, err := b.FindReference("HEAD")
	if err != nil {
		return types.Head{}, fmt.Errorf("failed to read HEAD: %w", err)
	}
	if !ref.Symbolic() {
		return types.Head{}, fmt.Errorf("unborn HEAD is not symbolic")
	}
	name, ok := strings.CutPrefix(ref.SymbolicTarget, "refs/heads/")
	if !ok || name == "" {
		return types.Head{}, fmt.Errorf("unborn HEAD points outside refs/heads/: %s", ref.SymbolicTarget)
	}
	return types.Head{Kind: types.HeadUnborn, Name: name}, nil
}

// readTracking returns nil when branch has no upstream
func readTracking(b git.Backend, branch git.Branch) (*types.TrackingInfo, error) {
	upstream, err := b.Upstream(branch)
	if errors.Is(err, git.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upstream of %s: %w", branch.Name, err)
	}

	ahead, behind, err := b.AheadBehind(branch.Target, upstream.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s with %s: %w", branch.Name, upstream.Name, err)
	}
	tracking := &types.TrackingInfo{
		UpstreamName: upstream.Name,
		Ahead:        ahead,
		Behind:       behind,
	}

	remote, err := b.BranchRemoteName(upstream.RefName)
	switch {
	case errors.Is(err, git.ErrNotFound) && !upstream.IsRemote():
		// Upstream is another local branch (branch.<name>.remote = ".")
		tracking.UpstreamBranch = upstream.Name
		return tracking, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find remote of %s: %w", upstream.RefName, err)
	}
	if !utf8.ValidString(remote) {
		return nil, fmt.Errorf("remote name %q is not valid UTF-8", remote)
	}

	upstreamBranch, ok := strings.CutPrefix(upstream.Name, remote+"/")
	if !ok {
		return nil, fmt.Errorf("upstream %s does not start with remote %s", upstream.Name, remote)
	}
	tracking.Remote = remote
	tracking.UpstreamBranch = upstreamBranch
	return tracking, nil
}

// ReadStatus aggregates the status of every changed path. A repository
// without a work tree has no status.
func ReadStatus(b git.Backend) (types.StatusFlags, error) {
	entries, err := b.Statuses(git.PromptStatusOptions())
	if errors.Is(err, git.ErrBareRepo) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read status: %w", err)
	}
	return git.Aggregate(entries), nil
}

// HasStash reports whether the stash reflog has entries. Any failure to
// read it counts as no stash.
func HasStash(b git.Backend) bool {
	entries, err := b.Reflog(StashRef)
	return err == nil && len(entries) > 0
}
