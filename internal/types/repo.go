package types

// HeadKind enumerates what HEAD points at
type HeadKind int

const (
	// HeadUnborn is a symbolic HEAD naming a branch without commits
	HeadUnborn HeadKind = iota
	// HeadDetached is HEAD pointing directly at a commit
	HeadDetached
	// HeadBranch is HEAD pointing at an existing local branch
	HeadBranch
)

func (k HeadKind) String() string {
	switch k {
	case HeadUnborn:
		return "unborn"
	case HeadDetached:
		return "detached"
	case HeadBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Head is the resolved HEAD of a repository.
//
// Name is set for HeadUnborn and HeadBranch, ShortID for HeadDetached.
// Tracking is only ever non-nil for HeadBranch.
type Head struct {
	Kind     HeadKind      `json:"kind"`
	Name     string        `json:"name,omitempty"`
	ShortID  string        `json:"short_id,omitempty"`
	Tracking *TrackingInfo `json:"tracking,omitempty"`
}

// TrackingInfo describes the remote-tracking branch of a local branch
type TrackingInfo struct {
	Remote         string `json:"remote"`          // e.g. "origin"
	UpstreamName   string `json:"upstream_name"`   // e.g. "origin/main"
	UpstreamBranch string `json:"upstream_branch"` // e.g. "main"
	Ahead          int    `json:"ahead"`
	Behind         int    `json:"behind"`
}

// Label is the text shown for HEAD in the prompt
func (h Head) Label() string {
	switch h.Kind {
	case HeadDetached:
		return h.ShortID
	case HeadBranch:
		if h.Tracking == nil {
			return h.Name
		}
		if h.Tracking.UpstreamBranch == h.Name {
			return h.Tracking.UpstreamName
		}
		return h.Name + ":" + h.Tracking.UpstreamName
	default:
		return h.Name
	}
}

// Marker is the divergence class between a branch and its upstream
func (h Head) Marker() string {
	if h.Tracking == nil {
		return ""
	}
	return AheadBehindMarker(h.Tracking.Ahead, h.Tracking.Behind)
}

// AheadBehindMarker returns "AB", "A", "B" or "" depending on which of the
// counts are positive.
func AheadBehindMarker(ahead, behind int) string {
	switch {
	case ahead > 0 && behind > 0:
		return "AB"
	case ahead > 0:
		return "A"
	case behind > 0:
		return "B"
	default:
		return ""
	}
}

// RepositoryState is an in-progress operation such as a merge or rebase
type RepositoryState string

const (
	StateClean                RepositoryState = ""
	StateMerge                RepositoryState = "merge"
	StateRevert               RepositoryState = "revert"
	StateRevertSequence       RepositoryState = "revert-sequence"
	StateCherryPick           RepositoryState = "cherry-pick"
	StateCherryPickSequence   RepositoryState = "cherry-pick-sequence"
	StateBisect               RepositoryState = "bisect"
	StateRebase               RepositoryState = "rebase"
	StateRebaseInteractive    RepositoryState = "rebase-interactive"
	StateRebaseMerge          RepositoryState = "rebase-merge"
	StateApplyMailbox         RepositoryState = "apply-mailbox"
	StateApplyMailboxOrRebase RepositoryState = "apply-mailbox-or-rebase"
)

// RepoState is the complete summary rendered in the git segment
type RepoState struct {
	Head        Head            `json:"head"`
	State       RepositoryState `json:"state,omitempty"`
	StatusFlags StatusFlags     `json:"status_flags"`
	HasStash    bool            `json:"has_stash"`
}

// HeadLabel is the repository state name when an operation is in
// progress, otherwise the HEAD label.
func (s RepoState) HeadLabel() string {
	if s.State != StateClean {
		return string(s.State)
	}
	return s.Head.Label()
}

// AheadBehind is the divergence marker. It is empty while an operation is
// in progress.
func (s RepoState) AheadBehind() string {
	if s.State != StateClean {
		return ""
	}
	return s.Head.Marker()
}
