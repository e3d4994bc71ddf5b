package git

import (
	"fmt"

	"github.com/jlaneve/prompt/internal/types"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	HeadRef     Reference
	HeadErr     error
	References  map[string]Reference
	Branches    map[string]Branch // keyed by short name
	Upstreams   map[string]Branch // keyed by local branch short name
	RemoteNames map[string]string // keyed by remote-tracking ref name
	Counts      map[string][2]int // keyed by "local...upstream"
	Entries     []StatusEntry
	StatusErr   error
	Reflogs     map[string][]ReflogEntry
	ShortIDs    map[string]string
	RepoState   types.RepositoryState
	WorkdirPath string
	GitDirPath  string

	// Calls records every method invoked, in order
	Calls []string
}

// NewMockBackend creates a MockBackend for a non-bare repository with a
// clean state and no references.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		References:  make(map[string]Reference),
		Branches:    make(map[string]Branch),
		Upstreams:   make(map[string]Branch),
		RemoteNames: make(map[string]string),
		Counts:      make(map[string][2]int),
		Reflogs:     make(map[string][]ReflogEntry),
		ShortIDs:    make(map[string]string),
		WorkdirPath: "/repo",
		GitDirPath:  "/repo/.git",
	}
}

func (m *MockBackend) record(call string) {
	m.Calls = append(m.Calls, call)
}

// Head returns the mocked HEAD
func (m *MockBackend) Head() (Reference, error) {
	m.record("Head")
	return m.HeadRef, m.HeadErr
}

// FindReference returns the mocked reference
func (m *MockBackend) FindReference(name string) (Reference, error) {
	m.record("FindReference")
	ref, ok := m.References[name]
	if !ok {
		return Reference{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ref, nil
}

// FindBranch returns the mocked local branch
func (m *MockBackend) FindBranch(name string) (Branch, error) {
	m.record("FindBranch")
	b, ok := m.Branches[name]
	if !ok {
		return Branch{}, fmt.Errorf("%w: branch %s", ErrNotFound, name)
	}
	return b, nil
}

// LocalBranches returns every mocked local branch
func (m *MockBackend) LocalBranches() ([]Branch, error) {
	m.record("LocalBranches")
	branches := make([]Branch, 0, len(m.Branches))
	for _, b := range m.Branches {
		branches = append(branches, b)
	}
	return branches, nil
}

// Upstream returns the mocked upstream of b
func (m *MockBackend) Upstream(b Branch) (Branch, error) {
	m.record("Upstream")
	up, ok := m.Upstreams[b.Name]
	if !ok {
		return Branch{}, fmt.Errorf("%w: no upstream for %s", ErrNotFound, b.Name)
	}
	return up, nil
}

// BranchRemoteName returns the mocked remote name
func (m *MockBackend) BranchRemoteName(refName string) (string, error) {
	m.record("BranchRemoteName")
	name, ok := m.RemoteNames[refName]
	if !ok {
		return "", fmt.Errorf("%w: no remote for %s", ErrNotFound, refName)
	}
	return name, nil
}

// AheadBehind returns the mocked counts
func (m *MockBackend) AheadBehind(local, upstream string) (int, int, error) {
	m.record("AheadBehind")
	c, ok := m.Counts[local+"..."+upstream]
	if !ok {
		return 0, 0, fmt.Errorf("mock has no counts for %s...%s", local, upstream)
	}
	return c[0], c[1], nil
}

// Statuses returns the mocked status entries
func (m *MockBackend) Statuses(opts StatusOptions) ([]StatusEntry, error) {
	m.record("Statuses")
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	if m.WorkdirPath == "" {
		return nil, ErrBareRepo
	}
	return m.Entries, nil
}

// Reflog returns the mocked reflog
func (m *MockBackend) Reflog(ref string) ([]ReflogEntry, error) {
	m.record("Reflog")
	entries, ok := m.Reflogs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: reflog %s", ErrNotFound, ref)
	}
	return entries, nil
}

// ShortID returns the mocked abbreviation, or the first seven characters
func (m *MockBackend) ShortID(oid string) (string, error) {
	m.record("ShortID")
	if short, ok := m.ShortIDs[oid]; ok {
		return short, nil
	}
	if len(oid) < 7 {
		return "", fmt.Errorf("mock cannot abbreviate %q", oid)
	}
	return oid[:7], nil
}

// State returns the mocked repository state
func (m *MockBackend) State() (types.RepositoryState, error) {
	m.record("State")
	return m.RepoState, nil
}

// Workdir returns the mocked work tree root
func (m *MockBackend) Workdir() string {
	return m.WorkdirPath
}

// GitDir returns the mocked git directory
func (m *MockBackend) GitDir() string {
	return m.GitDirPath
}

// SetBranchHead points HEAD at an existing local branch
func (m *MockBackend) SetBranchHead(name, oid string) {
	ref := Reference{Name: "HEAD", SymbolicTarget: headsPrefix + name, Target: oid}
	m.HeadRef = ref
	m.HeadErr = nil
	m.References["HEAD"] = ref
	m.Branches[name] = Branch{Name: name, RefName: headsPrefix + name, Target: oid}
}

// SetUnbornHead points HEAD at a branch without commits
func (m *MockBackend) SetUnbornHead(name string) {
	ref := Reference{Name: "HEAD", SymbolicTarget: headsPrefix + name}
	m.HeadRef = ref
	m.HeadErr = ErrUnbornBranch
	m.References["HEAD"] = ref
}

// SetDetachedHead points HEAD directly at a commit
func (m *MockBackend) SetDetachedHead(oid string) {
	ref := Reference{Name: "HEAD", Target: oid}
	m.HeadRef = ref
	m.HeadErr = nil
	m.References["HEAD"] = ref
}

// SetUpstream configures a remote-tracking branch for a local branch
func (m *MockBackend) SetUpstream(local, remote, upstreamBranch, oid string, ahead, behind int) {
	refName := remotesPrefix + remote + "/" + upstreamBranch
	m.Upstreams[local] = Branch{Name: remote + "/" + upstreamBranch, RefName: refName, Target: oid}
	m.RemoteNames[refName] = remote
	localOID := m.Branches[local].Target
	m.Counts[localOID+"..."+oid] = [2]int{ahead, behind}
}

// SetStash gives the mock a stash reflog with n entries
func (m *MockBackend) SetStash(n int) {
	entries := make([]ReflogEntry, n)
	for i := range entries {
		entries[i] = ReflogEntry{ID: fmt.Sprintf("%040d", i), Message: fmt.Sprintf("WIP %d", i)}
	}
	m.Reflogs["refs/stash"] = entries
}

// Called reports whether method was invoked
func (m *MockBackend) Called(method string) bool {
	for _, c := range m.Calls {
		if c == method {
			return true
		}
	}
	return false
}
