package repostate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaneve/prompt/internal/clients/git"
	"github.com/jlaneve/prompt/internal/testutil"
	"github.com/jlaneve/prompt/internal/types"
)

const (
	oidLocal    = "1111111111111111111111111111111111111111"
	oidUpstream = "2222222222222222222222222222222222222222"
	oidDetached = "abcdef0123456789abcdef0123456789abcdef01"
)

func TestSummarize_Mock(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *git.MockBackend)
		want  types.RepoState
	}{
		{
			name:  "unborn branch",
			setup: func(m *git.MockBackend) { m.SetUnbornHead("main") },
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadUnborn, Name: "main"},
			},
		},
		{
			name: "detached head",
			setup: func(m *git.MockBackend) {
				m.SetDetachedHead(oidDetached)
				m.ShortIDs[oidDetached] = "abcdef0"
			},
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadDetached, ShortID: "abcdef0"},
			},
		},
		{
			name:  "branch without upstream",
			setup: func(m *git.MockBackend) { m.SetBranchHead("feature", oidLocal) },
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "feature"},
			},
		},
		{
			name: "branch tracking same name",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.SetUpstream("main", "origin", "main", oidUpstream, 3, 0)
			},
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "main", Tracking: &types.TrackingInfo{
					Remote: "origin", UpstreamName: "origin/main", UpstreamBranch: "main", Ahead: 3,
				}},
			},
		},
		{
			name: "branch tracking different name",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("topic", oidLocal)
				m.SetUpstream("topic", "upstream", "feature/topic", oidUpstream, 2, 2)
			},
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "topic", Tracking: &types.TrackingInfo{
					Remote: "upstream", UpstreamName: "upstream/feature/topic", UpstreamBranch: "feature/topic",
					Ahead: 2, Behind: 2,
				}},
			},
		},
		{
			name: "status and stash",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.Entries = []git.StatusEntry{
					{Path: "new.txt", Status: types.StatusWtNew},
					{Path: "staged.txt", Status: types.StatusIndexModified},
				}
				m.SetStash(2)
			},
			want: types.RepoState{
				Head:        types.Head{Kind: types.HeadBranch, Name: "main"},
				StatusFlags: types.StatusWtNew | types.StatusIndexModified,
				HasStash:    true,
			},
		},
		{
			name: "bare repository has empty status",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.WorkdirPath = ""
				m.Entries = []git.StatusEntry{{Path: "ignored", Status: types.StatusWtNew}}
			},
			want: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "main"},
			},
		},
		{
			name: "merge in progress",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.RepoState = types.StateMerge
			},
			want: types.RepoState{
				Head:  types.Head{Kind: types.HeadBranch, Name: "main"},
				State: types.StateMerge,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := git.NewMockBackend()
			tt.setup(m)

			got, err := Summarize(m)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarize_Labels(t *testing.T) {
	m := git.NewMockBackend()
	m.SetBranchHead("main", oidLocal)
	m.SetUpstream("main", "origin", "main", oidUpstream, 0, 5)

	rs, err := Summarize(m)
	require.NoError(t, err)
	assert.Equal(t, "origin/main", rs.HeadLabel())
	assert.Equal(t, "B", rs.AheadBehind())

	m = git.NewMockBackend()
	m.SetBranchHead("dev", oidLocal)
	m.SetUpstream("dev", "origin", "main", oidUpstream, 1, 0)

	rs, err = Summarize(m)
	require.NoError(t, err)
	assert.Equal(t, "dev:origin/main", rs.HeadLabel())
	assert.Equal(t, "A", rs.AheadBehind())
}

func TestSummarize_UnbornSkipsTracking(t *testing.T) {
	m := git.NewMockBackend()
	m.SetUnbornHead("main")

	_, err := Summarize(m)
	require.NoError(t, err)
	assert.False(t, m.Called("Upstream"))
	assert.False(t, m.Called("AheadBehind"))
}

func TestSummarize_Fatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *git.MockBackend)
	}{
		{
			name: "HEAD unreadable",
			setup: func(m *git.MockBackend) {
				m.HeadErr = errors.New("corrupt HEAD")
			},
		},
		{
			name: "HEAD branch missing",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				delete(m.Branches, "main")
			},
		},
		{
			name: "unborn HEAD outside refs/heads",
			setup: func(m *git.MockBackend) {
				m.SetUnbornHead("main")
				m.References["HEAD"] = git.Reference{Name: "HEAD", SymbolicTarget: "refs/remotes/origin/main"}
			},
		},
		{
			name: "upstream without remote prefix",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.SetUpstream("main", "origin", "main", oidUpstream, 0, 0)
				m.RemoteNames["refs/remotes/origin/main"] = "fork"
			},
		},
		{
			name: "remote name not UTF-8",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.SetUpstream("main", "origin", "main", oidUpstream, 0, 0)
				m.RemoteNames["refs/remotes/origin/main"] = "or\xffigin"
			},
		},
		{
			name: "status failure",
			setup: func(m *git.MockBackend) {
				m.SetBranchHead("main", oidLocal)
				m.StatusErr = errors.New("index corrupt")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := git.NewMockBackend()
			tt.setup(m)

			_, err := Summarize(m)
			assert.Error(t, err)
		})
	}
}

func TestHasStash_Errors(t *testing.T) {
	m := git.NewMockBackend()
	assert.False(t, HasStash(m))

	m.Reflogs[StashRef] = nil
	assert.False(t, HasStash(m))

	m.SetStash(1)
	assert.True(t, HasStash(m))
}

func TestSummarize_LocalUpstream(t *testing.T) {
	m := git.NewMockBackend()
	m.SetBranchHead("topic", oidLocal)
	m.Upstreams["topic"] = git.Branch{Name: "main", RefName: "refs/heads/main", Target: oidUpstream}
	m.Counts[oidLocal+"..."+oidUpstream] = [2]int{1, 1}

	rs, err := Summarize(m)
	require.NoError(t, err)
	assert.Equal(t, "topic:main", rs.HeadLabel())
	assert.Equal(t, "AB", rs.AheadBehind())
}

func TestSummarize_RealRepositories(t *testing.T) {
	t.Run("unborn main", func(t *testing.T) {
		repo := testutil.CreateTempGitRepo(t)
		b, err := git.Open(repo, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, "main", rs.HeadLabel())
		assert.Empty(t, rs.AheadBehind())
		assert.Zero(t, rs.StatusFlags)
		assert.False(t, rs.HasStash)
	})

	t.Run("detached head", func(t *testing.T) {
		repo := testutil.CreateTempGitRepo(t)
		oid := testutil.Commit(t, repo, "first")
		testutil.Git(t, repo, "checkout", "-q", "--detach")

		b, err := git.Open(repo, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, types.HeadDetached, rs.Head.Kind)
		assert.Equal(t, testutil.Git(t, repo, "rev-parse", "--short", oid), rs.HeadLabel())
		assert.Empty(t, rs.AheadBehind())
	})

	t.Run("untracked and staged modified", func(t *testing.T) {
		repo := testutil.CreateTempGitRepo(t)
		testutil.WriteFile(t, repo, "tracked.txt", "one\n")
		testutil.Commit(t, repo, "first")
		testutil.WriteFile(t, repo, "tracked.txt", "two\n")
		testutil.Git(t, repo, "add", "tracked.txt")
		testutil.WriteFile(t, repo, "untracked.txt", "new\n")

		b, err := git.Open(repo, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, "nM", rs.StatusFlags.String())
		assert.Equal(t, "main", rs.HeadLabel())
	})

	t.Run("unstaged move", func(t *testing.T) {
		repo := testutil.CreateTempGitRepo(t)
		testutil.WriteFile(t, repo, "a.txt", "alpha\n")
		testutil.Commit(t, repo, "first")
		require.NoError(t, os.Rename(filepath.Join(repo, "a.txt"), filepath.Join(repo, "b.txt")))

		b, err := git.Open(repo, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, "r", rs.StatusFlags.String())
	})

	t.Run("tracking origin main", func(t *testing.T) {
		clone, _ := testutil.CreateTrackedClone(t)
		testutil.WriteFile(t, clone, "local.txt", "x\n")
		testutil.Commit(t, clone, "local")

		b, err := git.Open(clone, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, "origin/main", rs.HeadLabel())
		assert.Equal(t, "A", rs.AheadBehind())
	})

	t.Run("tracking under another name", func(t *testing.T) {
		clone, _ := testutil.CreateTrackedClone(t)
		testutil.Git(t, clone, "checkout", "-q", "-b", "dev", "--track", "origin/main")

		b, err := git.Open(clone, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.Equal(t, "dev:origin/main", rs.HeadLabel())
		assert.Empty(t, rs.AheadBehind())
	})

	t.Run("stash", func(t *testing.T) {
		repo := testutil.CreateTempGitRepo(t)
		testutil.WriteFile(t, repo, "tracked.txt", "one\n")
		testutil.Commit(t, repo, "first")
		testutil.WriteFile(t, repo, "tracked.txt", "two\n")
		testutil.Git(t, repo, "stash", "-q")

		b, err := git.Open(repo, nil)
		require.NoError(t, err)

		rs, err := Summarize(b)
		require.NoError(t, err)
		assert.True(t, rs.HasStash)
		assert.Zero(t, rs.StatusFlags)
	})
}
