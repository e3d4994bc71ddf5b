package operations

import (
	"strings"
	"testing"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/config"
	"github.com/jlaneve/prompt/internal/types"
)

func newFormat(t *testing.T, shell string) *PromptFormat {
	t.Helper()
	cfg := config.Defaults()
	cfg.Shell = shell
	f, err := NewPromptFormat(cfg)
	if err != nil {
		t.Fatalf("NewPromptFormat() error = %v", err)
	}
	return f
}

func TestPromptFormat_FormatDirectory(t *testing.T) {
	formatter := newFormat(t, "plain")

	tests := []struct {
		dir      string
		expected string
	}{
		{"/", "/ "},
		{"~", "~ "},
		{"~/src/proj/internal", "src/proj/internal "},
		{"proj/a", "proj/a "},
		{"/usr/local/share/doc", "local/share/doc "},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			result := formatter.FormatDirectory(tt.dir)
			if result != tt.expected {
				t.Errorf("FormatDirectory(%q) = %q, want %q", tt.dir, result, tt.expected)
			}
		})
	}
}

func TestPromptFormat_FormatDirectory_Roles(t *testing.T) {
	formatter := newFormat(t, "zsh")
	sh := ansi.Zsh

	expected := sh.Seq(ansi.Dim) + "src/proj/" + sh.Seq(ansi.Bold) + "internal" + sh.Seq(ansi.Reset) + " "
	if result := formatter.FormatDirectory("~/src/proj/internal"); result != expected {
		t.Errorf("FormatDirectory() = %q, want %q", result, expected)
	}

	// No ancestors still emits the ancestor role before an empty string
	expected = sh.Seq(ansi.Dim) + sh.Seq(ansi.Bold) + "/" + sh.Seq(ansi.Reset) + " "
	if result := formatter.FormatDirectory("/"); result != expected {
		t.Errorf("FormatDirectory(/) = %q, want %q", result, expected)
	}
}

func TestPromptFormat_FormatRepo(t *testing.T) {
	formatter := newFormat(t, "plain")

	tests := []struct {
		name     string
		state    types.RepoState
		expected string
	}{
		{
			name:     "unborn",
			state:    types.RepoState{Head: types.Head{Kind: types.HeadUnborn, Name: "main"}},
			expected: "main",
		},
		{
			name:     "detached",
			state:    types.RepoState{Head: types.Head{Kind: types.HeadDetached, ShortID: "abcdef0"}},
			expected: "abcdef0",
		},
		{
			name: "tracking ahead and behind with changes and stash",
			state: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "main", Tracking: &types.TrackingInfo{
					Remote: "origin", UpstreamName: "origin/main", UpstreamBranch: "main", Ahead: 1, Behind: 2,
				}},
				StatusFlags: types.StatusWtNew | types.StatusIndexModified,
				HasStash:    true,
			},
			expected: "origin/mainnMABS",
		},
		{
			name: "rebase replaces label and marker",
			state: types.RepoState{
				Head: types.Head{Kind: types.HeadBranch, Name: "dev", Tracking: &types.TrackingInfo{
					Remote: "origin", UpstreamName: "origin/main", UpstreamBranch: "main", Ahead: 1,
				}},
				State:       types.StateRebaseInteractive,
				StatusFlags: types.StatusConflicted,
			},
			expected: "rebase-interactiveC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatter.FormatRepo(tt.state)
			if result != tt.expected {
				t.Errorf("FormatRepo() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPromptFormat_FormatRepo_Options(t *testing.T) {
	formatter := newFormat(t, "plain")
	formatter.ShowStash = false
	formatter.ShowRepoState = false

	state := types.RepoState{
		Head: types.Head{Kind: types.HeadBranch, Name: "dev", Tracking: &types.TrackingInfo{
			Remote: "origin", UpstreamName: "origin/main", UpstreamBranch: "main", Ahead: 1,
		}},
		State:    types.StateMerge,
		HasStash: true,
	}
	if result := formatter.FormatRepo(state); result != "dev:origin/mainA" {
		t.Errorf("FormatRepo() = %q, want %q", result, "dev:origin/mainA")
	}
}

func TestPromptFormat_FormatUserHost(t *testing.T) {
	formatter := newFormat(t, "bash")
	sh := ansi.Bash

	tests := []struct {
		name     string
		id       types.Identity
		expected string
	}{
		{"hidden", types.Identity{User: "alice"}, ""},
		{"user", types.Identity{User: "alice", Show: true}, sh.Seq(ansi.Italic) + "alice "},
		{"root", types.Identity{User: "root", Show: true, Root: true}, sh.Seq(ansi.Red) + "root "},
		{"ssh", types.Identity{User: "alice", Show: true, Host: "box"}, sh.Seq(ansi.Italic) + "alice@box "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := formatter.FormatUserHost(tt.id); result != tt.expected {
				t.Errorf("FormatUserHost() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPromptFormat_FormatPromptCharacter(t *testing.T) {
	formatter := newFormat(t, "nushell")
	sh := ansi.Nushell

	tests := []struct {
		name       string
		jobs       int
		lastStatus int
		role       ansi.Role
	}{
		{"idle", 0, 0, ansi.Normal},
		{"jobs", 2, 0, ansi.Blue},
		{"failed", 0, 1, ansi.Red},
		{"jobs and failed", 1, 127, ansi.Magenta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected := sh.Seq(tt.role) + "$"
			if result := formatter.FormatPromptCharacter(tt.jobs, tt.lastStatus); result != expected {
				t.Errorf("FormatPromptCharacter(%d, %d) = %q, want %q", tt.jobs, tt.lastStatus, result, expected)
			}
		})
	}
}

func TestPromptFormat_FormatVenv(t *testing.T) {
	formatter := newFormat(t, "plain")
	if result := formatter.FormatVenv(""); result != "" {
		t.Errorf("FormatVenv(\"\") = %q, want empty", result)
	}
	if result := formatter.FormatVenv("venv"); result != "(venv)" {
		t.Errorf("FormatVenv() = %q, want (venv)", result)
	}
}

func TestPromptFormat_FormatSection(t *testing.T) {
	formatter := newFormat(t, "plain")
	snap := types.Snapshot{
		Identity: types.Identity{User: "alice", Show: true},
		Dir:      "proj/src",
		Repo:     &types.RepoState{Head: types.Head{Kind: types.HeadUnborn, Name: "main"}},
		Venv:     "env",
	}

	tests := []struct {
		section  types.Section
		expected string
	}{
		{types.SectionPreCmd, "\nalice proj/src main(env)"},
		{types.SectionLastLine, "$ "},
		{types.SectionAll, "\nalice proj/src main(env)\n$ "},
	}

	for _, tt := range tests {
		t.Run(tt.section.String(), func(t *testing.T) {
			if result := formatter.FormatSection(tt.section, snap, 0, 0); result != tt.expected {
				t.Errorf("FormatSection(%v) = %q, want %q", tt.section, result, tt.expected)
			}
		})
	}
}

func TestPromptFormat_EscapesLiteralText(t *testing.T) {
	snap := types.Snapshot{
		Identity: types.Identity{User: "al$ice", Show: true, Host: "box`id`"},
		Dir:      "50%off/$(touch x)",
		Repo:     &types.RepoState{Head: types.Head{Kind: types.HeadBranch, Name: "$(touch${IFS}pwned)"}},
		Venv:     `back\slash`,
	}

	tests := []struct {
		shell    string
		expected string
	}{
		{"plain", "\nal$ice@box`id` 50%off/$(touch x) $(touch${IFS}pwned)(back\\slash)"},
		{"nushell", "$(touch${IFS}pwned)"},
		{"zsh", "50%%off/"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			formatter := newFormat(t, tt.shell)
			formatter.ShowRepoState = false
			result := formatter.FormatSection(types.SectionPreCmd, snap, 0, 0)
			if !strings.Contains(result, tt.expected) {
				t.Errorf("FormatSection() = %q, want it to contain %q", result, tt.expected)
			}
		})
	}

	bash := newFormat(t, "bash").FormatSection(types.SectionPreCmd, snap, 0, 0)
	for _, want := range []string{`al\\$ice`, "box\\\\`id\\\\`", `\\$(touch\\${IFS}pwned)`, `back\\\\slash`} {
		if !strings.Contains(bash, want) {
			t.Errorf("bash prompt %q does not contain %q", bash, want)
		}
	}
	if strings.Contains(strings.ReplaceAll(bash, `\\$`, ""), "$") {
		t.Errorf("bash prompt %q has an unescaped $", bash)
	}

	zsh := newFormat(t, "zsh").FormatSection(types.SectionPreCmd, snap, 0, 0)
	stripped := strings.NewReplacer("%%", "", "%{", "", "%}", "").Replace(zsh)
	if strings.Contains(stripped, "%") {
		t.Errorf("zsh prompt %q has an unescaped %%", zsh)
	}
}

func TestNewPromptFormat_Invalid(t *testing.T) {
	cfg := config.Defaults()
	cfg.Shell = "fish"
	if _, err := NewPromptFormat(cfg); err == nil {
		t.Error("NewPromptFormat() should reject unknown shell")
	}

	cfg = config.Defaults()
	cfg.Colors.Head = "sparkly"
	if _, err := NewPromptFormat(cfg); err == nil {
		t.Error("NewPromptFormat() should reject unknown role")
	}
}
