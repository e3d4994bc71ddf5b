package operations

import (
	"strings"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/config"
	"github.com/jlaneve/prompt/internal/pathfmt"
	"github.com/jlaneve/prompt/internal/types"
)

// PromptFormat renders prompt segments for one shell flavor
type PromptFormat struct {
	Shell           ansi.Shell
	Palette         config.Palette
	MaxComponents   int
	PromptCharacter string
	ShowStash       bool
	ShowRepoState   bool
}

// NewPromptFormat resolves cfg into a PromptFormat
func NewPromptFormat(cfg config.Config) (*PromptFormat, error) {
	shell, err := ansi.ParseShell(cfg.Shell)
	if err != nil {
		return nil, err
	}
	palette, err := cfg.Colors.Palette()
	if err != nil {
		return nil, err
	}
	return &PromptFormat{
		Shell:           shell,
		Palette:         palette,
		MaxComponents:   cfg.MaxComponents,
		PromptCharacter: cfg.PromptCharacter,
		ShowStash:       cfg.ShowStash,
		ShowRepoState:   cfg.ShowRepoState,
	}, nil
}

// FormatSection renders the requested section. snap is only read by
// sections that need it.
func (f *PromptFormat) FormatSection(section types.Section, snap types.Snapshot, jobs, lastStatus int) string {
	var b strings.Builder
	switch section {
	case types.SectionPreCmd:
		f.writePreCmd(&b, snap)
	case types.SectionLastLine:
		f.writeLastLine(&b, jobs, lastStatus)
	default:
		f.writePreCmd(&b, snap)
		b.WriteString("\n")
		f.writeLastLine(&b, jobs, lastStatus)
	}
	return b.String()
}

func (f *PromptFormat) writePreCmd(b *strings.Builder, snap types.Snapshot) {
	b.WriteString("\n")
	b.WriteString(f.Shell.Seq(ansi.Normal))
	b.WriteString(f.FormatUserHost(snap.Identity))
	b.WriteString(f.FormatDirectory(snap.Dir))
	if snap.Repo != nil {
		b.WriteString(f.FormatRepo(*snap.Repo))
	}
	b.WriteString(f.FormatVenv(snap.Venv))
}

func (f *PromptFormat) writeLastLine(b *strings.Builder, jobs, lastStatus int) {
	b.WriteString(f.FormatPromptCharacter(jobs, lastStatus))
	b.WriteString(f.Shell.Seq(ansi.Normal))
	b.WriteString(" ")
}

// FormatUserHost renders "user@host " for root, su and SSH sessions
func (f *PromptFormat) FormatUserHost(id types.Identity) string {
	if !id.Show {
		return ""
	}
	role := f.Palette.User
	if id.Root {
		role = f.Palette.RootUser
	}
	out := f.Shell.Seq(role) + f.Shell.Escape(id.User)
	if id.Host != "" {
		out += "@" + f.Shell.Escape(id.Host)
	}
	return out + " "
}

// FormatDirectory renders the truncated directory, ancestors and final
// component in their own roles, followed by a reset and a space.
func (f *PromptFormat) FormatDirectory(dir string) string {
	tp := pathfmt.Truncate([]byte(dir), f.MaxComponents)
	return f.Shell.Seq(f.Palette.DirAncestors) + f.Shell.Escape(string(tp.Ancestors)) +
		f.Shell.Seq(f.Palette.DirFinal) + f.Shell.Escape(string(tp.Final)) +
		f.Shell.Seq(ansi.Reset) + " "
}

// FormatRepo renders head label, status flags, ahead/behind marker and
// stash indicator.
func (f *PromptFormat) FormatRepo(rs types.RepoState) string {
	label, marker := rs.Head.Label(), rs.Head.Marker()
	if f.ShowRepoState {
		label, marker = rs.HeadLabel(), rs.AheadBehind()
	}

	var b strings.Builder
	b.WriteString(f.Shell.Seq(f.Palette.Head))
	b.WriteString(f.Shell.Escape(strings.ToValidUTF8(label, "\uFFFD")))
	b.WriteString(f.Shell.Seq(f.Palette.Status))
	b.WriteString(rs.StatusFlags.String())
	b.WriteString(f.Shell.Seq(f.Palette.Markers))
	b.WriteString(marker)
	if f.ShowStash && rs.HasStash {
		b.WriteString("S")
	}
	return b.String()
}

// FormatVenv renders "(name)" for an active virtual environment
func (f *PromptFormat) FormatVenv(venv string) string {
	if venv == "" {
		return ""
	}
	return f.Shell.Seq(f.Palette.Venv) + "(" + f.Shell.Escape(venv) + ")"
}

// FormatPromptCharacter colors the prompt character by background jobs
// and the previous exit status.
func (f *PromptFormat) FormatPromptCharacter(jobs, lastStatus int) string {
	role := ansi.Normal
	switch {
	case jobs > 0 && lastStatus > 0:
		role = ansi.Magenta
	case jobs > 0:
		role = ansi.Blue
	case lastStatus > 0:
		role = ansi.Red
	}
	return f.Shell.Seq(role) + f.Shell.Escape(f.PromptCharacter)
}
