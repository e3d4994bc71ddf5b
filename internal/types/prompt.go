package types

import "fmt"

// Section selects which part of the prompt is printed
type Section int

const (
	// SectionAll prints the pre-command lines followed by the last line
	SectionAll Section = iota
	// SectionPreCmd prints the information line shown above the input line
	SectionPreCmd
	// SectionLastLine prints only the prompt character line
	SectionLastLine
)

// ParseSection accepts the values of the print= argument
func ParseSection(s string) (Section, error) {
	switch s {
	case "all":
		return SectionAll, nil
	case "precmd":
		return SectionPreCmd, nil
	case "lastline":
		return SectionLastLine, nil
	default:
		return SectionAll, fmt.Errorf("unsupported print value %q (want precmd, lastline or all)", s)
	}
}

func (s Section) String() string {
	switch s {
	case SectionPreCmd:
		return "precmd"
	case SectionLastLine:
		return "lastline"
	default:
		return "all"
	}
}

// NeedsSnapshot reports whether the section shows directory, identity or
// repository information.
func (s Section) NeedsSnapshot() bool {
	return s != SectionLastLine
}

// Request holds the per-invocation arguments passed by the shell
type Request struct {
	Section         Section
	Shell           string // empty keeps the configured shell
	Jobs            int
	LastStatus      int
	PromptCharacter string // empty keeps the configured character
}

// Identity describes the user@host segment
type Identity struct {
	User string `json:"user"`
	// Show is set for root, su'd and SSH sessions
	Show bool `json:"show"`
	Root bool `json:"root"`
	// Host is only set for SSH sessions
	Host string `json:"host,omitempty"`
}

// Snapshot is everything the pre-command line renders, read fresh on
// every invocation.
type Snapshot struct {
	Identity Identity `json:"identity"`
	// WorkingDir is the absolute logical working directory
	WorkingDir string `json:"working_dir"`
	// Dir is WorkingDir relativized for display: relative to the parent of
	// the repository root, "~"-prefixed under $HOME, or absolute.
	Dir string `json:"dir"`
	// Repo is nil outside a repository
	Repo   *RepoState `json:"repo,omitempty"`
	GitDir string     `json:"git_dir,omitempty"`
	Venv   string     `json:"venv,omitempty"`
}
