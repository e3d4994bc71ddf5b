package operations

import (
	"fmt"
	"strings"

	"github.com/jlaneve/prompt/internal/types"
)

// Detail is one labelled line of a snapshot breakdown
type Detail struct {
	Label string
	Value string
}

// Explain spells out everything the pre-command line is built from
func Explain(snap types.Snapshot) []Detail {
	details := []Detail{
		{"working directory", snap.WorkingDir},
		{"displayed as", snap.Dir},
	}

	if snap.Identity.Show {
		who := snap.Identity.User
		if snap.Identity.Host != "" {
			who += "@" + snap.Identity.Host
		}
		if snap.Identity.Root {
			who += " (root)"
		}
		details = append(details, Detail{"user", who})
	}
	if snap.Venv != "" {
		details = append(details, Detail{"virtualenv", snap.Venv})
	}

	if snap.Repo == nil {
		return append(details, Detail{"repository", "none"})
	}
	rs := *snap.Repo

	details = append(details,
		Detail{"git dir", snap.GitDir},
		Detail{"head", rs.Head.Kind.String()},
	)
	switch rs.Head.Kind {
	case types.HeadDetached:
		details = append(details, Detail{"commit", rs.Head.ShortID})
	default:
		details = append(details, Detail{"branch", rs.Head.Name})
	}

	if t := rs.Head.Tracking; t != nil {
		upstream := t.UpstreamName
		if t.Remote == "" {
			upstream += " (local)"
		}
		details = append(details,
			Detail{"upstream", upstream},
			Detail{"ahead/behind", fmt.Sprintf("%d/%d", t.Ahead, t.Behind)},
		)
	} else if rs.Head.Kind == types.HeadBranch {
		details = append(details, Detail{"upstream", "none"})
	}

	if rs.State != types.StateClean {
		details = append(details, Detail{"in progress", string(rs.State)})
	}

	status := "clean"
	if names := rs.StatusFlags.Names(); len(names) > 0 {
		status = rs.StatusFlags.String() + " (" + strings.Join(names, ", ") + ")"
	}
	details = append(details, Detail{"status", status})

	stash := "no"
	if rs.HasStash {
		stash = "yes"
	}
	return append(details, Detail{"stash", stash})
}
