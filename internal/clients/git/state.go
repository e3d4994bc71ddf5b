package git

import (
	"os"
	"path/filepath"

	"github.com/jlaneve/prompt/internal/types"
)

// DetectState looks for the marker files git leaves in gitDir while an
// operation is in progress. Checks run in git's own precedence order.
func DetectState(gitDir string) types.RepositoryState {
	exists := func(parts ...string) bool {
		_, err := os.Stat(filepath.Join(append([]string{gitDir}, parts...)...))
		return err == nil
	}

	switch {
	case exists("rebase-merge", "interactive"):
		return types.StateRebaseInteractive
	case exists("rebase-merge"):
		return types.StateRebaseMerge
	case exists("rebase-apply", "rebasing"):
		return types.StateRebase
	case exists("rebase-apply", "applying"):
		return types.StateApplyMailbox
	case exists("rebase-apply"):
		return types.StateApplyMailboxOrRebase
	case exists("MERGE_HEAD"):
		return types.StateMerge
	case exists("REVERT_HEAD"):
		if exists("sequencer", "todo") {
			return types.StateRevertSequence
		}
		return types.StateRevert
	case exists("CHERRY_PICK_HEAD"):
		if exists("sequencer", "todo") {
			return types.StateCherryPickSequence
		}
		return types.StateCherryPick
	case exists("BISECT_LOG"):
		return types.StateBisect
	default:
		return types.StateClean
	}
}
