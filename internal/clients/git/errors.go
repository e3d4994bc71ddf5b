package git

import (
	"errors"
	"fmt"
	"strings"
)

// Absence conditions. Callers treat these as "nothing to render", never as
// failures.
var (
	// ErrNotRepository indicates no repository contains the directory.
	ErrNotRepository = errors.New("not a git repository")

	// ErrUnbornBranch indicates HEAD names a branch that has no commits yet.
	ErrUnbornBranch = errors.New("unborn branch")

	// ErrNotFound indicates a reference, branch, upstream or reflog is absent.
	ErrNotFound = errors.New("not found")

	// ErrBareRepo indicates the operation needs a working tree.
	ErrBareRepo = errors.New("bare repository has no working tree")
)

// CommandError describes a git process that exited unsuccessfully
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), msg)
}

// exitCode returns the exit code of a CommandError, or -1 for any other error
func exitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}
