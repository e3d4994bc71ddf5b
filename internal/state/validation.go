package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/types"
)

// maxExitStatus is the largest exit status a POSIX shell reports
const maxExitStatus = 255

// ParseRequest reads the key=value tokens the shell integration passes on
// every prompt. Tokens without "=" and unknown keys are ignored; a later
// token overrides an earlier one.
func ParseRequest(args []string) (types.Request, error) {
	var req types.Request
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}

		var err error
		switch key {
		case "print":
			req.Section, err = types.ParseSection(value)
		case "jobs":
			req.Jobs, err = validateJobCount(value)
		case "laststatus":
			req.LastStatus, err = validateLastStatus(value)
		case "shell":
			if _, err = ansi.ParseShell(value); err == nil {
				req.Shell = value
			}
		case "prompt_character":
			req.PromptCharacter = value
		}
		if err != nil {
			return types.Request{}, fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return req, nil
}

// validateJobCount parses the number of background jobs
func validateJobCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("job count %q is not a number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("job count cannot be negative, got %d", n)
	}
	return n, nil
}

// validateLastStatus parses the exit status of the previous command
func validateLastStatus(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("exit status %q is not a number", s)
	}
	if n < 0 || n > maxExitStatus {
		return 0, fmt.Errorf("exit status must be between 0 and %d, got %d", maxExitStatus, n)
	}
	return n, nil
}
