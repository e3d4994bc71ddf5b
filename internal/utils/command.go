package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// BinaryName is the name the prompt binary is installed under
const BinaryName = "prompt"

// GetPromptCommand returns the path the shell integration should invoke.
// A binary built by 'go run' lives in a temporary directory that is gone on
// the next prompt, so PATH is preferred in that case.
func GetPromptCommand() string {
	executable, err := os.Executable()
	if err == nil && !isTemporaryBuild(executable) {
		if resolved, err := filepath.EvalSymlinks(executable); err == nil {
			return resolved
		}
		return executable
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}

	// Final fallback: rely on PATH lookup when the prompt is drawn
	return BinaryName
}

func isTemporaryBuild(executable string) bool {
	return strings.Contains(executable, "go-build")
}

// ShellQuote quotes s for POSIX shells. Strings made only of safe
// characters are returned unchanged.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafeShellRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("/._-+:@%=,", r):
		return true
	}
	return false
}
