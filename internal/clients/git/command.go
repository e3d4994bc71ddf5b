package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// gitBinary is the executable used for every repository read
var gitBinary = "git"

// runner executes read-only git commands in a fixed directory
type runner struct {
	dir    string
	logger *zap.Logger
}

// run executes git with args and returns stdout. --no-optional-locks keeps
// status from refreshing the index, so the repository is never written.
func (r runner) run(args ...string) ([]byte, error) {
	return r.runInput(nil, args...)
}

// runInput is run with stdin connected to input
func (r runner) runInput(input []byte, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("git: no command specified")
	}

	start := time.Now()
	fullArgs := append([]string{"--no-optional-locks"}, args...)
	cmd := exec.Command(gitBinary, fullArgs...)
	cmd.Dir = r.dir
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	r.logger.Debug("git command completed",
		zap.String("dir", r.dir),
		zap.Strings("args", args),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return nil, fmt.Errorf("failed to run git %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

// runTrimmed executes git and returns stdout without surrounding whitespace
func (r runner) runTrimmed(args ...string) (string, error) {
	out, err := r.run(args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// verify resolves rev to an object id. A revision that does not resolve
// yields ErrNotFound.
func (r runner) verify(rev string) (string, error) {
	out, err := r.runTrimmed("rev-parse", "-q", "--verify", rev)
	if err != nil {
		if exitCode(err) == 1 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rev)
		}
		return "", err
	}
	return out, nil
}
