// Package system reads the process environment the prompt depends on:
// environment variables, identity, hostname and the working directory.
package system

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Checker defines the interface for environment lookups
type Checker interface {
	// LookupEnv reports the value of key and whether it is set
	LookupEnv(key string) (string, bool)
	Hostname() (string, error)
	// IsRoot reports whether the effective user id is 0
	IsRoot() bool
	// WorkingDir returns the logical working directory
	WorkingDir() (string, error)
}

// RealChecker implements Checker against the running process
type RealChecker struct{}

// NewRealChecker creates a new RealChecker
func NewRealChecker() *RealChecker {
	return &RealChecker{}
}

// LookupEnv reads an environment variable
func (r *RealChecker) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Hostname returns the kernel's host name
func (r *RealChecker) Hostname() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	return unix.ByteSliceToString(uts.Nodename[:]), nil
}

// IsRoot checks the effective user id
func (r *RealChecker) IsRoot() bool {
	return unix.Geteuid() == 0
}

// WorkingDir returns $PWD when it is a valid logical path for the current
// directory, falling back to the physical path otherwise.
func (r *RealChecker) WorkingDir() (string, error) {
	if pwd, ok := os.LookupEnv("PWD"); ok && ValidLogicalPath(pwd, ".") {
		return pwd, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// ValidLogicalPath reports whether pwd is absolute, free of "." and ".."
// components, and names the same file as dot. This mirrors the checks GNU
// pwd -L applies before trusting $PWD.
func ValidLogicalPath(pwd, dot string) bool {
	if !strings.HasPrefix(pwd, "/") {
		return false
	}
	for _, component := range strings.Split(pwd, "/") {
		if component == "." || component == ".." {
			return false
		}
	}

	var pwdStat, dotStat unix.Stat_t
	if err := unix.Stat(pwd, &pwdStat); err != nil {
		return false
	}
	if err := unix.Stat(dot, &dotStat); err != nil {
		return false
	}
	return pwdStat.Dev == dotStat.Dev && pwdStat.Ino == dotStat.Ino
}

// MockChecker implements Checker for testing
type MockChecker struct {
	Env     map[string]string
	Host    string
	HostErr error
	Root    bool
	Dir     string
	DirErr  error
}

// NewMockChecker creates a new MockChecker with an empty environment
func NewMockChecker() *MockChecker {
	return &MockChecker{
		Env:  make(map[string]string),
		Host: "localhost",
		Dir:  "/",
	}
}

// LookupEnv reads the mocked environment
func (m *MockChecker) LookupEnv(key string) (string, bool) {
	v, ok := m.Env[key]
	return v, ok
}

// Hostname returns the mocked host name
func (m *MockChecker) Hostname() (string, error) {
	return m.Host, m.HostErr
}

// IsRoot returns the mocked identity
func (m *MockChecker) IsRoot() bool {
	return m.Root
}

// WorkingDir returns the mocked working directory
func (m *MockChecker) WorkingDir() (string, error) {
	return m.Dir, m.DirErr
}

// SetEnv sets a mocked environment variable
func (m *MockChecker) SetEnv(key, value string) {
	m.Env[key] = value
}
