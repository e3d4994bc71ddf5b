package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/clients/git"
	"github.com/jlaneve/prompt/internal/clients/system"
	"github.com/jlaneve/prompt/internal/state"
	"github.com/jlaneve/prompt/internal/types"
)

// testApp returns an app whose manager sees a repository at /src/proj on
// branch main, with an untracked file
func testApp(t *testing.T) (*app, *git.MockBackend) {
	t.Helper()

	sys := system.NewMockChecker()
	sys.Dir = "/src/proj"
	sys.SetEnv("HOME", "/home/alice")

	backend := git.NewMockBackend()
	backend.WorkdirPath = "/src/proj"
	backend.GitDirPath = "/src/proj/.git"
	backend.SetBranchHead("main", "0123456789abcdef0123456789abcdef01234567")
	backend.Entries = []git.StatusEntry{{Path: "new.txt", Status: types.StatusWtNew}}

	a := newApp()
	a.newManager = func(logger *zap.Logger) *state.Manager {
		return state.NewManager(state.Config{
			System: sys,
			Open:   func(string) (git.Backend, error) { return backend, nil },
			Logger: logger,
		})
	}
	a.lookupEnv = func(string) (string, bool) { return "", false }
	return a, backend
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	// Keep the developer's own config file out of the tests
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	for _, expected := range []string{
		"Render a fast, colorized shell prompt",
		"Available Commands:",
		"init",
		"explain",
		"watch",
		"config",
		"Examples:",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestRootCmd_Version(t *testing.T) {
	cmd := NewRootCmd()
	assert.Nil(t, cmd.Flag("version"), "Version flag should not exist (not implemented)")
}

func TestRootCmd_RendersPrompt(t *testing.T) {
	a, _ := testApp(t)

	out, err := execute(t, a, "shell=plain")
	require.NoError(t, err)
	assert.Equal(t, "\nproj mainn\n$ ", out)

	out, err = execute(t, a, "print=precmd", "shell=plain")
	require.NoError(t, err)
	assert.Equal(t, "\nproj mainn", out)

	out, err = execute(t, a, "--shell", "plain", "print=lastline", "jobs=1", "prompt_character=%")
	require.NoError(t, err)
	assert.Equal(t, "% ", out)
}

func TestRootCmd_LastLineSkipsRepository(t *testing.T) {
	a, backend := testApp(t)

	out, err := execute(t, a, "print=lastline", "shell=bash", "laststatus=1")
	require.NoError(t, err)
	assert.Equal(t, ansi.Bash.Seq(ansi.Red)+`\\$`+ansi.Bash.Seq(ansi.Normal)+" ", out)
	assert.Empty(t, backend.Calls, "lastline must not touch the repository")
}

func TestRootCmd_ShellFlavors(t *testing.T) {
	a, _ := testApp(t)

	out, err := execute(t, a, "print=precmd", "shell=zsh")
	require.NoError(t, err)
	assert.Contains(t, out, "%{")

	out, err = execute(t, a, "print=precmd", "shell=bash")
	require.NoError(t, err)
	assert.Contains(t, out, `\[`)
}

func TestRootCmd_EscapesRepositoryText(t *testing.T) {
	a, backend := testApp(t)
	backend.SetBranchHead("$(touch${IFS}pwned)", "0123456789abcdef0123456789abcdef01234567")

	out, err := execute(t, a, "print=precmd", "shell=bash")
	require.NoError(t, err)
	assert.Contains(t, out, `\\$(touch\\${IFS}pwned)`)
	assert.NotContains(t, strings.ReplaceAll(out, `\\$`, ""), "$")

	backend.SetBranchHead("50%off", "0123456789abcdef0123456789abcdef01234567")
	out, err = execute(t, a, "print=precmd", "shell=zsh")
	require.NoError(t, err)
	assert.Contains(t, out, "50%%off")
}

func TestRootCmd_NoColor(t *testing.T) {
	a, _ := testApp(t)
	a.lookupEnv = func(key string) (string, bool) {
		if key == NoColorEnv {
			return "1", true
		}
		return "", false
	}

	out, err := execute(t, a, "print=precmd", "shell=zsh")
	require.NoError(t, err)
	assert.Equal(t, "\nproj mainn", out)
}

func TestRootCmd_FailureLeavesStdoutEmpty(t *testing.T) {
	a, backend := testApp(t)
	backend.StatusErr = errors.New("index corrupt")

	out, err := execute(t, a, "shell=plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index corrupt")
	assert.Empty(t, out)
}

func TestRootCmd_InvalidRequest(t *testing.T) {
	a, _ := testApp(t)

	for _, arg := range []string{"jobs=-1", "laststatus=999", "print=sideways", "shell=fish"} {
		t.Run(arg, func(t *testing.T) {
			out, err := execute(t, a, arg)
			assert.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestRootCmd_ConfigFile(t *testing.T) {
	a, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shell: plain\nprompt_character: \">\"\n"), 0o600))

	cmd := newRootCmd(a)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", path, "print=lastline"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "> ", buf.String())
}

func TestInitCmd(t *testing.T) {
	a, _ := testApp(t)

	tests := []struct {
		shell    string
		expected []string
	}{
		{"bash", []string{"PROMPT_COMMAND=", "shell=bash", "jobs -p", "laststatus=$last_status"}},
		{"zsh", []string{"add-zsh-hook precmd", "shell=zsh", "${#jobstates}", "setopt prompt_subst", "PROMPT='${__prompt_line}'", "__prompt_line='%# '"}},
		{"nushell", []string{"$env.PROMPT_COMMAND", "shell=nushell", "complete", "LAST_EXIT_CODE"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := execute(t, a, "init", tt.shell)
			require.NoError(t, err)
			for _, s := range tt.expected {
				assert.Contains(t, out, s)
			}
			assert.NotContains(t, out, "%!", "format verbs must all be consumed")
		})
	}

	_, err := execute(t, a, "init", "fish")
	assert.Error(t, err)
	_, err = execute(t, a, "init", "plain")
	assert.Error(t, err)
}

func TestWriteInitScript_QuotesBinary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInitScript(&buf, ansi.Bash, "/opt/my tools/prompt"))
	assert.Contains(t, buf.String(), `PS1="$('/opt/my tools/prompt' print=all`)

	buf.Reset()
	require.NoError(t, writeInitScript(&buf, ansi.Nushell, "/opt/my tools/prompt"))
	assert.Contains(t, buf.String(), `^"/opt/my tools/prompt"`)
}

func TestExplainCmd(t *testing.T) {
	a, _ := testApp(t)

	out, err := execute(t, a, "explain")
	require.NoError(t, err)
	for _, s := range []string{"Prompt", "proj mainn", "branch", "main", "untracked", "/src/proj/.git"} {
		assert.Contains(t, out, s)
	}

	out, err = execute(t, a, "explain", "--json")
	require.NoError(t, err)
	var snap types.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.NotNil(t, snap.Repo)
	assert.Equal(t, "main", snap.Repo.Head.Name)
	assert.Equal(t, "proj", snap.Dir)
}

func TestConfigCmds(t *testing.T) {
	a, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	run := func(args ...string) (string, error) {
		cmd := newRootCmd(a)
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetArgs(append([]string{"--config", path}, args...))
		err := cmd.Execute()
		return buf.String(), err
	}

	out, err := run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, err = run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run("config", "init")
	assert.Error(t, err, "an existing config must not be overwritten")

	out, err = run("config", "show")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "max_components: 3"), "config show output:\n%s", out)
	assert.Contains(t, out, "dir_ancestors: dim")
}
