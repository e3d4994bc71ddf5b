package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/utils"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init bash|zsh|nushell",
		Short: "Print the shell integration snippet",
		Long: `Print a snippet that renders the prompt before every command.

Add one of these to your shell startup file:

  bash:    eval "$(prompt init bash)"          # ~/.bashrc
  zsh:     eval "$(prompt init zsh)"           # ~/.zshrc
  nushell: prompt init nushell | save -f ~/.cache/prompt.nu
           source ~/.cache/prompt.nu           # config.nu

When the prompt binary fails or prints nothing, the shell falls back to a
minimal prompt instead of blocking.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "nushell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := ansi.ParseShell(args[0])
			if err != nil {
				return err
			}
			return writeInitScript(cmd.OutOrStdout(), shell, utils.GetPromptCommand())
		},
	}
	return cmd
}

// writeInitScript writes the integration for shell invoking binary
func writeInitScript(w io.Writer, shell ansi.Shell, binary string) error {
	var script string
	switch shell {
	case ansi.Bash:
		script = fmt.Sprintf(bashInit, utils.ShellQuote(binary))
	case ansi.Zsh:
		script = fmt.Sprintf(zshInit, utils.ShellQuote(binary))
	case ansi.Nushell:
		script = fmt.Sprintf(nushellInit, strconv.Quote(binary))
	default:
		return fmt.Errorf("no shell integration for %s", shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

const bashInit = `__prompt_render() {
    local last_status=$?
    local job_count
    job_count=$(jobs -p | wc -l)
    PS1="$(%[1]s print=all shell=bash jobs=${job_count//[[:space:]]/} laststatus=$last_status 2>/dev/null)" || PS1=''
    [[ -n $PS1 ]] || PS1='\$ '
}
PROMPT_COMMAND="__prompt_render${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
`

// zsh substitutes ${__prompt_line} once, without rescanning its value, and
// then processes the %-escapes the binary emitted.
const zshInit = `__prompt_render() {
    local last_status=$?
    __prompt_line="$(%[1]s print=all shell=zsh jobs=${#jobstates} laststatus=$last_status 2>/dev/null)" || __prompt_line=''
    [[ -n $__prompt_line ]] || __prompt_line='%%# '
}
setopt prompt_subst
PROMPT='${__prompt_line}'
autoload -Uz add-zsh-hook
add-zsh-hook precmd __prompt_render
`

const nushellInit = `def __prompt_render [section: string] {
    let result = (^%[1]s $"print=($section)" shell=nushell $"laststatus=($env.LAST_EXIT_CODE)" | complete)
    if $result.exit_code == 0 { $result.stdout } else { "" }
}
$env.PROMPT_COMMAND = {|| __prompt_render precmd }
$env.PROMPT_COMMAND_RIGHT = {|| "" }
$env.PROMPT_INDICATOR = {|| __prompt_render lastline }
`
