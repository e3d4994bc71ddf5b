package cli

import (
	"github.com/spf13/cobra"

	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/tui"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live preview of the prompt that refreshes on repository changes",
		Long: `Launch a terminal preview of the prompt for the current directory.

The preview re-renders whenever HEAD, the index, refs or the stash change,
and whenever files in the working directory change, so you can see exactly
what the prompt will show after a commit, checkout, fetch or stash.`,
		Aliases: []string{"preview"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			// The preview prints escapes directly, without shell wrapping
			cfg.Shell = "nushell"
			a.applyNoColor(&cfg)

			format, err := operations.NewPromptFormat(cfg)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a.newManager(a.logger), format, a.logger)
		},
	}
	return cmd
}
