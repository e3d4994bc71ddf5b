package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/config"
	"github.com/jlaneve/prompt/internal/logging"
	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/state"
	"github.com/jlaneve/prompt/internal/types"
)

// NoColorEnv forces the plain flavor when set to a non-empty value
const NoColorEnv = "NO_COLOR"

// app carries what every command shares. Commands read it after
// PersistentPreRunE has filled in the logger.
type app struct {
	configPath string
	verbose    bool
	shell      string

	logger *zap.Logger
	// newManager builds the state manager; tests replace it
	newManager func(logger *zap.Logger) *state.Manager
	lookupEnv  func(key string) (string, bool)
}

func newApp() *app {
	return &app{
		newManager: func(logger *zap.Logger) *state.Manager {
			return state.NewManager(state.Config{Logger: logger})
		},
		lookupEnv: os.LookupEnv,
	}
}

// NewRootCmd creates the root command for the prompt CLI
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prompt [print=all|precmd|lastline] [shell=NAME] [jobs=N] [laststatus=N] [prompt_character=C]",
		Short: "Render a fast, colorized shell prompt",
		Long: `Render a fast, colorized shell prompt.

The prompt shows the working directory and the state of the enclosing git
repository, plus the user and host for root and SSH sessions and the active
virtualenv.

Everything is read fresh on each invocation. Nothing is written to the
repository, not even the index.

Arguments are key=value tokens passed by the shell integration; see
'prompt init --help'.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// Sync on a terminal stderr reports EINVAL
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPrompt(cmd.OutOrStdout(), args)
		},
	}

	rootCmd.SetHelpTemplate(getCustomHelpTemplate())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/prompt/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&a.shell, "shell", "", "Escape flavor: bash, zsh, nushell or plain")

	rootCmd.AddCommand(
		newInitCmd(a),
		newExplainCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

// runPrompt renders one prompt section. The output is assembled in full
// before anything is written, so a failure leaves stdout empty.
func (a *app) runPrompt(out io.Writer, args []string) error {
	req, err := state.ParseRequest(args)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if req.Shell != "" {
		cfg.Shell = req.Shell
	}
	if req.PromptCharacter != "" {
		cfg.PromptCharacter = req.PromptCharacter
	}
	a.applyNoColor(&cfg)

	format, err := operations.NewPromptFormat(cfg)
	if err != nil {
		return err
	}

	var snap types.Snapshot
	if req.Section.NeedsSnapshot() {
		snap, err = a.newManager(a.logger).DeriveSnapshot()
		if err != nil {
			return err
		}
	}

	rendered := format.FormatSection(req.Section, snap, req.Jobs, req.LastStatus)
	if _, err := io.WriteString(out, rendered); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	return nil
}

// resolvedConfigPath returns --config or the default location
func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// loadConfig loads the config file and applies the --shell flag
func (a *app) loadConfig() (config.Config, error) {
	path, err := a.resolvedConfigPath()
	if err != nil {
		// No home directory: run on defaults and environment
		a.logger.Debug("no config path", zap.Error(err))
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if a.shell != "" {
		cfg.Shell = a.shell
	}
	a.logger.Debug("config loaded", zap.String("path", path), zap.String("shell", cfg.Shell))
	return cfg, nil
}

func (a *app) applyNoColor(cfg *config.Config) {
	if v, ok := a.lookupEnv(NoColorEnv); ok && v != "" {
		cfg.Shell = "plain"
	}
}

// getCustomHelpTemplate returns the default help with usage examples appended
func getCustomHelpTemplate() string {
	return `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}{{if not .HasParent}}
Examples:
  eval "$(prompt init bash)"                  # Install in ~/.bashrc
  prompt print=precmd shell=zsh               # Information line only
  prompt jobs=1 laststatus=1 shell=plain      # Preview the prompt character colors
  prompt explain                              # Break down the current state
  prompt watch                                # Live preview while you work
{{end}}`
}

// Execute runs the root command. On failure nothing has been written to
// stdout; the error goes to stderr and the exit status is 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	rootCmd := newRootCmd(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("prompt failed", zap.Error(err))
			_ = a.logger.Sync()
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
