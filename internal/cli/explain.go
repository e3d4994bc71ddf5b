package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/types"
)

var (
	explainTitleStyle = lipgloss.NewStyle().Bold(true)
	explainLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	explainBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				Padding(0, 1)
)

func newExplainCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain what the prompt shows for the current directory",
		Long: `Print a human-readable breakdown of everything the prompt is built from:
the working directory as displayed, HEAD, the upstream and its divergence,
every status flag spelled out, the stash, and any operation in progress.

Examples:
  prompt explain          # Styled breakdown
  prompt explain --json   # Machine-readable snapshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.newManager(a.logger).DeriveSnapshot()
			if err != nil {
				return err
			}
			if asJSON {
				return writeSnapshotJSON(cmd.OutOrStdout(), snap)
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg.Shell = "plain"
			format, err := operations.NewPromptFormat(cfg)
			if err != nil {
				return err
			}
			return writeExplanation(cmd.OutOrStdout(), format, snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func writeSnapshotJSON(w io.Writer, snap types.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// writeExplanation renders the uncolored prompt in a box followed by the
// labelled breakdown
func writeExplanation(w io.Writer, format *operations.PromptFormat, snap types.Snapshot) error {
	preview := strings.TrimPrefix(format.FormatSection(types.SectionPreCmd, snap, 0, 0), "\n")

	details := operations.Explain(snap)
	labelWidth := 0
	for _, d := range details {
		labelWidth = max(labelWidth, runewidth.StringWidth(d.Label))
	}

	var b strings.Builder
	b.WriteString(explainTitleStyle.Render("Prompt"))
	b.WriteString("\n")
	b.WriteString(explainBoxStyle.Render(preview))
	b.WriteString("\n\n")
	for _, d := range details {
		b.WriteString(explainLabelStyle.Render(runewidth.FillRight(d.Label, labelWidth)))
		b.WriteString("  ")
		b.WriteString(d.Value)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
