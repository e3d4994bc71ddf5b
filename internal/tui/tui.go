package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/events"
	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/state"
)

// Run starts the live preview. It watches the repository and working
// directory of the current snapshot until the user quits or ctx is done.
func Run(ctx context.Context, stateManager *state.Manager, format *operations.PromptFormat, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	snap, err := stateManager.DeriveSnapshot()
	if err != nil {
		return fmt.Errorf("failed to read initial prompt state: %w", err)
	}

	bus := events.NewBus()
	defer bus.Close()

	watcher, err := events.NewWatcher(bus, logger)
	if err != nil {
		return err
	}
	if snap.GitDir != "" {
		if err := watcher.WatchRepo(snap.GitDir); err != nil {
			logger.Warn("repository changes will not refresh the preview", zap.Error(err))
		}
	}
	if err := watcher.WatchDir(snap.WorkingDir); err != nil {
		logger.Warn("directory changes will not refresh the preview", zap.Error(err))
	}
	watcher.Start(ctx)
	defer func() {
		if err := watcher.Stop(); err != nil {
			logger.Debug("failed to stop watcher", zap.Error(err))
		}
	}()

	model := NewModel(stateManager, format, bus.Subscribe(), logger)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
