package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// listenForEvents creates a command that blocks until the bus delivers an
// event. It must be reissued after every busEventMsg.
func (m Model) listenForEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return busClosedMsg{}
		}
		return busEventMsg{event: event}
	}
}

// refreshSnapshot re-derives the snapshot from scratch, exactly as a prompt
// invocation would
func (m Model) refreshSnapshot() tea.Cmd {
	manager := m.stateManager
	logger := m.logger
	return func() tea.Msg {
		started := time.Now()
		snap, err := manager.DeriveSnapshot()
		if err != nil {
			logger.Debug("snapshot refresh failed", zap.Error(err))
			return errorMsg{err: fmt.Errorf("failed to refresh prompt: %w", err)}
		}
		logger.Debug("snapshot refreshed", zap.Duration("duration", time.Since(started)))
		return refreshCompleteMsg{snapshot: snap, at: time.Now()}
	}
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}
