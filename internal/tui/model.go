package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/state"
	"github.com/jlaneve/prompt/internal/types"
)

// errorDisplayTime is how long an error stays in the status area
const errorDisplayTime = 3 * time.Second

// Model represents the live preview state
type Model struct {
	stateManager *state.Manager
	format       *operations.PromptFormat
	events       <-chan types.Event
	logger       *zap.Logger

	snapshot   types.Snapshot
	jobs       int
	lastStatus int
	showHelp   bool
	lastError  string
	lastEvent  string
	updatedAt  time.Time
	refreshes  int
	ready      bool

	// Terminal dimensions
	width  int
	height int
}

// Event messages for BubbleTea
type (
	// A file event reached the bus
	busEventMsg struct{ event types.Event }
	// The bus was closed
	busClosedMsg struct{}

	refreshCompleteMsg struct {
		snapshot types.Snapshot
		at       time.Time
	}
	errorMsg      struct{ err error }
	clearErrorMsg struct{}
)

// NewModel creates a preview model. events may be nil when no watcher is
// running; the preview then only refreshes on demand.
func NewModel(stateManager *state.Manager, format *operations.PromptFormat, events <-chan types.Event, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		stateManager: stateManager,
		format:       format,
		events:       events,
		logger:       logger,
	}
}

// Init loads the first snapshot and starts listening for file events
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshSnapshot(),
		m.listenForEvents(),
	)
}

// Update handles all TUI events and state changes
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case refreshCompleteMsg:
		m.snapshot = msg.snapshot
		m.updatedAt = msg.at
		m.refreshes++
		m.ready = true
		return m, nil

	case busEventMsg:
		m.lastEvent = describeEvent(msg.event)
		if failed, ok := msg.event.(types.WatchFailed); ok {
			m.lastError = "watch: " + failed.Error
			return m, tea.Batch(
				clearErrorAfter(errorDisplayTime),
				m.listenForEvents(),
			)
		}
		return m, tea.Batch(
			m.refreshSnapshot(),
			m.listenForEvents(), // Restart listener
		)

	case busClosedMsg:
		m.events = nil
		return m, nil

	case errorMsg:
		m.lastError = msg.err.Error()
		m.ready = true
		return m, clearErrorAfter(errorDisplayTime)

	case clearErrorMsg:
		m.lastError = ""
		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		m.lastEvent = "manual refresh"
		return m, m.refreshSnapshot()
	case "j":
		// Cycle background jobs so every prompt character color can be seen
		m.jobs = (m.jobs + 1) % 3
	case "s":
		if m.lastStatus == 0 {
			m.lastStatus = 1
		} else {
			m.lastStatus = 0
		}
	case "?":
		m.showHelp = true
	}
	return m, nil
}

// Snapshot returns the most recently derived snapshot
func (m Model) Snapshot() types.Snapshot {
	return m.snapshot
}

func describeEvent(event types.Event) string {
	switch e := event.(type) {
	case types.RepoChanged:
		return "repository: " + e.Path
	case types.DirectoryChanged:
		return "directory: " + e.Path
	case types.WatchFailed:
		return "watcher error"
	default:
		return event.EventType()
	}
}
