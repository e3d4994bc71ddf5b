package events

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/types"
)

// DefaultDebounce coalesces the bursts of writes git makes while updating
// refs and the index
const DefaultDebounce = 100 * time.Millisecond

// Watcher publishes RepoChanged and DirectoryChanged events to a Bus when
// files in a watched git directory or working directory change.
type Watcher struct {
	fs       *fsnotify.Watcher
	bus      *Bus
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	gitDirs []string
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a Watcher publishing to bus
func NewWatcher(bus *Bus, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		bus:      bus,
		logger:   logger,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before events are published. It
// must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// WatchRepo watches the files of gitDir that affect the prompt: HEAD,
// index and state markers in gitDir itself, every directory under refs/,
// and the reflog directory holding the stash.
func (w *Watcher) WatchRepo(gitDir string) error {
	if err := w.fs.Add(gitDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", gitDir, err)
	}
	w.mu.Lock()
	w.gitDirs = append(w.gitDirs, gitDir)
	w.mu.Unlock()

	for _, sub := range []string{"refs", filepath.Join("logs", "refs")} {
		w.addTree(filepath.Join(gitDir, sub))
	}
	return nil
}

// WatchDir watches a single working directory, not its subdirectories
func (w *Watcher) WatchDir(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

// addTree watches root and its subdirectories. Missing trees are skipped,
// since refs/remotes or logs/refs may not exist yet.
func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Debug("failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

// Start begins delivering events in a goroutine until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.run(ctx)
}

// Stop ends event delivery and releases the underlying watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.fs.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]types.Event)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			ev := w.classify(event)
			if ev == nil {
				continue
			}
			w.logger.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pending[ev.EventType()] = ev
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
			w.bus.Publish(types.WatchFailed{Error: err.Error()})

		case <-timer.C:
			for key, ev := range pending {
				w.bus.Publish(ev)
				delete(pending, key)
			}
		}
	}
}

// classify maps a filesystem event to a bus event, or nil when it does
// not affect the prompt
func (w *Watcher) classify(event fsnotify.Event) types.Event {
	if event.Op == fsnotify.Chmod || strings.HasSuffix(event.Name, ".lock") {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, gitDir := range w.gitDirs {
		if event.Name != gitDir && !strings.HasPrefix(event.Name, gitDir+string(filepath.Separator)) {
			continue
		}
		// New ref namespaces, e.g. refs/heads/feature/ or a new remote
		if event.Op.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.fs.Add(event.Name); err != nil {
					w.logger.Debug("failed to watch directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
		}
		return types.RepoChanged{Path: event.Name, Op: event.Op.String()}
	}
	return types.DirectoryChanged{Path: event.Name}
}
