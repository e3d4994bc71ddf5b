package types

// Event represents all possible events in the system
type Event interface {
	EventType() string
}

// RepoChanged is emitted when a watched file in the git directory changes
type RepoChanged struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

func (e RepoChanged) EventType() string { return "repo_changed" }

// DirectoryChanged is emitted when the watched working directory changes
type DirectoryChanged struct {
	Path string `json:"path"`
}

func (e DirectoryChanged) EventType() string { return "directory_changed" }

// WatchFailed is emitted when the file watcher reports an error
type WatchFailed struct {
	Error string `json:"error"`
}

func (e WatchFailed) EventType() string { return "watch_failed" }
