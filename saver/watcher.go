package saver

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventKind is the normalized filesystem event type.
type EventKind int

const (
	EventCreated EventKind = iota
	EventModified
	EventRenamed
	EventRemoved
)

// FileEvent is the single shape all filesystem notifications are translated
// into before the coordinator sees them. DestPath is only populated when the
// backend reports both ends of a move; fsnotify reports a move into a watched
// directory as a create of the destination name, so it is usually empty.
type FileEvent struct {
	Path     string
	DestPath string
	IsDir    bool
	Kind     EventKind
}

// dirWatcher watches a single directory, non-recursively, and translates raw
// fsnotify events into FileEvents. Closing the watcher closes the events
// channel, which is how pump goroutines learn to exit.
type dirWatcher struct {
	fs        *fsnotify.Watcher
	events    chan FileEvent
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newDirWatcher(dir string) (*dirWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &dirWatcher{
		fs:     fs,
		events: make(chan FileEvent, 16),
		errors: fs.Errors,
		done:   make(chan struct{}),
	}
	go w.translate()
	return w, nil
}

func (w *dirWatcher) translate() {
	defer close(w.events)
	for ev := range w.fs.Events {
		kind, ok := mapOp(ev.Op)
		if !ok {
			continue
		}
		info, err := os.Stat(ev.Name)
		isDir := err == nil && info.IsDir()
		// The send must not outlive the consumer: if the buffer is full when
		// the watcher closes, give up on the event instead of blocking forever.
		select {
		case w.events <- FileEvent{Path: ev.Name, IsDir: isDir, Kind: kind}:
		case <-w.done:
			return
		}
	}
}

func mapOp(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated, true
	case op.Has(fsnotify.Write):
		return EventModified, true
	case op.Has(fsnotify.Rename):
		return EventRenamed, true
	case op.Has(fsnotify.Remove):
		return EventRemoved, true
	default:
		return 0, false
	}
}

func (w *dirWatcher) close() {
	w.closeOnce.Do(func() {
		close(w.done)
		_ = w.fs.Close()
	})
}
