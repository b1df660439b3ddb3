package entities

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind tells what happened to a watched file.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
	ChangeRenamed  ChangeKind = "renamed"
)

// WatchEvent reports a change to a watched file.
type WatchEvent struct {
	Path string
	Kind ChangeKind
}

// Watcher delivers change notifications for a single file. Events is closed
// once the watcher is closed.
type Watcher interface {
	Events() <-chan WatchEvent
	Errors() <-chan error
	Close() error
}

// WatcherFactory creates a Watcher for path.
type WatcherFactory func(path string) (Watcher, error)

// FSWatcher watches a file with fsnotify. The parent directory is watched and
// events are filtered on the file name, so the watch survives the file being
// replaced by a rename.
type FSWatcher struct {
	watcher *fsnotify.Watcher
	target  string
	events  chan WatchEvent
	errors  chan error
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewFSWatcher starts watching path. The parent directory must exist.
func NewFSWatcher(path string) (Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	fw := &FSWatcher{
		watcher: w,
		target:  abs,
		events:  make(chan WatchEvent, 16),
		errors:  make(chan error, 4),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go fw.run()
	return fw, nil
}

// Events implements Watcher.
func (w *FSWatcher) Events() <-chan WatchEvent { return w.events }

// Errors implements Watcher.
func (w *FSWatcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and waits for its goroutine. Safe to call more than
// once.
func (w *FSWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *FSWatcher) run() {
	defer close(w.done)
	defer close(w.events)
	defer close(w.errors)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			kind, relevant := changeKind(ev.Op)
			if !relevant {
				continue
			}
			select {
			case w.events <- WatchEvent{Path: w.target, Kind: kind}:
			case <-w.stop:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Nobody is draining errors; drop rather than block events.
			}
		}
	}
}

func changeKind(op fsnotify.Op) (ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreated, true
	case op.Has(fsnotify.Write):
		return ChangeModified, true
	case op.Has(fsnotify.Remove):
		return ChangeRemoved, true
	case op.Has(fsnotify.Rename):
		return ChangeRenamed, true
	}
	return "", false
}
