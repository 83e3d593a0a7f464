// Package signals watches for an external stop request. Dropping a file
// named "stop" into <workspace>/.patchpilot/signals cancels the run, the
// same way OS signals do. This is the only cancellation path; in-flight
// verification commands are killed by their own timeouts.
package signals

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StopFile is the filename that requests shutdown.
const StopFile = "stop"

// Watcher cancels a context when a stop file appears in the signals
// directory.
type Watcher struct {
	signalsDir string
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
	done       chan struct{}
}

// Watch derives a cancellable context from parent and starts watching
// the workspace's signals directory. If the filesystem watcher cannot be
// created the returned context still works; only file-based stop is
// unavailable (the caller's OS signal handling is unaffected).
func Watch(parent context.Context, workspaceRoot string) (context.Context, *Watcher, error) {
	signalsDir := filepath.Join(workspaceRoot, ".patchpilot", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	w := &Watcher{
		signalsDir: signalsDir,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	// A stop file left over from a previous run counts immediately.
	if _, err := os.Stat(filepath.Join(signalsDir, StopFile)); err == nil {
		cancel()
		close(w.done)
		return ctx, w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Keep running without file-based stop.
		close(w.done)
		return ctx, w, nil
	}
	if err := fsw.Add(signalsDir); err != nil {
		fsw.Close()
		close(w.done)
		return ctx, w, nil
	}
	w.watcher = fsw

	go w.loop()
	return ctx, w, nil
}

// loop waits for the stop file to be created or written.
func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == StopFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.cancel()
				return
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Keep watching.
		}
	}
}

// Close stops watching and releases the watcher. The derived context is
// cancelled so nothing leaks.
func (w *Watcher) Close() {
	w.cancel()
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}
}
