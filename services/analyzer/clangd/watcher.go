// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// DatabaseWatcher watches for changes to compile_commands.json.
//
// # Description
//
// Detects when the compilation database is regenerated (e.g., by a build
// system run in another terminal). The running clangd keeps its old view
// of the build until restarted, so a change means query results may be
// stale. Invokes the callback when detected.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type DatabaseWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func(path string)
	log      *slog.Logger
}

// NewDatabaseWatcher creates a watcher for compilation database changes.
//
// # Inputs
//
//   - path: Path to compile_commands.json.
//   - callback: Invoked with the path on each change (may be nil).
//
// # Outputs
//
//   - *DatabaseWatcher: Ready-to-start watcher.
//   - error: Non-nil if watcher creation fails.
func NewDatabaseWatcher(path string, callback func(path string), log *slog.Logger) (*DatabaseWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	return &DatabaseWatcher{
		path:     path,
		watcher:  watcher,
		callback: callback,
		log:      log,
	}, nil
}

// Start begins watching. Blocks until the context is cancelled; run it
// in a goroutine.
//
// The containing directory is watched rather than the file itself:
// build systems replace the database by rename, which drops a watch
// placed directly on the file.
func (w *DatabaseWatcher) Start(ctx context.Context) {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.log.Warn("failed to watch compilation database directory",
			"dir", dir,
			"error", err)
	}

	w.log.Debug("watching compilation database", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("compilation database watcher error", "error", err)

		case <-ctx.Done():
			w.log.Debug("compilation database watcher stopping")
			return
		}
	}
}

// handleEvent processes a single fsnotify event.
func (w *DatabaseWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.log.Info("compilation database changed, analyzer view may be stale",
		"path", event.Name)

	if w.callback != nil {
		w.callback(event.Name)
	}
}

// Stop closes the underlying watcher, terminating Start.
func (w *DatabaseWatcher) Stop() error {
	return w.watcher.Close()
}
