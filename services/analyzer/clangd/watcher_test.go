// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, path string) (*DatabaseWatcher, *int) {
	t.Helper()
	calls := 0
	w, err := NewDatabaseWatcher(path, func(string) { calls++ }, testLogger())
	if err != nil {
		t.Fatalf("NewDatabaseWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w, &calls
}

func TestDatabaseWatcher_HandleEvent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), databaseFileName)

	t.Run("write to database fires callback", func(t *testing.T) {
		w, calls := newTestWatcher(t, dbPath)
		w.handleEvent(fsnotify.Event{Name: dbPath, Op: fsnotify.Write})
		if *calls != 1 {
			t.Errorf("calls = %d, want 1", *calls)
		}
	})

	t.Run("create fires callback", func(t *testing.T) {
		w, calls := newTestWatcher(t, dbPath)
		w.handleEvent(fsnotify.Event{Name: dbPath, Op: fsnotify.Create})
		if *calls != 1 {
			t.Errorf("calls = %d, want 1", *calls)
		}
	})

	t.Run("chmod is ignored", func(t *testing.T) {
		w, calls := newTestWatcher(t, dbPath)
		w.handleEvent(fsnotify.Event{Name: dbPath, Op: fsnotify.Chmod})
		if *calls != 0 {
			t.Errorf("calls = %d, want 0", *calls)
		}
	})

	t.Run("other files in the directory are ignored", func(t *testing.T) {
		w, calls := newTestWatcher(t, dbPath)
		other := filepath.Join(filepath.Dir(dbPath), "CMakeCache.txt")
		w.handleEvent(fsnotify.Event{Name: other, Op: fsnotify.Write})
		if *calls != 0 {
			t.Errorf("calls = %d, want 0", *calls)
		}
	})

	t.Run("nil callback does not panic", func(t *testing.T) {
		w, err := NewDatabaseWatcher(dbPath, nil, testLogger())
		if err != nil {
			t.Fatalf("NewDatabaseWatcher: %v", err)
		}
		defer w.Stop()
		w.handleEvent(fsnotify.Event{Name: dbPath, Op: fsnotify.Write})
	})
}
