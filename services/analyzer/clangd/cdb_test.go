// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDatabase(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, databaseFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocateDatabase(t *testing.T) {
	t.Run("workspace root", func(t *testing.T) {
		ws := t.TempDir()
		want := writeDatabase(t, ws, "[]")

		got, err := LocateDatabase(ws)
		if err != nil {
			t.Fatalf("LocateDatabase: %v", err)
		}
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("build directory", func(t *testing.T) {
		ws := t.TempDir()
		buildDir := filepath.Join(ws, "build")
		if err := os.Mkdir(buildDir, 0o755); err != nil {
			t.Fatal(err)
		}
		want := writeDatabase(t, buildDir, "[]")

		got, err := LocateDatabase(ws)
		if err != nil {
			t.Fatalf("LocateDatabase: %v", err)
		}
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("root takes precedence over build", func(t *testing.T) {
		ws := t.TempDir()
		rootDB := writeDatabase(t, ws, "[]")
		buildDir := filepath.Join(ws, "build")
		if err := os.Mkdir(buildDir, 0o755); err != nil {
			t.Fatal(err)
		}
		writeDatabase(t, buildDir, "[]")

		got, err := LocateDatabase(ws)
		if err != nil {
			t.Fatalf("LocateDatabase: %v", err)
		}
		if got != rootDB {
			t.Errorf("got %s, want root database %s", got, rootDB)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LocateDatabase(t.TempDir())
		if !errors.Is(err, ErrBadCompilationDB) {
			t.Errorf("expected ErrBadCompilationDB, got %v", err)
		}
	})
}

func TestLoadDatabase(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ws := t.TempDir()
		path := writeDatabase(t, ws, `[
			{"directory": "/proj", "file": "main.c", "command": "cc -c main.c"},
			{"directory": "/proj", "file": "util.c", "arguments": ["cc", "-c", "util.c"]}
		]`)

		db, err := LoadDatabase(path)
		if err != nil {
			t.Fatalf("LoadDatabase: %v", err)
		}
		if len(db.Commands) != 2 {
			t.Fatalf("len(Commands) = %d, want 2", len(db.Commands))
		}
		if db.Commands[0].File != "main.c" {
			t.Errorf("first file = %q, want main.c", db.Commands[0].File)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeDatabase(t, t.TempDir(), "not json at all")

		if _, err := LoadDatabase(path); !errors.Is(err, ErrBadCompilationDB) {
			t.Errorf("expected ErrBadCompilationDB, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		path := writeDatabase(t, t.TempDir(), "[]")

		if _, err := LoadDatabase(path); !errors.Is(err, ErrBadCompilationDB) {
			t.Errorf("expected ErrBadCompilationDB, got %v", err)
		}
	})
}

func TestDatabase_First(t *testing.T) {
	t.Run("relative file resolved against directory", func(t *testing.T) {
		db := &Database{Commands: []CompileCommand{
			{Directory: "/proj/build", File: "../src/main.c"},
		}}
		if got, want := db.First(), filepath.Clean("/proj/src/main.c"); got != want {
			t.Errorf("First = %s, want %s", got, want)
		}
	})

	t.Run("absolute file kept", func(t *testing.T) {
		db := &Database{Commands: []CompileCommand{
			{Directory: "/proj", File: "/proj/src/main.c"},
		}}
		if got := db.First(); got != "/proj/src/main.c" {
			t.Errorf("First = %s", got)
		}
	})
}
