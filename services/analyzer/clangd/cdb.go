// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const databaseFileName = "compile_commands.json"

// databaseSearchDirs are the workspace-relative directories searched for
// the compilation database, in order.
var databaseSearchDirs = []string{".", "build", "out", "cmake-build-debug", "cmake-build-release"}

// CompileCommand is one entry of a compile_commands.json database.
// Either Command or Arguments carries the compiler invocation.
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Database is a parsed compilation database.
type Database struct {
	Path     string
	Commands []CompileCommand
}

// LocateDatabase finds compile_commands.json under the workspace,
// checking the workspace root first and then common build directories.
func LocateDatabase(workspace string) (string, error) {
	for _, dir := range databaseSearchDirs {
		candidate := filepath.Join(workspace, dir, databaseFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no %s under %s", ErrBadCompilationDB, databaseFileName, workspace)
}

// LoadDatabase parses the compilation database at path. An empty database
// is an error: without at least one translation unit there is nothing to
// open and background indexing never starts.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCompilationDB, err)
	}
	var commands []CompileCommand
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrBadCompilationDB, path, err)
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("%w: %s has no entries", ErrBadCompilationDB, path)
	}
	return &Database{Path: path, Commands: commands}, nil
}

// First returns the absolute path of the database's first translation
// unit. Relative file entries are resolved against the entry's directory,
// as the database format specifies.
func (db *Database) First() string {
	entry := db.Commands[0]
	if filepath.IsAbs(entry.File) {
		return filepath.Clean(entry.File)
	}
	return filepath.Clean(filepath.Join(entry.Directory, entry.File))
}
