// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandwork/cscout/services/analyzer/clangd"
)

type fakeLifecycle struct {
	started   []string
	stops     int
	restarts  int
	state     clangd.State
	workspace string
	failWith  error
}

func (f *fakeLifecycle) Start(_ context.Context, workspace string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.started = append(f.started, workspace)
	f.state = clangd.StateRunning
	f.workspace = workspace
	return nil
}

func (f *fakeLifecycle) Stop() error {
	f.stops++
	f.state = clangd.StateStopped
	f.workspace = ""
	return nil
}

func (f *fakeLifecycle) Restart(context.Context) error {
	if f.state != clangd.StateRunning {
		return clangd.ErrNotRunning
	}
	f.restarts++
	return nil
}

func (f *fakeLifecycle) State() clangd.State { return f.state }
func (f *fakeLifecycle) Workspace() string   { return f.workspace }

type fakeQueries struct {
	definitions map[string][]string
	references  map[string][]string
	symbols     []clangd.SymbolInformation
}

func (f *fakeQueries) FindSymbolDefinition(_ context.Context, symbol string) ([]string, error) {
	locs, ok := f.definitions[symbol]
	if !ok {
		return nil, clangd.ErrSymbolNotFound
	}
	return locs, nil
}

func (f *fakeQueries) FindSymbolReferences(_ context.Context, symbol string) ([]string, error) {
	locs, ok := f.references[symbol]
	if !ok {
		return nil, clangd.ErrSymbolNotFound
	}
	return locs, nil
}

func (f *fakeQueries) WorkspaceSymbol(context.Context, string) ([]clangd.SymbolInformation, error) {
	return f.symbols, nil
}

func newTestService(t *testing.T) (*Service, *fakeLifecycle, *fakeQueries) {
	t.Helper()
	lc := &fakeLifecycle{}
	q := &fakeQueries{
		definitions: map[string][]string{"test_fun": {"src/main.c:5"}},
		references:  map[string][]string{"test_fun": {"src/main.c:5", "src/caller.c:12"}},
	}
	return newServiceWith(DefaultConfig(), nil, lc, q), lc, q
}

func TestService_Lifecycle(t *testing.T) {
	svc, lc, _ := newTestService(t)

	require.NoError(t, svc.Start(context.Background(), "/proj"))
	assert.Equal(t, []string{"/proj"}, lc.started)

	state, workspace := svc.Status()
	assert.Equal(t, "running", state)
	assert.Equal(t, "/proj", workspace)

	require.NoError(t, svc.Restart(context.Background()))
	assert.Equal(t, 1, lc.restarts)

	require.NoError(t, svc.Stop())
	assert.Equal(t, 1, lc.stops)

	state, _ = svc.Status()
	assert.Equal(t, "stopped", state)
}

func TestService_Start_WrapsError(t *testing.T) {
	svc, lc, _ := newTestService(t)
	lc.failWith = clangd.ErrBadCompilationDB

	err := svc.Start(context.Background(), "/proj")
	require.Error(t, err)
	assert.ErrorIs(t, err, clangd.ErrBadCompilationDB)
}

func TestService_FindDefinition(t *testing.T) {
	svc, _, _ := newTestService(t)

	locs, err := svc.FindDefinition(context.Background(), "test_fun")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.c:5"}, locs)

	_, err = svc.FindDefinition(context.Background(), "missing")
	assert.ErrorIs(t, err, clangd.ErrSymbolNotFound)

	_, err = svc.FindDefinition(context.Background(), "")
	assert.Error(t, err, "empty symbol must be rejected")
}

func TestService_FindReferences(t *testing.T) {
	svc, _, _ := newTestService(t)

	locs, err := svc.FindReferences(context.Background(), "test_fun")
	require.NoError(t, err)
	assert.Len(t, locs, 2)

	_, err = svc.FindReferences(context.Background(), "")
	assert.Error(t, err)
}

func TestService_Tools(t *testing.T) {
	svc, lc, _ := newTestService(t)

	tools := svc.Tools()
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"start_analyzer", "stop_analyzer", "find_definition", "find_references"}, names)

	t.Run("start_analyzer", func(t *testing.T) {
		tool := svc.Tool("start_analyzer")
		require.NotNil(t, tool)

		out, err := tool.Run(context.Background(), map[string]any{"workspace_path": "/proj"})
		require.NoError(t, err)
		assert.Equal(t, "analyzer ready", out)
		assert.Equal(t, []string{"/proj"}, lc.started)

		_, err = tool.Run(context.Background(), map[string]any{})
		assert.Error(t, err, "missing workspace_path must be rejected")

		_, err = tool.Run(context.Background(), map[string]any{"workspace_path": 42})
		assert.Error(t, err, "non-string workspace_path must be rejected")
	})

	t.Run("find_definition", func(t *testing.T) {
		tool := svc.Tool("find_definition")
		require.NotNil(t, tool)

		out, err := tool.Run(context.Background(), map[string]any{"symbol_name": "test_fun"})
		require.NoError(t, err)
		assert.Equal(t, []string{"src/main.c:5"}, out)
	})

	t.Run("find_references", func(t *testing.T) {
		tool := svc.Tool("find_references")
		require.NotNil(t, tool)

		out, err := tool.Run(context.Background(), map[string]any{"symbol_name": "test_fun"})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("stop_analyzer", func(t *testing.T) {
		tool := svc.Tool("stop_analyzer")
		require.NotNil(t, tool)

		out, err := tool.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "analyzer stopped", out)
	})

	t.Run("unknown tool", func(t *testing.T) {
		assert.Nil(t, svc.Tool("no_such_tool"))
	})
}
