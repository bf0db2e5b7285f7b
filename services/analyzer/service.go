// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analyzer exposes C/C++ code navigation backed by a managed
// clangd process. The Service facade owns one analyzer at a time and
// publishes its capabilities as a tool registry for front-ends.
package analyzer

import (
	"context"
	"fmt"

	"github.com/strandwork/cscout/pkg/logging"
	"github.com/strandwork/cscout/services/analyzer/clangd"
)

// lifecycle is the subset of clangd.Client the service drives.
type lifecycle interface {
	Start(ctx context.Context, workspace string) error
	Stop() error
	Restart(ctx context.Context) error
	State() clangd.State
	Workspace() string
}

// queries is the subset of clangd.Operations the service exposes.
type queries interface {
	FindSymbolDefinition(ctx context.Context, symbol string) ([]string, error)
	FindSymbolReferences(ctx context.Context, symbol string) ([]string, error)
	WorkspaceSymbol(ctx context.Context, query string) ([]clangd.SymbolInformation, error)
}

// Service is the analyzer facade: one clangd-backed analyzer, started
// against a workspace on demand and queried by symbol name.
//
// Safe for concurrent use; the underlying client serializes lifecycle
// transitions itself.
type Service struct {
	cfg       Config
	log       *logging.Logger
	lifecycle lifecycle
	queries   queries
}

// NewService builds a Service over a fresh clangd client.
func NewService(cfg Config, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Default()
	}
	client := clangd.NewClient(cfg.Clangd, log.Slog())
	return &Service{
		cfg:       cfg,
		log:       log,
		lifecycle: client,
		queries:   clangd.NewOperations(client),
	}
}

// newServiceWith injects fakes for tests.
func newServiceWith(cfg Config, log *logging.Logger, lc lifecycle, q queries) *Service {
	if log == nil {
		log = logging.Default()
	}
	return &Service{cfg: cfg, log: log, lifecycle: lc, queries: q}
}

// Start spins up the analyzer for a workspace and blocks until its
// background index is complete. Starting the same workspace again is a
// no-op; a different workspace replaces the running analyzer.
func (s *Service) Start(ctx context.Context, workspace string) error {
	s.log.Info("starting analyzer", "workspace", workspace)
	if err := s.lifecycle.Start(ctx, workspace); err != nil {
		return fmt.Errorf("start analyzer: %w", err)
	}
	return nil
}

// Stop shuts the analyzer down. A stopped service is a no-op.
func (s *Service) Stop() error {
	if err := s.lifecycle.Stop(); err != nil {
		return fmt.Errorf("stop analyzer: %w", err)
	}
	return nil
}

// Restart recycles the analyzer for its current workspace, picking up a
// regenerated compilation database.
func (s *Service) Restart(ctx context.Context) error {
	if err := s.lifecycle.Restart(ctx); err != nil {
		return fmt.Errorf("restart analyzer: %w", err)
	}
	return nil
}

// Status reports the analyzer state and workspace.
func (s *Service) Status() (state string, workspace string) {
	return s.lifecycle.State().String(), s.lifecycle.Workspace()
}

// FindDefinition returns the definition of a named symbol as
// workspace-relative "file:line" strings.
func (s *Service) FindDefinition(ctx context.Context, symbol string) ([]string, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol name must not be empty")
	}
	return s.queries.FindSymbolDefinition(ctx, symbol)
}

// FindReferences returns all references to a named symbol as
// workspace-relative "file:line" strings.
func (s *Service) FindReferences(ctx context.Context, symbol string) ([]string, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol name must not be empty")
	}
	return s.queries.FindSymbolReferences(ctx, symbol)
}

// Symbols searches the workspace for symbols matching the query.
func (s *Service) Symbols(ctx context.Context, query string) ([]clangd.SymbolInformation, error) {
	return s.queries.WorkspaceSymbol(ctx, query)
}
