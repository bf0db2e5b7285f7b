// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strandwork/cscout/services/analyzer/clangd"
)

// withAnalyzer starts the analyzer for the workspace flag, runs fn, and
// stops the analyzer again. Ctrl-C cancels the whole sequence,
// including a start blocked on background indexing.
func withAnalyzer(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.Start(ctx, workspacePath); err != nil {
		return err
	}
	defer func() {
		if err := service.Stop(); err != nil {
			logger.Warn("stopping analyzer", "error", err)
		}
	}()

	if watchDatabase {
		cancelWatch, err := watchCompilationDatabase(ctx)
		if err != nil {
			logger.Warn("database watcher unavailable", "error", err)
		} else {
			defer cancelWatch()
		}
	}

	return fn(ctx)
}

// watchCompilationDatabase warns when the database changes mid-query.
func watchCompilationDatabase(ctx context.Context) (func(), error) {
	_, workspace := service.Status()
	dbPath, err := clangd.LocateDatabase(workspace)
	if err != nil {
		return nil, err
	}

	watcher, err := clangd.NewDatabaseWatcher(dbPath, func(path string) {
		logger.Warn("compilation database changed while analyzing; results may be stale", "path", path)
	}, logger.Slog())
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	go watcher.Start(watchCtx)
	return func() {
		cancel()
		_ = watcher.Stop()
	}, nil
}

// printLocations renders "file:line" results as lines or JSON.
func printLocations(locations []string) error {
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(locations)
	}
	if len(locations) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, loc := range locations {
		fmt.Println(loc)
	}
	return nil
}

func runDefinition(cmd *cobra.Command, args []string) error {
	return withAnalyzer(func(ctx context.Context) error {
		locations, err := service.FindDefinition(ctx, args[0])
		if err != nil {
			return err
		}
		return printLocations(locations)
	})
}

func runReferences(cmd *cobra.Command, args []string) error {
	return withAnalyzer(func(ctx context.Context) error {
		locations, err := service.FindReferences(ctx, args[0])
		if err != nil {
			return err
		}
		return printLocations(locations)
	})
}

func runSymbols(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	return withAnalyzer(func(ctx context.Context) error {
		symbols, err := service.Symbols(ctx, query)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(symbols)
		}
		if len(symbols) == 0 {
			fmt.Println("no results")
			return nil
		}
		for _, sym := range symbols {
			fmt.Printf("%s\t%s:%d\n", sym.Name, sym.Location.URI, sym.Location.Range.Start.Line+1)
		}
		return nil
	})
}

// runTools prints the tool registry for front-ends that embed cscout as
// an agent capability.
func runTools(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(service.Tools())
}
