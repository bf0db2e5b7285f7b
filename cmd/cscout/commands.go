// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import "github.com/spf13/cobra"

// --- Global Command Variables ---
var (
	configPath    string
	logLevel      string
	telemetryMode string // exporter override: stdout, otlp, prometheus, none
	workspacePath string
	jsonOutput    bool
	watchDatabase bool

	rootCmd = &cobra.Command{
		Use:   "cscout",
		Short: "Navigate C/C++ codebases through a managed clangd analyzer",
		Long: `cscout spawns clangd against a workspace's compilation database,
waits for background indexing, and answers symbol queries:
where is a function defined, and who calls it.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: cleanup,
	}

	definitionCmd = &cobra.Command{
		Use:   "definition <symbol>",
		Short: "Find where a symbol is defined",
		Args:  cobra.ExactArgs(1),
		RunE:  runDefinition, // Defined in cmd_query.go
	}

	referencesCmd = &cobra.Command{
		Use:   "references <symbol>",
		Short: "Find all references to a symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  runReferences, // Defined in cmd_query.go
	}

	symbolsCmd = &cobra.Command{
		Use:   "symbols [query]",
		Short: "Search workspace symbols by name",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSymbols, // Defined in cmd_query.go
	}

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Print the analyzer tool registry as JSON",
		RunE:  runTools, // Defined in cmd_query.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&telemetryMode, "telemetry", "", "telemetry exporter (stdout, otlp, prometheus, none)")

	for _, cmd := range []*cobra.Command{definitionCmd, referencesCmd, symbolsCmd} {
		cmd.Flags().StringVarP(&workspacePath, "workspace", "w", "", "workspace directory containing compile_commands.json")
		_ = cmd.MarkFlagRequired("workspace")
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit results as JSON")
		cmd.Flags().BoolVar(&watchDatabase, "watch-db", false, "warn when compile_commands.json changes during the query")
	}

	rootCmd.AddCommand(definitionCmd, referencesCmd, symbolsCmd, toolsCmd)
}
