// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/strandwork/cscout/pkg/logging"
	"github.com/strandwork/cscout/services/analyzer"
	"github.com/strandwork/cscout/services/analyzer/telemetry"
)

var (
	config  analyzer.Config
	logger  *logging.Logger
	service *analyzer.Service

	telemetryShutdown func(context.Context) error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and wires logging, telemetry, and the
// analyzer service. Runs once before any subcommand.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := analyzer.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if telemetryMode != "" {
		cfg.Telemetry.TraceExporter = telemetryMode
		cfg.Telemetry.MetricExporter = telemetryMode
	}
	config = cfg

	logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "cscout",
		// Humans at a terminal get text; pipes and files get JSON.
		JSON: cfg.Logging.JSON || !isatty.IsTerminal(os.Stderr.Fd()),
	})
	logger.SetDefault()

	shutdown, err := telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	telemetryShutdown = shutdown

	service = analyzer.NewService(cfg, logger)
	return nil
}

// cleanup flushes telemetry and the log file after a subcommand.
func cleanup(cmd *cobra.Command, args []string) {
	if telemetryShutdown != nil {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}
	if logger != nil {
		_ = logger.Close()
	}
}
