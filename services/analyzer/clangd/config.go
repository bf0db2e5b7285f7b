// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import "time"

// Config controls how the clangd process is located, spawned, and driven.
type Config struct {
	// Binary is the clangd executable name or path, resolved via PATH
	// when not absolute.
	Binary string `yaml:"binary" json:"binary" validate:"required"`

	// Args are the flags clangd is spawned with. Verbose logging and
	// background indexing must stay enabled; the index handshake
	// depends on them.
	Args []string `yaml:"args" json:"args"`

	// MinVersion is the minimum acceptable clangd release, e.g. "14.0.0".
	// Empty disables the check. An unparseable version string from the
	// binary downgrades the check to a warning.
	MinVersion string `yaml:"min_version" json:"min_version"`

	// InitParamsPath points to a JSON document used verbatim as the
	// initialize request params. Empty selects the built-in default.
	InitParamsPath string `yaml:"init_params" json:"init_params"`

	// StartupTimeout bounds the whole startup sequence: spawn,
	// initialize, first didOpen, and the background-index handshake.
	StartupTimeout time.Duration `yaml:"startup_timeout" json:"startup_timeout" validate:"gte=0"`

	// RequestTimeout bounds each individual request once running.
	// Zero means the caller's context is the only bound.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"gte=0"`

	// ShutdownGrace is how long Stop waits for clangd to exit after
	// SIGTERM before killing it.
	ShutdownGrace time.Duration `yaml:"shutdown_grace" json:"shutdown_grace" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		Binary:         "clangd",
		Args:           []string{"--log=verbose", "--background-index"},
		StartupTimeout: 5 * time.Minute,
		RequestTimeout: 30 * time.Second,
		ShutdownGrace:  5 * time.Second,
	}
}
