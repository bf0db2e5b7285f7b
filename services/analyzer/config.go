// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/strandwork/cscout/services/analyzer/clangd"
	"github.com/strandwork/cscout/services/analyzer/telemetry"
)

// LoggingConfig controls service logging.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir is an optional directory for JSON log files. Empty disables
	// file logging.
	Dir string `yaml:"dir" json:"dir"`

	// JSON forces JSON output on stderr even when attached to a
	// terminal.
	JSON bool `yaml:"json" json:"json"`
}

// Config is the full analyzer service configuration.
type Config struct {
	Clangd    clangd.Config    `yaml:"clangd" json:"clangd"`
	Logging   LoggingConfig    `yaml:"logging" json:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry" json:"telemetry"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Clangd:    clangd.DefaultConfig(),
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
	}
}

var validate = validator.New()

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
