// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "clangd", cfg.Clangd.Binary)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
clangd:
  binary: /opt/llvm/bin/clangd
  min_version: "14.0.0"
  request_timeout: 10s
logging:
  level: debug
  dir: /var/log/cscout
telemetry:
  trace_exporter: stdout
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/opt/llvm/bin/clangd", cfg.Clangd.Binary)
		assert.Equal(t, "14.0.0", cfg.Clangd.MinVersion)
		assert.Equal(t, 10*time.Second, cfg.Clangd.RequestTimeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
		// Untouched defaults survive a partial file.
		assert.NotEmpty(t, cfg.Clangd.Args)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/config.yaml")
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("clangd: ["), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
