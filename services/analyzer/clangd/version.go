// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"

	"golang.org/x/mod/semver"
)

// versionPattern matches the release number in `clangd --version` output,
// e.g. "Ubuntu clangd version 14.0.0-1ubuntu1.1" or "clangd version 18.1.3".
var versionPattern = regexp.MustCompile(`clangd version (\d+\.\d+\.\d+)`)

// clangdVersion runs `clangd --version` and extracts the release number.
func clangdVersion(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("run %s --version: %w", binary, err)
	}
	match := versionPattern.FindSubmatch(out)
	if match == nil {
		return "", fmt.Errorf("no version in output %q", string(out))
	}
	return string(match[1]), nil
}

// checkVersion enforces the configured minimum clangd release. A binary
// whose version cannot be determined is allowed through with a warning;
// a version below the minimum is fatal.
func checkVersion(ctx context.Context, binary, minVersion string, log *slog.Logger) error {
	if minVersion == "" {
		return nil
	}
	got, err := clangdVersion(ctx, binary)
	if err != nil {
		log.Warn("could not determine clangd version", "binary", binary, "error", err)
		return nil
	}
	if semver.Compare("v"+got, "v"+minVersion) < 0 {
		return fmt.Errorf("%w: have %s, need at least %s", ErrClangdTooOld, got, minVersion)
	}
	log.Debug("clangd version ok", "version", got, "min", minVersion)
	return nil
}
