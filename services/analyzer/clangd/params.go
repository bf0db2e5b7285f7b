// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// defaultInitParams is the built-in initialize request payload. It
// advertises window.workDoneProgress support, which clangd requires
// before it will announce background indexing over the protocol.
//
//go:embed init_params.json
var defaultInitParams []byte

// loadInitParams returns the initialize params document: the file at
// path when set, the embedded default otherwise. The document is used
// verbatim, so it must be valid JSON.
func loadInitParams(path string) (json.RawMessage, error) {
	if path == "" {
		return json.RawMessage(defaultInitParams), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read init params: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("init params %s: not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
