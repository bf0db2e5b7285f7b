// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// OPERATIONS
// =============================================================================

// Operations provides high-level symbol queries on a running analyzer.
//
// Description:
//
//	Wraps the Client to provide convenient methods for common queries:
//	workspace symbol search, go-to-definition, and find-references.
//	Symbol-name queries resolve the symbol via workspace/symbol first,
//	then issue position-based requests at the symbol's location.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Operations struct {
	client *Client
}

// NewOperations creates an Operations instance over a client.
func NewOperations(client *Client) *Operations {
	return &Operations{client: client}
}

// Client returns the underlying client.
func (o *Operations) Client() *Client {
	return o.client
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pathToURI converts an absolute file path to a file:// URI.
//
// Description:
//
//	Properly encodes the path for use in a file:// URI, handling special
//	characters like spaces, unicode, and other reserved characters.
func pathToURI(path string) string {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err == nil {
			path = abs
		}
	}

	u := &url.URL{
		Scheme: "file",
		Path:   path,
	}
	return u.String()
}

// uriToPath converts a file:// URI to an absolute file path.
func uriToPath(uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		return u.Path
	}
	return strings.TrimPrefix(uri, "file://")
}

// parseLocationResponse parses a location or array of locations result.
func parseLocationResponse(data json.RawMessage) ([]Location, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	if data[0] == '[' {
		var locations []Location
		if err := json.Unmarshal(data, &locations); err == nil {
			return locations, nil
		}
		return nil, ErrInvalidResponse
	}

	var single Location
	if err := json.Unmarshal(data, &single); err == nil && single.URI != "" {
		return []Location{single}, nil
	}

	return nil, ErrInvalidResponse
}

// formatLocations renders locations as workspace-relative "file:line"
// strings with 1-indexed lines.
func formatLocations(workspace string, locations []Location) []string {
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		path := uriToPath(loc.URI)
		if rel, err := filepath.Rel(workspace, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		out = append(out, fmt.Sprintf("%s:%d", path, loc.Range.Start.Line+1))
	}
	return out
}

// isHeader reports whether the path names a C/C++ header file.
func isHeader(path string) bool {
	switch filepath.Ext(path) {
	case ".h", ".hh", ".hpp", ".hxx":
		return true
	default:
		return false
	}
}

// =============================================================================
// POSITION-BASED OPERATIONS
// =============================================================================

// Definition returns the definition location(s) for the position.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//	path - Absolute path to the file
//	pos - Zero-indexed line and character
//
// Outputs:
//
//	[]Location - Definition location(s), may be empty if not found
//	error - Non-nil on failure
func (o *Operations) Definition(ctx context.Context, path string, pos Position) ([]Location, error) {
	params := TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
		Position:     pos,
	}
	resp, err := o.client.SendRequest(ctx, "textDocument/definition", params)
	if err != nil {
		return nil, fmt.Errorf("definition request: %w", err)
	}
	return parseLocationResponse(resp.Result)
}

// References returns all references to the symbol at the position.
func (o *Operations) References(ctx context.Context, path string, pos Position, includeDecl bool) ([]Location, error) {
	params := ReferenceParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
			Position:     pos,
		},
		Context: ReferenceContext{IncludeDeclaration: includeDecl},
	}
	resp, err := o.client.SendRequest(ctx, "textDocument/references", params)
	if err != nil {
		return nil, fmt.Errorf("references request: %w", err)
	}
	return parseLocationResponse(resp.Result)
}

// =============================================================================
// SYMBOL OPERATIONS
// =============================================================================

// WorkspaceSymbol finds symbols matching a query in the workspace.
//
// Description:
//
//	Sends a workspace/symbol request. An empty result is not an error;
//	it returns a nil slice.
func (o *Operations) WorkspaceSymbol(ctx context.Context, query string) ([]SymbolInformation, error) {
	ctx, span := startOperationSpan(ctx, "WorkspaceSymbol", query)
	defer span.End()
	start := time.Now()

	resp, err := o.client.SendRequest(ctx, "workspace/symbol", WorkspaceSymbolParams{Query: query})
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics(ctx, "workspace_symbol", time.Since(start), 0, false)
		return nil, fmt.Errorf("symbol request: %w", err)
	}

	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		setOperationSpanResult(span, 0, true)
		recordOperationMetrics(ctx, "workspace_symbol", time.Since(start), 0, true)
		return nil, nil
	}

	var symbols []SymbolInformation
	if err := json.Unmarshal(resp.Result, &symbols); err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics(ctx, "workspace_symbol", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse symbol result: %w", err)
	}

	setOperationSpanResult(span, len(symbols), true)
	recordOperationMetrics(ctx, "workspace_symbol", time.Since(start), len(symbols), true)
	return symbols, nil
}

// DocumentSymbol lists the symbols of one document.
func (o *Operations) DocumentSymbol(ctx context.Context, path string) ([]SymbolInformation, error) {
	abs, err := o.client.OpenDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	params := DocumentSymbolParams{TextDocument: TextDocumentIdentifier{URI: pathToURI(abs)}}
	resp, err := o.client.SendRequest(ctx, "textDocument/documentSymbol", params)
	if err != nil {
		return nil, fmt.Errorf("documentSymbol request: %w", err)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, nil
	}

	var symbols []SymbolInformation
	if err := json.Unmarshal(resp.Result, &symbols); err != nil {
		return nil, fmt.Errorf("parse documentSymbol result: %w", err)
	}
	return symbols, nil
}

// LocateSymbol resolves a symbol name to its first reported location.
//
// Description:
//
//	Issues workspace/symbol with the name as the query and returns the
//	location of the first match, which for clangd is the declaration
//	site. ErrSymbolNotFound when nothing matches.
func (o *Operations) LocateSymbol(ctx context.Context, name string) (*Location, error) {
	symbols, err := o.WorkspaceSymbol(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	loc := symbols[0].Location
	return &loc, nil
}

// =============================================================================
// SYMBOL-NAME COMPOSITIONS
// =============================================================================

// FindSymbolDefinition returns the definition of a named symbol as
// workspace-relative "file:line" strings.
//
// Description:
//
//	Resolves the symbol via workspace/symbol, opens the file containing
//	it, and asks for the definition at the symbol's own position. When
//	the definition answer lands in a header file the symbol's location
//	is itself the definition, so that location is returned instead.
//
// Example:
//
//	locs, err := ops.FindSymbolDefinition(ctx, "test_fun")
//	if err != nil {
//	    return err
//	}
//	for _, loc := range locs {
//	    fmt.Println(loc)
//	}
func (o *Operations) FindSymbolDefinition(ctx context.Context, symbol string) ([]string, error) {
	ctx, span := startOperationSpan(ctx, "FindSymbolDefinition", symbol)
	defer span.End()
	start := time.Now()

	locations, err := o.findDefinitionLocations(ctx, symbol)
	if err != nil {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics(ctx, "find_definition", time.Since(start), 0, false)
		return nil, err
	}

	setOperationSpanResult(span, len(locations), true)
	recordOperationMetrics(ctx, "find_definition", time.Since(start), len(locations), true)
	return formatLocations(o.client.Workspace(), locations), nil
}

func (o *Operations) findDefinitionLocations(ctx context.Context, symbol string) ([]Location, error) {
	symbolLoc, err := o.LocateSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	path, err := o.client.OpenDocument(ctx, uriToPath(symbolLoc.URI))
	if err != nil {
		return nil, err
	}

	locations, err := o.Definition(ctx, path, symbolLoc.Range.Start)
	if err != nil {
		return nil, err
	}

	// clangd answers a definition query at a declaration site with the
	// declaration itself when the true definition lives elsewhere; a
	// header hit means the symbol location already is the definition.
	if len(locations) > 0 && isHeader(uriToPath(locations[0].URI)) {
		return []Location{*symbolLoc}, nil
	}
	return locations, nil
}

// FindSymbolReferences returns all references to a named symbol as
// workspace-relative "file:line" strings.
func (o *Operations) FindSymbolReferences(ctx context.Context, symbol string) ([]string, error) {
	ctx, span := startOperationSpan(ctx, "FindSymbolReferences", symbol)
	defer span.End()
	start := time.Now()

	fail := func(err error) ([]string, error) {
		setOperationSpanResult(span, 0, false)
		recordOperationMetrics(ctx, "find_references", time.Since(start), 0, false)
		return nil, err
	}

	symbolLoc, err := o.LocateSymbol(ctx, symbol)
	if err != nil {
		return fail(err)
	}

	path, err := o.client.OpenDocument(ctx, uriToPath(symbolLoc.URI))
	if err != nil {
		return fail(err)
	}

	locations, err := o.References(ctx, path, symbolLoc.Range.Start, true)
	if err != nil {
		return fail(err)
	}

	setOperationSpanResult(span, len(locations), true)
	recordOperationMetrics(ctx, "find_references", time.Since(start), len(locations), true)
	return formatLocations(o.client.Workspace(), locations), nil
}

// URIToPath converts a file:// URI to a file path.
func (o *Operations) URIToPath(uri string) string {
	return uriToPath(uri)
}

// PathToURI converts a file path to a file:// URI.
func (o *Operations) PathToURI(path string) string {
	return pathToURI(path)
}
