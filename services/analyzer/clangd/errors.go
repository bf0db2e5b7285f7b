// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"errors"
	"fmt"
)

// Sentinel errors for clangd client operations.
var (
	// ErrEmptyWorkspace indicates Start was called with an empty workspace path.
	ErrEmptyWorkspace = errors.New("workspace path must not be empty")

	// ErrNotRunning indicates an operation requires a started connection.
	ErrNotRunning = errors.New("analyzer is not running")

	// ErrConnectionClosed indicates the connection was torn down while a
	// caller was waiting for a reply.
	ErrConnectionClosed = errors.New("analyzer connection closed")

	// ErrClangdNotInstalled indicates the clangd binary was not found.
	ErrClangdNotInstalled = errors.New("clangd not installed")

	// ErrClangdTooOld indicates the clangd binary is below the minimum
	// supported version.
	ErrClangdTooOld = errors.New("clangd version too old")

	// ErrHandshakeFailed indicates the initialize or background-index
	// handshake did not complete.
	ErrHandshakeFailed = errors.New("analyzer handshake failed")

	// ErrBadCompilationDB indicates compile_commands.json was missing,
	// malformed, or empty.
	ErrBadCompilationDB = errors.New("invalid compilation database")

	// ErrIDExhausted indicates the request id space overflowed.
	ErrIDExhausted = errors.New("request id space exhausted")

	// ErrNotOpened indicates CloseDocument was called for a document that
	// was never opened.
	ErrNotOpened = errors.New("document was never opened")

	// ErrInvalidResponse indicates a response could not be parsed.
	ErrInvalidResponse = errors.New("invalid analyzer response")

	// ErrSymbolNotFound indicates a symbol query returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// RPCError represents an error object returned by clangd via JSON-RPC.
//
// Error codes follow the JSON-RPC spec plus LSP-specific codes:
//   - -32700: Parse error
//   - -32600: Invalid request
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32603: Internal error
//   - -32099 to -32000: Server error (reserved)
//   - -32802: Server not initialized
//   - -32800: Request cancelled
type RPCError struct {
	// Code is the JSON-RPC error code.
	Code int `json:"code"`

	// Message is the error message from the server.
	Message string `json:"message"`

	// Data contains optional additional data about the error.
	Data any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsMethodNotFound returns true if the method is not supported by clangd.
func (e *RPCError) IsMethodNotFound() bool {
	return e.Code == -32601
}

// IsRequestCancelled returns true if the request was cancelled server-side.
func (e *RPCError) IsRequestCancelled() bool {
	return e.Code == -32800
}
