// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package clangd implements a client for the clangd language server
// speaking the LSP base protocol over the server's stdin/stdout streams.
//
// # Architecture
//
// A running connection owns two long-lived goroutines coordinated through
// channels:
//
//	caller ──enqueue──► outbound channel ──send loop──► clangd stdin
//	caller ◄─receive── delivery queue  ◄─read loop──── clangd stdout
//
// The send loop serializes envelopes, records requests that expect a reply
// in the pending-request ledger, and writes Content-Length framed JSON.
// The read loop reframes the byte stream, matches responses against the
// ledger head in FIFO order, and forwards deliverable messages (matched
// responses, the background-index workDoneProgress/create server request,
// and $/progress notifications) to the delivery queue.
//
// # Components
//
//   - Framer: Content-Length framing, discarding interleaved log text
//   - ledger: FIFO record of requests awaiting responses
//   - Client: process lifecycle, document state, request primitives
//   - Operations: symbol-level queries composed from request primitives
//   - Database: compile_commands.json access
//   - Watcher: compilation database change notification
//
// # Correlation model
//
// Responses are matched positionally against the oldest outstanding
// request rather than by id lookup. This assumes clangd replies in request
// order, which holds for its single-threaded request handling but is not
// a protocol guarantee; id and method mismatches against the ledger head
// are dropped with a diagnostic log.
//
// # Thread Safety
//
// Client and Operations are safe for concurrent use. Concurrent callers
// issuing overlapping requests share the peer-side ordering assumption
// described above.
//
// # Example
//
//	client := clangd.NewClient(clangd.DefaultConfig(), slog.Default())
//	if err := client.Start(ctx, "/path/to/project"); err != nil {
//	    return err
//	}
//	defer client.Stop()
//
//	ops := clangd.NewOperations(client)
//	locs, err := ops.FindSymbolDefinition(ctx, "parse_config")
package clangd
