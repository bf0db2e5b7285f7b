// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// contentLengthHeader prefixes every framed protocol message.
const contentLengthHeader = "Content-Length:"

// Framer turns the raw byte stream from clangd's stdout into discrete
// JSON payloads.
//
// The base protocol frames each message as a Content-Length header line,
// an empty separator line, and exactly N bytes of UTF-8 JSON. clangd run
// with verbose logging interleaves plain diagnostic lines on the same
// stream; any line that does not begin with the Content-Length header is
// logged at debug level and discarded, never surfaced to callers.
//
// Framer is not safe for concurrent use; the read loop is its only
// consumer.
type Framer struct {
	reader *bufio.Reader
	log    *slog.Logger
}

// NewFramer creates a Framer reading from r.
func NewFramer(r io.Reader) *Framer {
	return &Framer{
		reader: bufio.NewReader(r),
		log:    slog.Default(),
	}
}

// Next returns the next framed JSON payload.
//
// A zero Content-Length still completes a whole (degenerate) message and
// yields an empty payload. A stream truncated mid-header or mid-body
// returns the underlying I/O error (io.EOF or io.ErrUnexpectedEOF) so the
// read loop terminates instead of hanging.
func (f *Framer) Next() (json.RawMessage, error) {
	length, err := f.nextContentLength()
	if err != nil {
		return nil, err
	}

	// Consume header lines up to the blank separator. clangd only sends
	// Content-Length, but tolerate Content-Type per the base protocol.
	for {
		line, err := f.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(f.reader, body); err != nil {
		return nil, err
	}
	return body, nil
}

// nextContentLength scans forward to the next Content-Length header,
// discarding diagnostic log lines along the way.
func (f *Framer) nextContentLength() (int, error) {
	for {
		line, err := f.reader.ReadString('\n')
		if err != nil {
			// A partial line with no header start is trailing log text;
			// surface the stream error either way.
			return 0, err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(trimmed, contentLengthHeader) {
			value := strings.TrimSpace(strings.TrimPrefix(trimmed, contentLengthHeader))
			length, err := strconv.Atoi(value)
			if err != nil {
				return 0, fmt.Errorf("invalid Content-Length %q: %w", value, err)
			}
			if length < 0 {
				return 0, fmt.Errorf("negative Content-Length: %d", length)
			}
			return length, nil
		}

		if trimmed != "" {
			f.log.Debug("discarding non-protocol output", "line", trimmed)
		}
	}
}
