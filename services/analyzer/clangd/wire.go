// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"encoding/json"
	"fmt"
)

// jsonrpcVersion is the JSON-RPC version used by the LSP base protocol.
const jsonrpcVersion = "2.0"

// Well-known protocol methods.
const (
	methodInitialize             = "initialize"
	methodInitialized            = "initialized"
	methodDidOpen                = "textDocument/didOpen"
	methodDidClose               = "textDocument/didClose"
	methodProgress               = "$/progress"
	methodWorkDoneProgressCreate = "window/workDoneProgress/create"
)

// backgroundIndexToken is the progress token clangd uses for its
// project-wide background indexing operation. The progress tracker
// recognizes only this token.
const backgroundIndexToken = "backgroundIndexProgress"

// Message is a decoded inbound JSON-RPC message. The three wire shapes
// are distinguished by field presence:
//
//   - Response: has ID, no Method
//   - ServerRequest: has ID and Method (no prior client request)
//   - Notification: has Method, no ID
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsResponse returns true for a reply to a client request.
func (m *Message) IsResponse() bool {
	return m.ID != nil && m.Method == ""
}

// IsServerRequest returns true for a server-initiated request that the
// client must acknowledge.
func (m *Message) IsServerRequest() bool {
	return m.ID != nil && m.Method != ""
}

// IsNotification returns true for a fire-and-forget server message.
func (m *Message) IsNotification() bool {
	return m.ID == nil && m.Method != ""
}

// decodeMessage parses a framed payload into a Message.
func decodeMessage(raw json.RawMessage) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// outMessage is the outbound JSON-RPC wire shape. Requests carry ID and
// Method; notifications carry only Method; acknowledgements of server
// requests carry ID and a literal null Result.
type outMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// envelope pairs an outbound message with whether a reply is expected.
// Envelopes are consumed exactly once by the send loop and never mutated.
type envelope struct {
	msg        outMessage
	needsReply bool
}

// pendingEntry records a transmitted request awaiting its response.
type pendingEntry struct {
	id     int64
	method string
}

// WorkDoneProgressCreateParams are the params of the
// window/workDoneProgress/create server request.
type WorkDoneProgressCreateParams struct {
	// Token is the progress token subsequent $/progress notifications
	// will reference.
	Token string `json:"token"`
}

// ProgressParams are the params of a $/progress notification.
type ProgressParams struct {
	Token string        `json:"token"`
	Value ProgressValue `json:"value"`
}

// ProgressValue is the kind-tagged payload of a progress notification.
type ProgressValue struct {
	// Kind is "begin", "report", or "end".
	Kind string `json:"kind"`

	// Title is set on "begin" values.
	Title string `json:"title,omitempty"`

	// Message is an optional human-readable detail.
	Message string `json:"message,omitempty"`

	// Percentage is the completion percentage, when reported.
	Percentage *int `json:"percentage,omitempty"`
}

// Progress value kinds.
const (
	progressKindBegin  = "begin"
	progressKindReport = "report"
	progressKindEnd    = "end"
)
