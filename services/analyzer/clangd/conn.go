// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Queue capacities. Enqueueing blocks only while a queue is at capacity;
// a cancelled connection context releases any blocked caller.
const (
	outboundCapacity = 64
	deliveryCapacity = 128
)

// firstRequestID is the value the id counter starts from; the first
// allocated request id is firstRequestID+1.
const firstRequestID = 10

// conn owns the state of one live clangd connection: the process handle,
// the outbound channel, the delivery queue, the pending-request ledger,
// and the set of documents announced open. A conn is created by
// Client.Start and discarded on Stop; queues are never reused across
// connections.
type conn struct {
	sessionID string
	workspace string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	out     chan envelope
	inbox   chan Message
	pending *ledger

	opened   map[string]struct{}
	openedMu sync.Mutex

	nextID atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	log *slog.Logger
}

// newConn assembles a conn around a started process. The caller launches
// the loops via startLoops. The session id tags every log entry the
// connection produces.
func newConn(sessionID, workspace string, log *slog.Logger) *conn {
	c := &conn{
		sessionID: sessionID,
		workspace: workspace,
		out:       make(chan envelope, outboundCapacity),
		inbox:     make(chan Message, deliveryCapacity),
		pending:   &ledger{},
		opened:    make(map[string]struct{}),
		log:       log.With("session_id", sessionID),
	}
	c.nextID.Store(firstRequestID)
	return c
}

// startLoops launches the send and read loops under an errgroup bound to
// the connection context. The first loop to fail cancels the others, which
// releases every caller blocked on enqueue or receive.
func (c *conn) startLoops() {
	parent, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	group, ctx := errgroup.WithContext(parent)
	c.group = group
	c.ctx = ctx

	group.Go(func() error { return c.sendLoop() })
	group.Go(func() error { return c.readLoop() })
	if c.stderr != nil {
		group.Go(func() error { return c.stderrLoop() })
	}
}

// allocID returns the next request id. The counter is monotonic for the
// lifetime of the connection; overflow exhausts the id space.
func (c *conn) allocID() (int64, error) {
	id := c.nextID.Add(1)
	if id < 0 {
		return 0, ErrIDExhausted
	}
	return id, nil
}

// enqueue places an envelope on the outbound channel. It blocks only
// while the channel is at capacity; a closed connection or a cancelled
// caller context releases it with an error.
func (c *conn) enqueue(ctx context.Context, env envelope) error {
	select {
	case c.out <- env:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// receive takes the next message from the delivery queue in FIFO order,
// one entry per call. Callers blocked here are poisoned with
// ErrConnectionClosed when the connection is torn down.
func (c *conn) receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-c.ctx.Done():
		return Message{}, ErrConnectionClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// sendLoop drains the outbound channel, serializing each envelope and
// writing it framed to clangd's stdin, flushing after every message.
//
// For envelopes that expect a reply the ledger entry is appended before
// the bytes reach the pipe; a fast-replying peer could otherwise race
// the bookkeeping.
func (c *conn) sendLoop() error {
	writer := bufio.NewWriter(c.stdin)

	for {
		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		case env := <-c.out:
			data, err := json.Marshal(env.msg)
			if err != nil {
				return fmt.Errorf("marshal outbound %q: %w", env.msg.Method, err)
			}

			if env.needsReply {
				c.pending.append(pendingEntry{id: *env.msg.ID, method: env.msg.Method})
			}

			if _, err := fmt.Fprintf(writer, "%s %d\r\n\r\n", contentLengthHeader, len(data)); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			if _, err := writer.Write(data); err != nil {
				return fmt.Errorf("write body: %w", err)
			}
			if err := writer.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}

			if env.msg.Method != "" {
				c.log.Debug("message written", "method", env.msg.Method, "needs_reply", env.needsReply)
			} else if env.msg.ID != nil {
				c.log.Debug("acknowledgement written", "id", *env.msg.ID)
			}
		}
	}
}

// readLoop reframes clangd's stdout and dispatches each decoded message.
// A transport failure terminates the loop with an error, which cancels
// the connection context rather than failing silently.
func (c *conn) readLoop() error {
	framer := NewFramer(c.stdout)

	for {
		raw, err := framer.Next()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return c.ctx.Err()
			default:
			}
			return fmt.Errorf("read stream: %w", err)
		}

		msg, err := decodeMessage(raw)
		if err != nil {
			c.log.Warn("dropping undecodable payload", "error", err)
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch classifies one inbound message.
//
// Messages carrying an id are matched against the ledger head: the oldest
// outstanding request is assumed to be the one answered. When the ledger
// is empty the only recognized id-carrying message is the background-index
// workDoneProgress/create server request; everything else is dropped with
// a diagnostic. Notifications are forwarded only for $/progress, since a
// progress-consuming caller is normally blocked waiting on the delivery
// queue.
func (c *conn) dispatch(msg Message) {
	switch {
	case msg.ID != nil:
		head, ok := c.pending.peekHead()
		if !ok {
			if msg.Method == methodWorkDoneProgressCreate && progressToken(msg.Params) == backgroundIndexToken {
				c.log.Info("received background index create request", "id", *msg.ID)
				c.deliver(msg)
				return
			}
			c.log.Info("dropping unmatched message", "id", *msg.ID, "method", msg.Method)
			return
		}
		if msg.Method != "" && msg.Method != head.method {
			c.log.Info("dropping method mismatch", "got", msg.Method, "want", head.method, "id", *msg.ID)
			return
		}
		if *msg.ID != head.id {
			c.log.Info("dropping id mismatch", "got", *msg.ID, "want", head.id, "method", head.method)
			return
		}
		c.pending.popHead()
		c.log.Debug("response matched", "method", head.method, "id", head.id)
		c.deliver(msg)

	case msg.Method == methodProgress:
		c.deliver(msg)

	case msg.Method != "":
		c.log.Debug("dropping unhandled notification", "method", msg.Method)

	default:
		c.log.Debug("dropping message without id or method")
	}
}

// deliver forwards a message to the delivery queue. Blocks only while the
// queue is at capacity; a cancelled connection discards the message.
func (c *conn) deliver(msg Message) {
	select {
	case c.inbox <- msg:
	case <-c.ctx.Done():
	}
}

// stderrLoop logs clangd's stderr diagnostics at debug level.
func (c *conn) stderrLoop() error {
	scanner := bufio.NewScanner(c.stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			c.log.Debug("clangd", "line", line)
		}
	}
	// stderr closing is part of normal process shutdown.
	return nil
}

// progressToken extracts the token from workDoneProgress/create params.
// Returns "" when the params do not decode.
func progressToken(raw json.RawMessage) string {
	var params WorkDoneProgressCreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return ""
	}
	return params.Token
}
