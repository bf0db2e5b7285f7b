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
	"time"

	"golang.org/x/time/rate"
)

// indexPhase is the phase of the background-index handshake.
type indexPhase int

const (
	// phaseAwaitingCreate: nothing received yet; the only acceptable
	// message is the workDoneProgress/create server request.
	phaseAwaitingCreate indexPhase = iota
	// phaseReporting: create acknowledged; consuming $/progress
	// notifications until the end report.
	phaseReporting
	// phaseDone: the end report arrived; indexing is complete.
	phaseDone
)

// progressLogInterval throttles per-report progress logging; clangd can
// emit reports far faster than anyone wants them logged.
const progressLogInterval = 500 * time.Millisecond

// indexProgress tracks one background-indexing run.
type indexProgress struct {
	phase      indexPhase
	token      string
	percentage int
}

// awaitBackgroundIndex drives the background-index handshake to
// completion. The first delivered message must be the
// workDoneProgress/create server request for the background index token;
// anything else means the protocol assumption is broken and startup
// aborts. The create request is acknowledged with a null result, then
// $/progress reports are consumed until the end report. An end report
// always leaves the percentage at 100, whatever the last report said.
func (c *Client) awaitBackgroundIndex(ctx context.Context, cn *conn) error {
	msg, err := cn.receive(ctx)
	if err != nil {
		return fmt.Errorf("%w: waiting for index create request: %v", ErrHandshakeFailed, err)
	}
	if !msg.IsServerRequest() || msg.Method != methodWorkDoneProgressCreate {
		return fmt.Errorf("%w: expected %s, got method=%q id=%v",
			ErrHandshakeFailed, methodWorkDoneProgressCreate, msg.Method, msg.ID)
	}

	var createParams WorkDoneProgressCreateParams
	if err := json.Unmarshal(msg.Params, &createParams); err != nil {
		return fmt.Errorf("%w: decode create params: %v", ErrHandshakeFailed, err)
	}

	// Acknowledge with an explicit null result so clangd starts
	// reporting.
	ack := envelope{msg: outMessage{
		JSONRPC: jsonrpcVersion,
		ID:      msg.ID,
		Result:  json.RawMessage("null"),
	}}
	if err := cn.enqueue(ctx, ack); err != nil {
		return fmt.Errorf("%w: acknowledge create request: %v", ErrHandshakeFailed, err)
	}

	prog := indexProgress{phase: phaseReporting, token: createParams.Token}
	limiter := rate.NewLimiter(rate.Every(progressLogInterval), 1)
	started := time.Now()
	cn.log.Info("background indexing started", "token", prog.token)

	for prog.phase != phaseDone {
		msg, err := cn.receive(ctx)
		if err != nil {
			return fmt.Errorf("%w: during index reporting: %v", ErrHandshakeFailed, err)
		}
		if !msg.IsNotification() || msg.Method != methodProgress {
			// Stray messages while reporting are skipped, not fatal.
			cn.log.Warn("unexpected message during index reporting", "method", msg.Method)
			continue
		}

		var pp ProgressParams
		if err := json.Unmarshal(msg.Params, &pp); err != nil {
			cn.log.Warn("undecodable progress params", "error", err)
			continue
		}
		if pp.Token != prog.token {
			cn.log.Debug("progress for foreign token", "token", pp.Token)
			continue
		}

		switch pp.Value.Kind {
		case progressKindBegin:
			cn.log.Info("indexing", "title", pp.Value.Title)
		case progressKindReport:
			if pp.Value.Percentage != nil {
				prog.percentage = *pp.Value.Percentage
			}
			if limiter.Allow() {
				cn.log.Info("indexing progress",
					"percentage", prog.percentage, "message", pp.Value.Message)
			}
		case progressKindEnd:
			prog.percentage = 100
			prog.phase = phaseDone
		default:
			cn.log.Debug("unknown progress kind", "kind", pp.Value.Kind)
		}
	}

	cn.log.Info("background indexing complete",
		"percentage", prog.percentage, "elapsed", time.Since(started))
	return nil
}
