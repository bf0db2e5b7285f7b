// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import "sync"

// ledger is the ordered record of requests sent that await a matching
// response. Entries are appended in transmission order and matched
// strictly from the head; responses are assumed to arrive in request
// order (see package doc for the correlation model).
//
// The send loop appends and the read loop pops, so access is guarded
// by a mutex.
type ledger struct {
	mu      sync.Mutex
	entries []pendingEntry
}

// append adds an entry at the tail.
func (l *ledger) append(e pendingEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// peekHead returns the oldest outstanding entry without removing it.
// ok is false when the ledger is empty.
func (l *ledger) peekHead() (e pendingEntry, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return pendingEntry{}, false
	}
	return l.entries[0], true
}

// popHead removes and returns the oldest outstanding entry.
// ok is false when the ledger is empty.
func (l *ledger) popHead() (e pendingEntry, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return pendingEntry{}, false
	}
	e = l.entries[0]
	l.entries = l.entries[1:]
	return e, true
}

// size returns the number of outstanding entries.
func (l *ledger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// clear drops all outstanding entries.
func (l *ledger) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
