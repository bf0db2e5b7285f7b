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
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of the analyzer process.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Client manages a clangd subprocess for one workspace at a time:
// spawning it, performing the initialize and background-index handshakes,
// and exchanging framed messages over its stdio.
//
// All methods are safe for concurrent use. Start and Stop serialize with
// each other; request methods fail with ErrNotRunning unless the client
// has reached StateRunning.
type Client struct {
	cfg Config
	log *slog.Logger

	// lifecycleMu serializes Start, Stop, and Restart end to end.
	lifecycleMu sync.Mutex

	// stateMu guards state and conn for readers.
	stateMu sync.RWMutex
	state   State
	conn    *conn
}

// NewClient returns a stopped client. A nil logger falls back to
// slog.Default.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log}
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Workspace returns the workspace of the running connection, or "" when
// stopped.
func (c *Client) Workspace() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.conn == nil {
		return ""
	}
	return c.conn.workspace
}

func (c *Client) current() *conn {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.conn
}

func (c *Client) running() *conn {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.state != StateRunning {
		return nil
	}
	return c.conn
}

func (c *Client) setConn(cn *conn, s State) {
	c.stateMu.Lock()
	c.conn = cn
	c.state = s
	c.stateMu.Unlock()
}

// Start spawns clangd for the given workspace and blocks until background
// indexing completes. Starting the already-running workspace is a no-op;
// starting a different workspace stops the current process first.
func (c *Client) Start(ctx context.Context, workspace string) error {
	if strings.TrimSpace(workspace) == "" {
		return ErrEmptyWorkspace
	}
	ws, err := filepath.Abs(workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	info, err := os.Stat(ws)
	if err != nil {
		return fmt.Errorf("workspace %s: %w", ws, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s: not a directory", ws)
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if cur := c.current(); cur != nil {
		if cur.workspace == ws {
			c.log.Info("analyzer already running", "workspace", ws)
			return nil
		}
		c.log.Info("switching workspace", "from", cur.workspace, "to", ws)
		c.teardown(cur)
	}

	c.setConn(nil, StateStarting)
	if err := c.start(ctx, ws); err != nil {
		c.setConn(nil, StateStopped)
		return err
	}
	return nil
}

// Stop terminates the analyzer process. Stopping a stopped client is a
// no-op. Callers blocked on in-flight requests are released with
// ErrConnectionClosed.
func (c *Client) Stop() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	cn := c.current()
	if cn == nil {
		return nil
	}
	c.teardown(cn)
	c.setConn(nil, StateStopped)
	c.log.Info("analyzer stopped", "workspace", cn.workspace)
	return nil
}

// Restart stops the analyzer and starts it again for the same workspace.
func (c *Client) Restart(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	cn := c.current()
	if cn == nil {
		return ErrNotRunning
	}
	ws := cn.workspace
	c.log.Info("restarting analyzer", "workspace", ws)
	c.teardown(cn)

	c.setConn(nil, StateStarting)
	if err := c.start(ctx, ws); err != nil {
		c.setConn(nil, StateStopped)
		return err
	}
	return nil
}

// start performs the full startup sequence for one workspace. Callers
// hold lifecycleMu. On error the partially-started connection is torn
// down before returning.
func (c *Client) start(ctx context.Context, ws string) error {
	binary, err := exec.LookPath(c.cfg.Binary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClangdNotInstalled, err)
	}
	if err := checkVersion(ctx, binary, c.cfg.MinVersion, c.log); err != nil {
		return err
	}

	// Fail before spawning when the workspace has nothing to index.
	dbPath, err := LocateDatabase(ws)
	if err != nil {
		return err
	}
	db, err := LoadDatabase(dbPath)
	if err != nil {
		return err
	}

	initParams, err := loadInitParams(c.cfg.InitParamsPath)
	if err != nil {
		return err
	}

	cn := newConn(uuid.NewString(), ws, c.log.With("workspace", ws))

	cmd := exec.Command(binary, c.cfg.Args...)
	cmd.Dir = ws
	if cn.stdin, err = cmd.StdinPipe(); err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if cn.stdout, err = cmd.StdoutPipe(); err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if cn.stderr, err = cmd.StderrPipe(); err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		recordSpawn(ctx, false)
		return fmt.Errorf("spawn %s: %w", binary, err)
	}
	cn.cmd = cmd
	cn.startLoops()
	recordSpawn(ctx, true)
	started := time.Now()
	c.log.Info("clangd spawned", "binary", binary, "pid", cmd.Process.Pid, "database", dbPath)

	sctx := ctx
	if c.cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, c.cfg.StartupTimeout)
		defer cancel()
	}

	if _, err := c.requestOn(sctx, cn, methodInitialize, initParams); err != nil {
		c.teardown(cn)
		return fmt.Errorf("initialize: %w", err)
	}
	if err := c.notifyOn(sctx, cn, methodInitialized, struct{}{}); err != nil {
		c.teardown(cn)
		return fmt.Errorf("initialized: %w", err)
	}

	// Opening the first translation unit is what nudges clangd into
	// background-indexing the workspace.
	if _, err := c.openDocumentOn(sctx, cn, db.First()); err != nil {
		c.teardown(cn)
		return fmt.Errorf("open first translation unit: %w", err)
	}
	if err := c.awaitBackgroundIndex(sctx, cn); err != nil {
		c.teardown(cn)
		return err
	}
	recordIndexDuration(ctx, time.Since(started))

	c.setConn(cn, StateRunning)
	c.log.Info("analyzer ready", "workspace", ws, "elapsed", time.Since(started))
	return nil
}

// teardown cancels the connection, releases blocked callers, and reaps
// the process: SIGTERM, then SIGKILL after the configured grace period.
func (c *Client) teardown(cn *conn) {
	cn.cancel()
	if cn.stdin != nil {
		_ = cn.stdin.Close()
	}

	if cn.cmd != nil && cn.cmd.Process != nil {
		_ = cn.cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan error, 1)
		go func() { done <- cn.cmd.Wait() }()

		grace := c.cfg.ShutdownGrace
		if grace <= 0 {
			grace = 5 * time.Second
		}
		select {
		case <-done:
		case <-time.After(grace):
			c.log.Warn("clangd did not exit, killing", "pid", cn.cmd.Process.Pid)
			_ = cn.cmd.Process.Kill()
			<-done
		}
	}

	// Unblock the read loop when no process is holding the other end.
	if cn.stdout != nil {
		_ = cn.stdout.Close()
	}

	_ = cn.group.Wait()
	cn.pending.clear()
}

// SendRequest sends a request and blocks until its response arrives.
// The configured request timeout, when set, bounds the wait in addition
// to the caller's context. A response carrying a protocol error is
// returned along with that error.
func (c *Client) SendRequest(ctx context.Context, method string, params any) (Message, error) {
	cn := c.running()
	if cn == nil {
		return Message{}, ErrNotRunning
	}
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	return c.requestOn(ctx, cn, method, params)
}

// SendNotification sends a fire-and-forget notification.
func (c *Client) SendNotification(ctx context.Context, method string, params any) error {
	cn := c.running()
	if cn == nil {
		return ErrNotRunning
	}
	return c.notifyOn(ctx, cn, method, params)
}

// OpenDocument announces a file to clangd via didOpen, once per path for
// the lifetime of the connection. Repeat calls for an already-open path
// are no-ops. Returns the absolute path used as the tracking key.
func (c *Client) OpenDocument(ctx context.Context, path string) (string, error) {
	cn := c.running()
	if cn == nil {
		return "", ErrNotRunning
	}
	return c.openDocumentOn(ctx, cn, path)
}

// CloseDocument retracts a previously opened document via didClose.
func (c *Client) CloseDocument(ctx context.Context, path string) error {
	cn := c.running()
	if cn == nil {
		return ErrNotRunning
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve document path: %w", err)
	}

	cn.openedMu.Lock()
	if _, ok := cn.opened[abs]; !ok {
		cn.openedMu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOpened, abs)
	}
	delete(cn.opened, abs)
	cn.openedMu.Unlock()

	params := DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: pathToURI(abs)},
	}
	return c.notifyOn(ctx, cn, methodDidClose, params)
}

// requestOn allocates an id, enqueues the request, and waits for the
// matched response. Interleaved progress notifications on the delivery
// queue are skipped, not consumed as answers.
func (c *Client) requestOn(ctx context.Context, cn *conn, method string, params any) (Message, error) {
	id, err := cn.allocID()
	if err != nil {
		return Message{}, err
	}
	env := envelope{
		msg:        outMessage{JSONRPC: jsonrpcVersion, ID: &id, Method: method, Params: params},
		needsReply: true,
	}

	start := time.Now()
	if err := cn.enqueue(ctx, env); err != nil {
		recordRequest(ctx, method, time.Since(start), false)
		return Message{}, err
	}

	for {
		msg, err := cn.receive(ctx)
		if err != nil {
			recordRequest(ctx, method, time.Since(start), false)
			return Message{}, err
		}
		if !msg.IsResponse() {
			cn.log.Debug("skipping interleaved message while awaiting response", "method", msg.Method)
			continue
		}
		recordRequest(ctx, method, time.Since(start), msg.Error == nil)
		if msg.Error != nil {
			return msg, fmt.Errorf("%s: %w", method, msg.Error)
		}
		return msg, nil
	}
}

// notifyOn enqueues a notification without a ledger entry.
func (c *Client) notifyOn(ctx context.Context, cn *conn, method string, params any) error {
	env := envelope{
		msg: outMessage{JSONRPC: jsonrpcVersion, Method: method, Params: params},
	}
	return cn.enqueue(ctx, env)
}

// openDocumentOn sends didOpen for a path not yet announced on this
// connection. The path is claimed in the opened set before the send so
// concurrent opens of the same file produce exactly one didOpen.
func (c *Client) openDocumentOn(ctx context.Context, cn *conn, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve document path: %w", err)
	}

	cn.openedMu.Lock()
	if _, ok := cn.opened[abs]; ok {
		cn.openedMu.Unlock()
		cn.log.Debug("document already open", "path", abs)
		return abs, nil
	}
	cn.opened[abs] = struct{}{}
	cn.openedMu.Unlock()

	unclaim := func() {
		cn.openedMu.Lock()
		delete(cn.opened, abs)
		cn.openedMu.Unlock()
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		unclaim()
		return "", fmt.Errorf("read document: %w", err)
	}

	params := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        pathToURI(abs),
			LanguageID: languageIDForPath(abs),
			Version:    1,
			Text:       string(data),
		},
	}
	if err := c.notifyOn(ctx, cn, methodDidOpen, params); err != nil {
		unclaim()
		return "", err
	}
	cn.log.Debug("document opened", "path", abs, "language", params.TextDocument.LanguageID)
	return abs, nil
}
