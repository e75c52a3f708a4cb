// Package integration exercises a running daemon through its HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/daemon"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// harness is a daemon serving its API on a loopback port.
type harness struct {
	t      *testing.T
	d      *daemon.Daemon
	base   string
	client *http.Client
}

// freeAddr returns a loopback address nothing listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// startDaemon runs a daemon with a fast tick until the test ends.
func startDaemon(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	db := filepath.Join(t.TempDir(), "steptimer.db")
	cfg.Storage.Path = db
	cfg.Storage.JournalPath = db
	cfg.API.Listen = freeAddr(t)
	cfg.Engine.Tick = 10 * time.Millisecond
	cfg.Metrics.Enabled = true

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := daemon.New(context.Background(), cfg, daemon.Options{Logger: log})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("daemon failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}

	h := &harness{t: t, d: d, base: "http://" + cfg.API.Listen, client: &http.Client{Timeout: 5 * time.Second}}
	require.Eventually(t, func() bool {
		resp, err := h.client.Get(h.base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "API did not come up")
	return h
}

func (h *harness) addTimer(name string, steps ...timer.Element) int64 {
	h.t.Helper()
	id, err := h.d.Store().AddTimer(context.Background(), timer.New(name, 1, steps...))
	require.NoError(h.t, err)
	return id
}

// do sends a request and returns the status and the data field of the response.
func (h *harness) do(method, path string, body any) (int, json.RawMessage) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.base+path, reader)
	require.NoError(h.t, err)
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &envelope), string(raw))
	}
	return resp.StatusCode, envelope.Data
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
