package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartServerReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	done := make(chan error, 1)
	go func() {
		done <- startServer(context.Background(), config.ServerConfig{Addr: busy.Addr().String()},
			http.NotFoundHandler(), session.NewRegistry(), quietLogger())
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error")
	case <-time.After(5 * time.Second):
		t.Fatal("startServer did not return on a busy address")
	}
}

func TestStartServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- startServer(ctx, config.ServerConfig{Addr: "127.0.0.1:0"},
			http.NotFoundHandler(), session.NewRegistry(), quietLogger())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("startServer did not return after cancel")
	}
}
