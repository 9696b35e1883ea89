package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/joaobarbosa/cinema-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 20*time.Second, srv.WriteTimeout)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := newServer(config.ServerConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.Addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ReportsListenErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := newServer(config.ServerConfig{}, http.NotFoundHandler())
	srv.Addr = ln.Addr().String()

	err = serve(context.Background(), srv, time.Second, zaptest.NewLogger(t))
	assert.Error(t, err)
}
