package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"cloudcanvas/app/config"
	"cloudcanvas/app/repositories/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewHandler(t *testing.T) {
	store, err := memory.NewSeededStore(context.Background(), time.Now())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	handler, err := NewHandler(store, config.DefaultOptions(), reg, zap.NewNop())
	require.NoError(t, err)

	srv := &http.Server{Handler: handler}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, srv, ln, time.Second, zap.NewNop())
	}()

	base := "http://" + ln.Addr().String()
	for path, want := range map[string]string{
		"/health":    `"status":"ok"`,
		"/api/posts": `"title":"Dragon Breathing Fire"`,
		"/metrics":   "cloudcanvas_store_operations_total",
	} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewHandlerRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewHandler(memory.NewStore(), config.DefaultOptions(), reg, zap.NewNop())
	require.NoError(t, err)

	_, err = NewHandler(memory.NewStore(), config.DefaultOptions(), reg, zap.NewNop())
	assert.ErrorContains(t, err, "failed to register go collector")
}

func TestServeListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = Serve(context.Background(), &http.Server{}, ln, time.Second, zap.NewNop())
	assert.ErrorContains(t, err, "server error")
}
