package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cloudcanvas/app/config"
	"cloudcanvas/app/controllers"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/repositories/instrument"
	"cloudcanvas/app/routes"
	"cloudcanvas/app/viewmodels"
	"cloudcanvas/app/views"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// NewHandler wires store, view models and routes into the HTTP handler. Store
// metrics and the Go runtime collectors are registered with reg.
func NewHandler(store repositories.Store, opts *config.Options, reg *prometheus.Registry, logger *zap.Logger) (http.Handler, error) {
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}
	metrics, err := instrument.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register store metrics: %w", err)
	}

	pages, err := views.New(nil)
	if err != nil {
		return nil, err
	}

	deps := controllers.Dependencies{
		Store:  instrument.Wrap(store, metrics),
		Prober: viewmodels.NewHTTPImageProber(opts.PreviewTimeout),
		Views:  pages,
		Logger: logger,
	}
	return routes.SetupRoutes(deps, routes.Options{Gatherer: reg}), nil
}

// Run opens the configured store and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, opts *config.Options, logger *zap.Logger) error {
	store, err := OpenStore(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	handler, err := NewHandler(store, opts, prometheus.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.Listen, err)
	}
	logger.Info("starting cloud canvas",
		zap.String("listen", ln.Addr().String()),
		zap.String("store", opts.Store.Driver),
	)
	return Serve(ctx, &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}, ln, opts.ShutdownTimeout, logger)
}

// Serve runs srv on ln until ctx is cancelled, then shuts it down within
// timeout.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
