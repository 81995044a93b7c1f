package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "BiasLens/pkg/http"
	applogger "BiasLens/pkg/logger"
)

// Resource is an infrastructure client closed on shutdown.
type Resource struct {
	Name   string
	Closer io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	httpServer      *xhttp.Server
	log             *applogger.Logger
	resources       []Resource
	shutdownTimeout time.Duration
	signals         []os.Signal
}

// New creates a new App. Resources are closed in reverse order after the HTTP server stops;
// entries with a nil Closer are skipped.
func New(srv *xhttp.Server, l *applogger.Logger, resources ...Resource) *App {
	if l == nil {
		l = applogger.Nop()
	}
	kept := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.Closer != nil {
			kept = append(kept, r)
		}
	}
	return &App{
		httpServer:      srv,
		log:             l,
		resources:       kept,
		shutdownTimeout: srv.ShutdownTimeout(),
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// Run starts the HTTP server and blocks until ctx is done, an interrupt arrives or the
// server fails. A bind failure is returned after the resources are released.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		_ = a.closeResources()
		return err
	}

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-a.httpServer.Errors():
		a.log.Error("http server stopped unexpectedly", applogger.Error(err))
		_ = a.Shutdown()
		return err
	}
}

// Shutdown stops the HTTP server then releases every resource.
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	if err := a.closeResources(); err != nil && firstErr == nil {
		firstErr = err
	}

	a.log.Info("shutdown complete")
	return firstErr
}

// closeResources closes in reverse registration order and keeps going past failures.
func (a *App) closeResources() error {
	var firstErr error
	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if err := r.Closer.Close(); err != nil {
			a.log.Warn("resource close error", applogger.String("resource", r.Name), applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		a.log.Debug("resource closed", applogger.String("resource", r.Name))
	}
	return firstErr
}
