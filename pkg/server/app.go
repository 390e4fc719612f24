package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"
)

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// Option configures App.
type Option func(*App)

// WithStartHook runs fn before the HTTP server starts. A failing hook
// aborts startup.
func WithStartHook(name string, fn func(ctx context.Context) error) Option {
	return func(a *App) { a.hooks = append(a.hooks, hook{name: name, fn: fn}) }
}

// WithCloser registers a resource closed after the server stops, in
// reverse registration order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, closer{name: name, fn: fn}) }
}

// App encapsulates the process lifecycle: start hooks, HTTP server, signal
// handling and ordered shutdown.
type App struct {
	name    string
	server  *xhttp.Server
	logger  *applogger.Logger
	hooks   []hook
	closers []closer
}

// New creates an App around an HTTP server.
func New(name string, srv *xhttp.Server, l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{name: name, server: srv, logger: l.With(applogger.String("app", name))}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done or the
// server fails.
func (a *App) RunContext(ctx context.Context) error {
	for _, h := range a.hooks {
		if err := h.fn(ctx); err != nil {
			a.close()
			return fmt.Errorf("start hook %s: %w", h.name, err)
		}
		a.logger.Debug("start hook done", applogger.String("hook", h.name))
	}

	if err := a.server.Start(); err != nil {
		a.close()
		return err
	}
	a.logger.Info("app started")

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-a.server.Errors():
		a.logger.Error("server failed", applogger.Error(runErr))
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.server.ShutdownTimeout())
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	a.close()
	a.logger.Info("shutdown complete")
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}
	a.closers = nil
}
