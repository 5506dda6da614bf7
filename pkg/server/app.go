package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "pendlescope/internal/domain/repository"
	"pendlescope/internal/stream"
	"pendlescope/internal/usecase"
	"pendlescope/pkg/config"
	xhttp "pendlescope/pkg/http"
	applogger "pendlescope/pkg/logger"
)

// App encapsulates the entire application lifecycle: the refresh loop,
// the HTTP server, and orderly teardown of the infrastructure clients.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	refresher  *usecase.Refresher
	handler    xhttp.Handler
	store      drepo.HistoryStore    // nil when persistence is disabled
	publisher  drepo.SignalPublisher // nil when the event topic is disabled
	hub        *stream.Hub
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	refresher *usecase.Refresher,
	handler xhttp.Handler,
	store drepo.HistoryStore,
	publisher drepo.SignalPublisher,
	hub *stream.Hub,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		refresher: refresher,
		handler:   handler,
		store:     store,
		publisher: publisher,
		hub:       hub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.refresher.Start(ctx)
	a.l.Info("refresher started",
		applogger.Any("chains", a.cfg.Pendle.Chains),
		applogger.Duration("interval_ms", a.cfg.Pendle.RefreshInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.l.Warn("history store close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
