package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "AethFlow/internal/domain/repository"
	"AethFlow/pkg/config"
	xhttp "AethFlow/pkg/http"
	applogger "AethFlow/pkg/logger"
	"AethFlow/pkg/queue"
)

// App owns the application lifecycle: worker pool, HTTP server, and the
// infrastructure clients that need closing on the way down.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	dispatcher *queue.Dispatcher
	handler    xhttp.Handler
	httpServer *xhttp.Server

	archive    drepo.RecordArchive // nil when archiving is disabled
	events     drepo.EventPublisher
	cacheClose func()
}

// New creates an App. Either of archive and events may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	dispatcher *queue.Dispatcher,
	handler xhttp.Handler,
	archive drepo.RecordArchive,
	events drepo.EventPublisher,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		dispatcher: dispatcher,
		handler:    handler,
		archive:    archive,
		events:     events,
	}
}

// SetCacheCloser registers a shutdown hook for the registry cache backend.
func (a *App) SetCacheCloser(fn func()) { a.cacheClose = fn }

// Run starts the worker pool and HTTP server, then blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.dispatcher.Start(ctx)
	a.logger.Info("dispatcher started",
		applogger.Int("workers", a.cfg.Queue.Workers),
		applogger.Int("queue_size", a.cfg.Queue.QueueSize),
	)

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first, then drains in-flight jobs, then closes
// infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.dispatcher.Stop(shutdownCtx); err != nil {
		a.logger.Warn("dispatcher stop error", applogger.Error(err))
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.cacheClose != nil {
		a.cacheClose()
	}

	a.logger.Info("shutdown complete")
	return nil
}
