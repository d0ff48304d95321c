package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boardkeep/tabletop-league/internal/app"
	"github.com/boardkeep/tabletop-league/internal/config"
	"github.com/boardkeep/tabletop-league/internal/observability"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	srv, cleanup, err := app.NewHTTPServer(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	if err := cleanup(); err != nil {
		logger.Error("close storage", "error", err)
	}
	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopPyroscope(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := shutdownUptrace(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}

	logger.Info("http server stopped")
}
