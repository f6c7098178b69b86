package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpsp-digital/jurist-prompts-hub/internal/app"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/bootstrap"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := logger.Init(); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()
	lg := logger.S().With("component", "main")

	resources, err := app.Bootstrap(ctx, lg)
	if err != nil {
		lg.Fatalw("bootstrap failed", "error", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			lg.Errorw("resource cleanup error", "error", err)
		}
	}()

	application, err := bootstrap.BuildApplication(ctx, lg, resources)
	if err != nil {
		lg.Fatalw("application wiring failed", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + resources.Flags.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Infow("http server listening", "addr", srv.Addr, "mode", resources.Flags.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorw("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("graceful shutdown failed", "error", err)
	}
}
