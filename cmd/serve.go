package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/pitchlog/internal/server"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP surface until interrupted.
//
// A failed initial taxonomy load does not stop the server; /readyz reports unavailable until a reload succeeds.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := r.taxonomyStore(ctx)
	if err != nil {
		return err
	}
	if _, err := store.Load(ctx); err != nil {
		r.logger.Warn("initial taxonomy load failed", "error", err)
	}

	eventLog, err := r.eventLog()
	if err != nil {
		return err
	}

	go func() {
		if err := store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("taxonomy watch stopped", "error", err)
		}
	}()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	srv := &http.Server{
		Addr: addr,
		Handler: server.New(server.Deps{
			Events:   eventLog,
			Taxonomy: store,
			Metrics:  r.metrics,
			Logger:   shared.WithLogger(r.logger, "component", "http"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
