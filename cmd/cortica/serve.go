package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/becomeliminal/cortica-go/server"
)

type ServeCmd struct {
	Addr        string   `help:"Listen address." default:":8080" env:"CORTICA_ADDR"`
	AllowOrigin []string `help:"Origins allowed to open a WebSocket (any origin when set to *)."`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	d, err := newDeps(ctx, g, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	opts := []server.Option{server.WithLogger(logger)}
	if len(c.AllowOrigin) > 0 {
		opts = append(opts, server.WithCheckOrigin(c.checkOrigin))
	}

	srv, err := server.New(ctx, d.NewCortex, opts...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", c.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "sessions", srv.Sessions())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (c *ServeCmd) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range c.AllowOrigin {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
