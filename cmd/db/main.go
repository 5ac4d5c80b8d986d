package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonhkr/paygate/internal"
)

func main() {
	cfg, err := internal.LoadConfig()
	if err != nil {
		internal.NewLogger(os.Stdout, "").Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := internal.NewLogger(os.Stdout, cfg.LogLevel)
	socketPath := cfg.DBSocketPath

	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		logger.Error("failed to listen on socket", "socket", socketPath, "err", err)
		os.Exit(1)
	}
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0766); err != nil {
		logger.Error("failed to chmod socket", "socket", socketPath, "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Handler: internal.NewStorageHandler(internal.NewMemStorage(), logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "socket", socketPath)
	if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
	}
}
