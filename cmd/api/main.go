package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonhkr/paygate/internal"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := internal.NewLogger(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := internal.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger = internal.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cfg.OpenStorage(ctx)
	if err != nil {
		logger.Error("failed to open storage", "storage", cfg.Storage, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	l, cleanup, err := listen(cfg)
	if err != nil {
		logger.Error("failed to listen", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	state := internal.NewAvailability()
	queue := internal.NewQueue[internal.PaymentRequest](cfg.QueueCapacity)

	client := internal.NewProcessorClient()
	defaultProcessor := internal.NewPaymentProcessor(internal.Default, cfg.DefaultURL, cfg.ProcessorTimeout, client)
	fallbackProcessor := internal.NewPaymentProcessor(internal.Fallback, cfg.FallbackURL, cfg.ProcessorTimeout, client)

	router := internal.NewRouter(defaultProcessor, fallbackProcessor, state, queue, store, logger)
	router.LatencyThreshold = cfg.LatencyThreshold

	monitor := internal.NewHealthMonitor(defaultProcessor, fallbackProcessor, state, logger)
	monitor.Interval = cfg.HealthInterval
	monitor.Timeout = cfg.HealthTimeout
	monitor.MaxMinResponse = cfg.HealthMaxMinResponse

	pool := internal.NewWorkerPool(cfg.Workers, internal.WorkerConfig{
		Queue:  queue,
		Router: router,
		Logger: logger,
	})

	app := internal.NewServer(queue, store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		return pool.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening", "addr", l.Addr().String())
		return app.Listener(l)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "queued", queue.Len(), "dropped", queue.Dropped())
		queue.Close()
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stopped with error", "err", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func listen(cfg *internal.Config) (net.Listener, func(), error) {
	if cfg.SocketPath == "" {
		l, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	}

	if _, err := os.Stat(cfg.SocketPath); err == nil {
		_ = os.Remove(cfg.SocketPath)
	}
	l, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return nil, nil, err
	}
	if err := os.Chmod(cfg.SocketPath, 0766); err != nil {
		_ = l.Close()
		return nil, nil, err
	}
	return l, func() {
		_ = l.Close()
		_ = os.Remove(cfg.SocketPath)
	}, nil
}
