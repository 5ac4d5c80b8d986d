package internal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigFastest

const DefaultWorkers = 5

type Dispatcher interface {
	Dispatch(ctx context.Context, pp ProcessedPayment)
}

type WorkerConfig struct {
	Queue  *Queue[PaymentRequest]
	Router Dispatcher
	Logger *slog.Logger
}

type Worker struct {
	id     int
	config WorkerConfig
	wg     *sync.WaitGroup
}

func NewWorker(id int, config WorkerConfig, wg *sync.WaitGroup) *Worker {
	return &Worker{
		id:     id,
		config: config,
		wg:     wg,
	}
}

// Run takes payments until the queue is closed and drained or ctx is done.
// A dispatch that already started is not interrupted by ctx.
func (w *Worker) Run(ctx context.Context) {
	defer w.wg.Done()
	logger := w.config.Logger.With("worker", w.id)
	logger.Debug("starting worker")

	dispatchCtx := context.WithoutCancel(ctx)
	for {
		request, err := w.config.Queue.Take(ctx)
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				logger.Error("failed to take payment", "err", err)
			}
			logger.Debug("worker stopped")
			return
		}

		w.config.Router.Dispatch(dispatchCtx, ProcessedPayment{
			CorrelationId: request.CorrelationId,
			Amount:        request.Amount,
			RequestedAt:   time.Now().UTC(),
		})
	}
}

// WorkerPool runs a fixed number of workers over one queue.
type WorkerPool struct {
	size   int
	config WorkerConfig
}

func NewWorkerPool(size int, config WorkerConfig) *WorkerPool {
	if size < 1 {
		size = DefaultWorkers
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &WorkerPool{size: size, config: config}
}

func (p *WorkerPool) Size() int {
	return p.size
}

// Run starts the workers and blocks until all of them have returned.
func (p *WorkerPool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	p.config.Logger.Info("starting workers", "workers", p.size)
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go NewWorker(i, p.config, &wg).Run(ctx)
	}
	wg.Wait()

	if left := p.config.Queue.Len(); left > 0 {
		p.config.Logger.Warn("discarding queued payments", "count", left)
	}
	return nil
}
