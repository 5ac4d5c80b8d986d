package internal

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultAttemptTimeout   = 300 * time.Millisecond
	DefaultLatencyThreshold = 100 * time.Millisecond
)

// Processor accepts payments on behalf of one upstream service.
type Processor interface {
	Process(ctx context.Context, pp ProcessedPayment) error
}

// Requeuer takes back payments that could not be delivered.
type Requeuer interface {
	Add(PaymentRequest) error
}

// Router delivers a payment to the preferred processor, fails over to the
// other one and keeps Availability in line with what it observed.
type Router struct {
	Processors       map[ProcessorId]Processor
	State            *Availability
	Queue            Requeuer
	Store            Storage
	LatencyThreshold time.Duration
	Logger           *slog.Logger

	now func() time.Time
}

func NewRouter(defaultProcessor, fallbackProcessor Processor, state *Availability, queue Requeuer, store Storage, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		Processors: map[ProcessorId]Processor{
			Default:  defaultProcessor,
			Fallback: fallbackProcessor,
		},
		State:            state,
		Queue:            queue,
		Store:            store,
		LatencyThreshold: DefaultLatencyThreshold,
		Logger:           logger,
		now:              time.Now,
	}
}

// Dispatch runs one delivery round for pp. It never returns an error: the
// payment is either persisted or handed back to the queue.
func (r *Router) Dispatch(ctx context.Context, pp ProcessedPayment) {
	state := r.State.Snapshot()
	if !state.AnyServiceUp {
		r.requeue(pp)
		return
	}

	primary := state.Preferred()
	for _, id := range [2]ProcessorId{primary, primary.Other()} {
		if r.attempt(ctx, id, pp) {
			return
		}
	}

	r.State.SetUp(false)
	r.requeue(pp)
}

func (r *Router) attempt(ctx context.Context, id ProcessorId, pp ProcessedPayment) bool {
	start := r.now()
	err := r.Processors[id].Process(ctx, pp)
	latency := r.now().Sub(start)
	if err != nil {
		r.Logger.Debug("payment attempt failed",
			"correlationId", pp.CorrelationId, "processor", id.Name(), "err", err)
		return false
	}

	r.State.SetUp(true)
	if latency > r.LatencyThreshold {
		// slow success: prefer the processor that was not just used
		r.State.SetPreferDefault(id == Fallback)
	}

	pp.Processor = id
	if err := r.Store.Save(ctx, pp); err != nil {
		r.Logger.Error("failed to save payment",
			"correlationId", pp.CorrelationId, "processor", id.Name(), "err", err)
	}
	return true
}

func (r *Router) requeue(pp ProcessedPayment) {
	if err := r.Queue.Add(pp.Request()); err != nil {
		r.Logger.Warn("payment dropped, queue closed", "correlationId", pp.CorrelationId, "err", err)
	}
}
