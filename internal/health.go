package internal

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultHealthInterval = 5 * time.Second
	DefaultHealthTimeout  = time.Second
	DefaultMaxMinResponse = 20
)

type HealthChecker interface {
	HealthStatus(ctx context.Context) (HealthStatus, error)
}

// HealthMonitor probes both processors on a fixed cadence and overwrites
// whatever the workers inferred about them.
type HealthMonitor struct {
	Default  HealthChecker
	Fallback HealthChecker
	State    *Availability
	Interval time.Duration
	Timeout  time.Duration
	// MaxMinResponse is the highest advertised minResponseTime, in
	// milliseconds, for which the default processor is preferred.
	MaxMinResponse int
	Logger         *slog.Logger
}

func NewHealthMonitor(defaultChecker, fallbackChecker HealthChecker, state *Availability, logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{
		Default:        defaultChecker,
		Fallback:       fallbackChecker,
		State:          state,
		Interval:       DefaultHealthInterval,
		Timeout:        DefaultHealthTimeout,
		MaxMinResponse: DefaultMaxMinResponse,
		Logger:         logger,
	}
}

// Run checks until ctx is done, sleeping Interval between cycles.
func (m *HealthMonitor) Run(ctx context.Context) error {
	m.Logger.Info("starting health monitor", "interval", m.Interval)
	for {
		m.Check(ctx)

		select {
		case <-ctx.Done():
			m.Logger.Info("health monitor stopped")
			return nil
		case <-time.After(m.Interval):
		}
	}
}

// Check runs a single probe cycle and stores its verdict.
func (m *HealthMonitor) Check(ctx context.Context) AvailabilitySnapshot {
	before := m.State.Snapshot()
	next := AvailabilitySnapshot{}

	if hs, ok := m.probe(ctx, Default, m.Default); ok && !hs.Failing && hs.MinResponseTime <= m.MaxMinResponse {
		next = AvailabilitySnapshot{PreferDefault: true, AnyServiceUp: true}
	} else if hs, ok := m.probe(ctx, Fallback, m.Fallback); ok && !hs.Failing {
		next = AvailabilitySnapshot{PreferDefault: false, AnyServiceUp: true}
	}

	m.State.Set(next.PreferDefault, next.AnyServiceUp)
	if next != before {
		m.Logger.Info("availability changed",
			"preferDefault", next.PreferDefault, "anyServiceUp", next.AnyServiceUp)
	}
	return next
}

func (m *HealthMonitor) probe(ctx context.Context, id ProcessorId, checker HealthChecker) (HealthStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	hs, err := checker.HealthStatus(ctx)
	if err != nil {
		m.Logger.Debug("health probe failed", "processor", id.Name(), "err", err)
		return hs, false
	}
	m.Logger.Debug("health probe", "processor", id.Name(),
		"failing", hs.Failing, "minResponseTime", hs.MinResponseTime)
	return hs, true
}
