package internal

import "sync/atomic"

// Availability is the process wide view of which processor to try first and
// whether any processor is reachable. Fields are written independently by
// the health monitor and the workers; last writer wins per field.
type Availability struct {
	preferDefault atomic.Bool
	up            atomic.Bool
}

type AvailabilitySnapshot struct {
	PreferDefault bool
	AnyServiceUp  bool
}

func NewAvailability() *Availability {
	a := &Availability{}
	a.preferDefault.Store(true)
	a.up.Store(true)
	return a
}

func (a *Availability) Snapshot() AvailabilitySnapshot {
	return AvailabilitySnapshot{
		PreferDefault: a.preferDefault.Load(),
		AnyServiceUp:  a.up.Load(),
	}
}

func (a *Availability) Set(preferDefault, up bool) {
	a.preferDefault.Store(preferDefault)
	a.up.Store(up)
}

func (a *Availability) SetPreferDefault(v bool) {
	a.preferDefault.Store(v)
}

func (a *Availability) SetUp(v bool) {
	a.up.Store(v)
}

// Preferred is the processor to attempt first.
func (s AvailabilitySnapshot) Preferred() ProcessorId {
	if s.PreferDefault {
		return Default
	}
	return Fallback
}
