package internal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailability_StartsPreferringDefault(t *testing.T) {
	s := NewAvailability().Snapshot()

	assert.Equal(t, AvailabilitySnapshot{PreferDefault: true, AnyServiceUp: true}, s)
	assert.Equal(t, Default, s.Preferred())
}

func TestAvailability_FieldsAreIndependent(t *testing.T) {
	a := NewAvailability()

	a.SetUp(false)
	assert.Equal(t, AvailabilitySnapshot{PreferDefault: true, AnyServiceUp: false}, a.Snapshot())

	a.SetPreferDefault(false)
	a.SetUp(true)
	assert.Equal(t, Fallback, a.Snapshot().Preferred())
}

// run with -race
func TestAvailability_ConcurrentWriters(t *testing.T) {
	a := NewAvailability()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				switch (i + j) % 3 {
				case 0:
					a.Set(j%2 == 0, true)
				case 1:
					a.SetUp(j%2 == 0)
				default:
					_ = a.Snapshot()
				}
			}
		}(i)
	}
	wg.Wait()
}
