package core

import "sync/atomic"

// ClockSource returns the free-running microsecond counter of the target.
// It is read from interrupt context and must be cheap.
type ClockSource func() uint32

var (
	clockSource ClockSource

	// Fallback time for hosts without a hardware counter (tests, simulation)
	systemMicros uint32
)

// SetClockSource registers the platform microsecond counter
func SetClockSource(src ClockSource) {
	clockSource = src
}

// Now returns the current time in microseconds
func Now() uint32 {
	if clockSource != nil {
		return clockSource()
	}
	return atomic.LoadUint32(&systemMicros)
}

// SetTime sets the fallback clock (for testing/simulation)
func SetTime(us uint32) {
	atomic.StoreUint32(&systemMicros, us)
}

// AdvanceTime moves the fallback clock forward by us microseconds
func AdvanceTime(us uint32) {
	atomic.AddUint32(&systemMicros, us)
}
