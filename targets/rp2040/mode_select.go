//go:build rp2040

package main

import "thyristor/core"

// Board wiring
const (
	syncPin      core.GPIOPin = 6 // zero-cross detector output
	benchSyncPin              = 7 // PIO sync generator, jumper to syncPin on the bench
)

// loadPins are the gate outputs, created in this order at boot
var loadPins = [...]core.GPIOPin{2, 3, 4, 5}

// ModeConfig determines how the firmware runs
type ModeConfig struct {
	// MainsHz selects the half-cycle timing (50 or 60)
	MainsHz uint32

	// BenchSync generates the zero-cross with PIO instead of mains.
	// Jumper benchSyncPin to syncPin.
	BenchSync bool

	// Sweep ramps every load between off and full on, phase shifted
	Sweep bool

	// SweepPeriodUS is the time for one full ramp up and down
	SweepPeriodUS uint32

	// DebugUART enables text diagnostics on UART0
	DebugUART bool

	// Trace captures scheduler events in the trace ring
	Trace bool

	// TraceToUART dumps the trace as text on the debug UART instead of
	// sending frames over USB. Needs DebugUART.
	TraceToUART bool
}

// GetMode returns the current mode configuration.
// This can be modified at compile time.
func GetMode() ModeConfig {
	return ModeConfig{
		MainsHz:       core.Mains50Hz,
		BenchSync:     false,
		Sweep:         true,
		SweepPeriodUS: 4000000,
		DebugUART:     true,
		Trace:         true,
		TraceToUART:   false,
	}
}
