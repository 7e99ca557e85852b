// Package pio drives the RP2040 PIO blocks used by the dimmer firmware.
package pio

import "errors"

var ErrPeriodRange = errors.New("sync period out of range")

const (
	// Cycles per period outside the count loop: pull, out, 8 high, 1 low,
	// plus the final fall-through of the jmp
	syncOverheadCycles = 12

	// 125MHz system clock / 125 = one PIO cycle per microsecond
	syncClockDiv = 125

	syncMinPeriodUS = 100
	syncMaxPeriodUS = 0xFFFF + syncOverheadCycles
)

// SyncWord returns the FIFO word that makes the generator pulse every
// periodUS microseconds, and whether that period is reachable
func SyncWord(periodUS uint32) (uint32, bool) {
	if periodUS < syncMinPeriodUS || periodUS > syncMaxPeriodUS {
		return 0, false
	}
	return periodUS - syncOverheadCycles, true
}
