//go:build rp2040

package main

import (
	"runtime/volatile"
	"thyristor/core"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM2   = timerBase + 0x18 // Alarm 2 target, writing arms it
	timerARMED    = timerBase + 0x20 // Write 1 to disarm an alarm
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
	timerINTR     = timerBase + 0x34 // Raw interrupts, write 1 to clear
	timerINTE     = timerBase + 0x38 // Interrupt enable
)

var (
	timerRAWH   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerAlarm2 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM2)))
	timerArmed  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// InitClock registers the hardware microsecond counter as the core clock.
// The RP2040 timer runs at 1MHz from the watchdog tick.
func InitClock() {
	core.SetClockSource(GetHardwareTime)
}

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// High, low, high again to detect a rollover between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
