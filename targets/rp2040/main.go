//go:build rp2040

package main

import (
	"machine"
	"thyristor/core"
	"thyristor/protocol"
	"thyristor/targets/pio"
	"time"
)

var (
	dimmer  *core.Dimmer
	handles [len(loadPins)]core.LoadHandle

	syncGen *pio.SyncGenerator

	// Trace frames to USB
	traceEncoder protocol.FrameEncoder

	// Debug counters
	framesSent    uint32
	writeFailures uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	mode := GetMode()

	InitUSB()
	if mode.DebugUART {
		InitDebugUART()
	}
	InitClock()
	core.SetTraceEnabled(mode.Trace)

	cfg := core.ConfigForFrequency(mode.MainsHz)
	cfg.SyncPin = syncPin

	dimmer, err = core.NewDimmer(cfg, NewRPGPIODriver(), NewRPAlarmTimer())
	if err != nil {
		halt("dimmer: " + err.Error())
	}

	for i, pin := range loadPins {
		h, err := dimmer.Create(pin)
		if err != nil {
			halt("load on gpio" + itoa(int(pin)) + ": " + err.Error())
		}
		handles[i] = h
	}

	if mode.BenchSync {
		startBenchSync(cfg)
	}

	if err := dimmer.Begin(); err != nil {
		halt("begin: " + err.Error())
	}

	sweep := core.NewSweep(cfg, mode.SweepPeriodUS)
	phase := sweep.PeriodUS / uint32(len(loadPins))

	lastReport := core.Now()
	for {
		if syncGen != nil {
			syncGen.Feed()
		}

		now := core.Now()
		if mode.Sweep {
			for i, h := range handles {
				// Errors only come from a stale handle, and these never go stale
				_ = dimmer.SetDelay(h, sweep.DelayAt(now, uint32(i)*phase))
			}
		}

		if mode.TraceToUART && core.IsDebugEnabled() {
			if core.TracePending() > 0 {
				core.DumpTrace()
			}
		} else {
			core.DrainTraceFrames(&traceEncoder, writeFrame)
		}

		if now-lastReport >= 5000000 {
			lastReport = now
			reportStats()
		}

		// Yield to other goroutines
		time.Sleep(1 * time.Millisecond)
	}
}

// startBenchSync replaces mains with the PIO pulse train
func startBenchSync(cfg core.Config) {
	gen, err := pio.NewSyncGenerator()
	if err != nil {
		halt("sync generator: " + err.Error())
	}
	if err := gen.Start(machine.Pin(benchSyncPin), cfg.HalfCycleUS); err != nil {
		halt("sync generator: " + err.Error())
	}
	syncGen = gen
	core.DebugPrintln("[MAIN] bench sync on gpio" + itoa(benchSyncPin) +
		" period=" + itoa(int(cfg.HalfCycleUS)))
}

// writeFrame sends one trace frame over USB. Frames that do not go out
// whole are dropped; the host sees the sequence gap.
func writeFrame(frame []byte) {
	written := 0
	for written < len(frame) {
		n, err := USBWriteBytes(frame[written:])
		if err != nil || n == 0 {
			writeFailures++
			return
		}
		written += n
	}
	framesSent++
}

func reportStats() {
	if !core.IsDebugEnabled() {
		return
	}
	s := dimmer.Stats()
	core.DebugPrintln("[MAIN] cycles=" + itoa(int(s.HalfCycles)) +
		" fires=" + itoa(int(s.Fires)) +
		" stale=" + itoa(int(s.StaleCycles)) +
		" skips=" + itoa(int(s.CutoffSkips)) +
		" spurious=" + itoa(int(s.Spurious)) +
		" frames=" + itoa(int(framesSent)) +
		" dropped=" + itoa(int(core.TraceDropped())))
}

// halt reports a fatal setup error and blinks the LED forever
func halt(msg string) {
	core.DebugPrintln("[MAIN] fatal: " + msg)
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

// itoa converts int to string without importing strconv (for embedded)
func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	negative := i < 0
	if negative {
		i = -i
	}

	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
