//go:build rp2040

package main

// Sync Jitter Test - measures the edge interrupt period against the PIO
// sync generator. Jumper GP7 (generator) to GP6 (sync input).

import (
	"machine"
	"runtime/volatile"
	"sync/atomic"
	"thyristor/targets/pio"
	"time"
	"unsafe"
)

const (
	genPin  = machine.GPIO7
	syncPin = machine.GPIO6

	// Measurement rounds over all periods before the generator is stopped
	rounds = 5

	// RP2040 TIMERAWL, the free-running microsecond counter
	timerRawLow = 0x40054028
)

var periods = []struct {
	us   uint32
	name string
}{
	{10000, "50Hz mains"},
	{8333, "60Hz mains"},
}

var (
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawLow)))

	lastEdge  uint32
	edges     atomic.Uint32
	minPeriod atomic.Uint32
	maxPeriod atomic.Uint32
)

func onEdge(machine.Pin) {
	now := timerRAWL.Get()
	if edges.Add(1) > 1 {
		p := now - lastEdge
		if p < minPeriod.Load() {
			minPeriod.Store(p)
		}
		if p > maxPeriod.Load() {
			maxPeriod.Store(p)
		}
	}
	lastEdge = now
}

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	println("=== Sync Jitter Test ===")
	println("Generator: GP7, Sync input: GP6 (jumper them)")

	syncPin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	if err := syncPin.SetInterrupt(machine.PinRising, onEdge); err != nil {
		println("Interrupt error:", err.Error())
		return
	}

	gen, err := pio.NewSyncGenerator()
	if err != nil {
		println("Generator error:", err.Error())
		return
	}
	if err := gen.Start(genPin, periods[0].us); err != nil {
		println("Start error:", err.Error())
		return
	}

	for round := 0; round < rounds; round++ {
		for _, p := range periods {
			if err := gen.SetPeriod(p.us); err != nil {
				println("Period error:", err.Error())
				return
			}
			// Let the queued words of the old period run out
			for i := 0; i < 10; i++ {
				gen.Feed()
				time.Sleep(5 * time.Millisecond)
			}

			edges.Store(0)
			minPeriod.Store(^uint32(0))
			maxPeriod.Store(0)

			// Two seconds of edges
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				gen.Feed()
				time.Sleep(5 * time.Millisecond)
			}

			println(p.name, "expected", p.us, "us",
				"edges", edges.Load(),
				"min", minPeriod.Load(),
				"max", maxPeriod.Load())
			led.Set(!led.Get())
		}
	}

	gen.Stop()
	led.Low()
	println("=== Done, generator stopped ===")
}
