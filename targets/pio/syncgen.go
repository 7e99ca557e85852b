//go:build rp2040

package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var ErrNoStateMachine = errors.New("no free PIO state machine")

// Sync generator program: one short pulse per half-cycle.
// Each TX word is the pulse period minus the fixed program overhead.
//
// Program flow:
//  1. Pull the period from the FIFO (stalls, and the pulses stop, if the
//     firmware stops feeding it)
//  2. Drive the pin high for 8 cycles, then low
//  3. Count X down to zero, then wrap
func buildSyncProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),            // 1: out x, 16
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 2: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 3: set pins, 0
		// count:
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, 4
		// .wrap
	}
}

const syncPIOOrigin = 0 // absolute jump addresses

// SyncGenerator emits a rising edge every period on a spare pin. Loop the
// pin back to the dimmer's sync input to run without mains.
type SyncGenerator struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	word   uint32
	pioNum uint8
	smNum  uint8
}

// NewSyncGenerator reserves a state machine for the generator
func NewSyncGenerator() (*SyncGenerator, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, ErrNoStateMachine
	}

	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &SyncGenerator{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}, nil
}

// Start loads the program and begins pulsing pin every periodUS
// microseconds. Call Feed regularly afterwards.
func (g *SyncGenerator) Start(pin machine.Pin, periodUS uint32) error {
	word, ok := SyncWord(periodUS)
	if !ok {
		return ErrPeriodRange
	}
	g.pin = pin
	g.word = word

	g.sm.TryClaim()

	program := buildSyncProgram()
	offset, err := g.pio.AddProgram(program, syncPIOOrigin)
	if err != nil {
		return err
	}

	g.pin.Configure(machine.PinConfig{Mode: g.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(g.pin, 1)
	// Shift right so out x, 16 takes the low half of the word
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(syncClockDiv, 0)

	// Pin directions only stick after Init
	g.sm.Init(offset, cfg)
	g.sm.SetPindirsConsecutive(g.pin, 1, true)
	g.sm.SetPinsConsecutive(g.pin, 1, false)

	g.Feed()
	g.sm.SetEnabled(true)
	return nil
}

// SetPeriod changes the pulse period. The words already queued in the
// FIFO still run at the old period.
func (g *SyncGenerator) SetPeriod(periodUS uint32) error {
	word, ok := SyncWord(periodUS)
	if !ok {
		return ErrPeriodRange
	}
	g.word = word
	return nil
}

// Feed tops up the TX FIFO. Four words cover four half-cycles, so calling
// it every few milliseconds keeps the edges regular.
func (g *SyncGenerator) Feed() {
	for !g.sm.IsTxFIFOFull() {
		g.sm.TxPut(g.word)
	}
}

// Stop halts the state machine, leaves the pin low and frees the slot.
// The program stays loaded; a stopped generator cannot be restarted.
func (g *SyncGenerator) Stop() {
	g.sm.SetEnabled(false)
	g.sm.ClearFIFOs()
	g.sm.Restart()
	g.sm.SetPinsConsecutive(g.pin, 1, false)
	releasePIO(g.pioNum, g.smNum)
}
