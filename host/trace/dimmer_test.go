package trace

import (
	"bytes"
	"testing"

	"thyristor/core"
	"thyristor/protocol"
)

type benchGPIO struct {
	edge func()
}

func (g *benchGPIO) ConfigureOutput(core.GPIOPin) error { return nil }
func (g *benchGPIO) ConfigureInput(core.GPIOPin) error  { return nil }
func (g *benchGPIO) SetPin(core.GPIOPin, bool) error    { return nil }
func (g *benchGPIO) AttachRisingEdge(_ core.GPIOPin, fn func()) error {
	g.edge = fn
	return nil
}

type benchTimer struct {
	cb func()
}

func (t *benchTimer) Init(core.TimerSource) error { return nil }
func (t *benchTimer) Arm(uint32)                  {}
func (t *benchTimer) SetCallback(fn func())       { t.cb = fn }

// TestDimmerTracePassesChecker streams the trace of a real dimmer through
// the wire format and checks it
func TestDimmerTracePassesChecker(t *testing.T) {
	core.ResetTrace()
	defer core.ResetTrace()

	g := &benchGPIO{}
	tm := &benchTimer{}
	d, err := core.NewDimmer(core.DefaultConfig(), g, tm)
	if err != nil {
		t.Fatalf("NewDimmer failed: %v", err)
	}
	if err := d.SetSyncPin(7); err != nil {
		t.Fatalf("SetSyncPin failed: %v", err)
	}
	if err := d.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	delays := map[core.GPIOPin]uint32{1: 2600, 2: 2500, 3: 9960, 4: 3900, 6: 10}
	for _, pin := range []core.GPIOPin{1, 2, 3, 4, 6} {
		h, err := d.Create(pin)
		if err != nil {
			t.Fatalf("Create(%d) failed: %v", pin, err)
		}
		if err := d.SetDelay(h, delays[pin]); err != nil {
			t.Fatalf("SetDelay(%d) failed: %v", pin, err)
		}
	}

	var stream []byte
	var enc protocol.FrameEncoder
	drain := func() {
		core.DrainTraceFrames(&enc, func(frame []byte) {
			stream = append(stream, frame...)
		})
	}

	for cycle := 0; cycle < 3; cycle++ {
		g.edge()
		for tm.cb != nil {
			tm.cb()
		}
		drain()
	}

	c := NewChecker()
	m := NewMonitor(bytes.NewReader(stream))
	m.SetChecker(c)
	collect(t, m)

	if v := c.Violations(); len(v) != 0 {
		t.Errorf("Expected no violations, got %v", v)
	}
	if c.HalfCycles() != 3 {
		t.Errorf("Expected 3 half-cycles, got %d", c.HalfCycles())
	}
	// Pin 3 is past the arm cutoff and never fires
	if c.Fires() != 12 {
		t.Errorf("Expected 12 fires, got %d", c.Fires())
	}
	if s := m.Summary(); s.Corrupt != 0 || s.LostFrames != 0 {
		t.Errorf("Expected a clean stream, got %+v", s)
	}
}
