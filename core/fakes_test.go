package core

import (
	"errors"
	"testing"
)

// fakeGPIO records pin levels and the attached edge handler
type fakeGPIO struct {
	levels  map[GPIOPin]bool
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	fired   []GPIOPin // pins driven high, in order

	edgePin GPIOPin
	edge    func()

	failOutput GPIOPin
	failWrites bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{
		levels:     make(map[GPIOPin]bool),
		outputs:    make(map[GPIOPin]bool),
		inputs:     make(map[GPIOPin]bool),
		edgePin:    NoPin,
		failOutput: NoPin,
	}
}

var errFakePin = errors.New("fake pin failure")

func (g *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin == g.failOutput {
		return errFakePin
	}
	g.outputs[pin] = true
	return nil
}

func (g *fakeGPIO) ConfigureInput(pin GPIOPin) error {
	g.inputs[pin] = true
	return nil
}

func (g *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	if g.failWrites {
		return errFakePin
	}
	g.levels[pin] = value
	if value {
		g.fired = append(g.fired, pin)
	}
	return nil
}

func (g *fakeGPIO) AttachRisingEdge(pin GPIOPin, handler func()) error {
	g.edgePin = pin
	g.edge = handler
	return nil
}

// risingEdge simulates a zero-cross
func (g *fakeGPIO) risingEdge() {
	g.fired = g.fired[:0]
	if g.edge != nil {
		g.edge()
	}
}

// fakeTimer records arm intervals and the installed callback
type fakeTimer struct {
	initCalls int
	source    TimerSource
	callback  func()
	arms      []uint32
	failInit  bool
}

func (t *fakeTimer) Init(source TimerSource) error {
	if t.failInit {
		return errFakePin
	}
	t.initCalls++
	t.source = source
	return nil
}

func (t *fakeTimer) Arm(us uint32) {
	t.arms = append(t.arms, us)
}

func (t *fakeTimer) SetCallback(fn func()) {
	t.callback = fn
}

// expire simulates the countdown reaching zero
func (t *fakeTimer) expire() {
	if t.callback != nil {
		t.callback()
	}
}

// runHalfCycle fires one zero-cross and then every timer step until the
// callback is removed. Returns the pins driven high, in order.
func runHalfCycle(t *testing.T, g *fakeGPIO, tm *fakeTimer) []GPIOPin {
	t.Helper()
	tm.arms = tm.arms[:0]
	g.risingEdge()
	for i := 0; tm.callback != nil; i++ {
		if i > MaxLoads {
			t.Fatalf("timer cascade did not terminate")
		}
		tm.expire()
	}
	return append([]GPIOPin(nil), g.fired...)
}

const testSyncPin GPIOPin = 7

func newTestDimmer(t *testing.T) (*Dimmer, *fakeGPIO, *fakeTimer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SyncPin = testSyncPin
	g := newFakeGPIO()
	tm := &fakeTimer{}
	d, err := NewDimmer(cfg, g, tm)
	if err != nil {
		t.Fatalf("NewDimmer failed: %v", err)
	}
	return d, g, tm
}

func startTestDimmer(t *testing.T) (*Dimmer, *fakeGPIO, *fakeTimer) {
	t.Helper()
	d, g, tm := newTestDimmer(t)
	if err := d.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return d, g, tm
}

func mustCreate(t *testing.T, d *Dimmer, pin GPIOPin) LoadHandle {
	t.Helper()
	h, err := d.Create(pin)
	if err != nil {
		t.Fatalf("Create(%d) failed: %v", pin, err)
	}
	return h
}

func mustSetDelay(t *testing.T, d *Dimmer, h LoadHandle, us uint32) {
	t.Helper()
	if err := d.SetDelay(h, us); err != nil {
		t.Fatalf("SetDelay(%d) failed: %v", us, err)
	}
}

func samePins(a, b []GPIOPin) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
